package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/sales-crm/internal/model"
)

// ----- fakes -----

type fakeSource struct {
	records      []RecordSnapshot
	err          error
	excludeSeen  []uint64
	lookbackSeen []int
}

func (f *fakeSource) Candidates(_ context.Context, excludeOwner uint64, lookbackMonths int) ([]RecordSnapshot, error) {
	f.excludeSeen = append(f.excludeSeen, excludeOwner)
	f.lookbackSeen = append(f.lookbackSeen, lookbackMonths)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeWarnings struct {
	created       *model.DuplicateWarning
	createdRows   []model.DuplicateWarningMatch
	createErr     error
	byPublicID    map[string]model.DuplicateWarning
	getErr        error
	decisions     []string
	decisionIDs   []uint64
	decisionErr   error
	stats         Statistics
	recent        []WarningSummary
	recentLimit   int
	recentResolve bool
}

func (f *fakeWarnings) CreateWithMatches(_ context.Context, w *model.DuplicateWarning, rows []model.DuplicateWarningMatch) error {
	if f.createErr != nil {
		return f.createErr
	}
	w.ID = 101
	f.created = w
	f.createdRows = rows
	return nil
}

func (f *fakeWarnings) GetByPublicID(_ context.Context, publicID string) (model.DuplicateWarning, error) {
	if f.getErr != nil {
		return model.DuplicateWarning{}, f.getErr
	}
	w, ok := f.byPublicID[publicID]
	if !ok {
		return model.DuplicateWarning{}, errors.New("not found")
	}
	return w, nil
}

func (f *fakeWarnings) RecordDecision(_ context.Context, id uint64, decision string, _ *string, _ time.Time) error {
	if f.decisionErr != nil {
		return f.decisionErr
	}
	f.decisionIDs = append(f.decisionIDs, id)
	f.decisions = append(f.decisions, decision)
	return nil
}

func (f *fakeWarnings) Statistics(_ context.Context, _, _ *time.Time) (Statistics, error) {
	return f.stats, nil
}

func (f *fakeWarnings) Recent(_ context.Context, limit int, includeResolved bool) ([]WarningSummary, error) {
	f.recentLimit = limit
	f.recentResolve = includeResolved
	return f.recent, nil
}

type fakeAudit struct {
	entries []model.AuditLogEntry
	err     error
}

func (f *fakeAudit) Append(_ context.Context, e model.AuditLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func str(s string) *string { return &s }

func newTestChecker(src *fakeSource, warnings *fakeWarnings, audit *fakeAudit) *Checker {
	c := NewChecker(src, warnings, &AuditLogger{Sink: audit}, nil)
	c.now = func() time.Time { return now }
	return c
}

func carolRecord() RecordSnapshot {
	return RecordSnapshot{
		ID:            7,
		SourceType:    model.SourceLead,
		Name:          "Bob Smyth",
		Company:       str("ACME Corp"),
		Email:         str("bob@acme.com"),
		Phone:         str("+1 555 010 7788"),
		Owner:         Owner{ID: 2, Name: "Carol Jones", Role: "BDR"},
		LastContactAt: daysAgo(10),
		Status:        "CONTACTED",
		IsActive:      true,
	}
}

// ----- tests -----

func TestCheckEmptyInput(t *testing.T) {
	src := &fakeSource{}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{}, 1, model.TriggerLeadCreate)
	assert.False(t, res.HasWarning)
	assert.Equal(t, model.SeverityLow, res.Severity)
	assert.Empty(t, res.Matches)
	assert.Empty(t, src.excludeSeen, "no store access for empty input")
}

func TestCheckExcludesOwnRecords(t *testing.T) {
	src := &fakeSource{}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	c.Check(context.Background(), CheckInput{Company: "Acme"}, 42, model.TriggerLeadCreate)
	require.NotEmpty(t, src.excludeSeen)
	for _, id := range src.excludeSeen {
		assert.Equal(t, uint64(42), id, "every scan must exclude the checking user's records")
	}
}

func TestCompanyMatchThreshold(t *testing.T) {
	mk := func(company string) RecordSnapshot {
		r := carolRecord()
		r.Company = str(company)
		r.Email = nil
		r.Phone = nil
		return r
	}
	// "abcd" vs "abce": similarity 0.75, below the 0.8 cutoff.
	src := &fakeSource{records: []RecordSnapshot{mk("abce")}}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{Company: "abcd"}, 1, model.TriggerLeadCreate)
	assert.Empty(t, res.Matches, "0.75 similarity must not match")

	// "abcde" vs "abcdf": similarity exactly 0.8, the cutoff is inclusive.
	src = &fakeSource{records: []RecordSnapshot{mk("abcdf")}}
	c = newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	res = c.Check(context.Background(), CheckInput{Company: "abcde"}, 1, model.TriggerLeadCreate)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, model.MatchCompanyName, res.Matches[0].MatchType)
	assert.InDelta(t, 0.8, res.Matches[0].Confidence, 1e-9)
}

func TestEmailExactMatch(t *testing.T) {
	src := &fakeSource{records: []RecordSnapshot{carolRecord()}}
	warnings := &fakeWarnings{}
	c := newTestChecker(src, warnings, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{Email: " Bob@Acme.COM "}, 1, model.TriggerLeadCreate)

	require.NotEmpty(t, res.Matches)
	m := res.Matches[0]
	assert.Equal(t, model.MatchContactEmail, m.MatchType)
	assert.Equal(t, 1.0, m.Confidence)
	assert.GreaterOrEqual(t, model.SeverityRank(m.Severity), model.SeverityRank(model.SeverityMedium))
	assert.Equal(t, "lead-email-7", m.ID)
}

func TestEmailDomainScanCapAndExclusion(t *testing.T) {
	records := []RecordSnapshot{carolRecord()} // exact match, must not reappear as domain match
	for i := 0; i < 8; i++ {
		r := carolRecord()
		r.ID = uint64(100 + i)
		r.Email = str("someone" + string(rune('a'+i)) + "@acme.com")
		records = append(records, r)
	}
	src := &fakeSource{records: records}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{Email: "bob@acme.com"}, 1, model.TriggerLeadCreate)

	var exact, domain int
	for _, m := range res.Matches {
		switch m.MatchType {
		case model.MatchContactEmail:
			exact++
		case model.MatchCompanyDomain:
			domain++
			assert.Equal(t, 0.7, m.Confidence)
			assert.NotEqual(t, uint64(7), m.Record.ID, "exact match must not be re-reported by the domain scan")
		}
	}
	assert.Equal(t, 1, exact)
	assert.Equal(t, 5, domain, "domain matches are capped at five")
	// The domain scan uses the shorter six-month lookback.
	assert.Contains(t, src.lookbackSeen, 6)
}

func TestPhoneEndsMatch(t *testing.T) {
	rec := carolRecord()
	rec.Phone = str("+447911123456")
	rec.Email = nil
	rec.Company = nil
	src := &fakeSource{records: []RecordSnapshot{rec}}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{Phone: "0044 7911 123456"}, 1, model.TriggerLeadCreate)

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, model.MatchContactPhone, m.MatchType)
	assert.Equal(t, 0.8, m.Confidence, "differing full strings sharing the last seven digits score 0.8")
	assert.Equal(t, "ends match", m.MatchDetails["matchedBy"])
}

func TestPhoneTooShortSkipped(t *testing.T) {
	src := &fakeSource{records: []RecordSnapshot{carolRecord()}}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{Phone: "12-34-56"}, 1, model.TriggerLeadCreate)
	assert.Empty(t, res.Matches)
	assert.Empty(t, src.excludeSeen, "numbers under seven digits never reach the store")
}

func TestNameMatchThreshold(t *testing.T) {
	rec := carolRecord()
	rec.Company = nil
	rec.Email = nil
	rec.Phone = nil
	src := &fakeSource{records: []RecordSnapshot{rec}}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})

	// "bob smith" vs "bob smyth": 8/9 ≈ 0.889, above the 0.85 name bar.
	res := c.Check(context.Background(), CheckInput{Name: "Bob Smith"}, 1, model.TriggerLeadCreate)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, model.MatchContactName, res.Matches[0].MatchType)

	// A distant name stays out.
	res = c.Check(context.Background(), CheckInput{Name: "Gregory House"}, 1, model.TriggerLeadCreate)
	assert.Empty(t, res.Matches)
}

func TestLinkedInMatch(t *testing.T) {
	rec := carolRecord()
	rec.Company = nil
	rec.Email = nil
	rec.Phone = nil
	rec.LinkedInURL = str("https://www.linkedin.com/in/bob-smyth/")
	src := &fakeSource{records: []RecordSnapshot{rec}}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{LinkedInURL: "linkedin.com/in/bob-smyth"}, 1, model.TriggerLeadCreate)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, model.MatchLinkedInProfile, res.Matches[0].MatchType)
	assert.Equal(t, 0.95, res.Matches[0].Confidence)
}

func TestLowOnlyMatchesRaiseNoWarning(t *testing.T) {
	// A domain-only match has confidence 0.7 and severity LOW; matches are
	// reported but no warning is persisted.
	rec := carolRecord()
	rec.Email = str("alice@acme.com")
	rec.Company = nil
	rec.Phone = nil
	src := &fakeSource{records: []RecordSnapshot{rec}}
	warnings := &fakeWarnings{}
	c := newTestChecker(src, warnings, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{Email: "bob@acme.com"}, 1, model.TriggerLeadCreate)

	require.NotEmpty(t, res.Matches)
	assert.False(t, res.HasWarning)
	assert.Equal(t, model.SeverityLow, res.Severity)
	assert.Nil(t, warnings.created)
	assert.Nil(t, res.WarningID)
}

func TestStoreFailureDegradesToNoWarning(t *testing.T) {
	src := &fakeSource{err: errors.New("store unavailable")}
	c := newTestChecker(src, &fakeWarnings{}, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{Company: "Acme", Email: "bob@acme.com"}, 1, model.TriggerLeadCreate)
	assert.False(t, res.HasWarning)
	assert.Equal(t, model.SeverityLow, res.Severity)
	assert.Empty(t, res.Matches)
}

func TestWarningPersistFailureDegrades(t *testing.T) {
	src := &fakeSource{records: []RecordSnapshot{carolRecord()}}
	warnings := &fakeWarnings{createErr: errors.New("insert failed")}
	c := newTestChecker(src, warnings, &fakeAudit{})
	res := c.Check(context.Background(), CheckInput{Email: "bob@acme.com"}, 1, model.TriggerLeadCreate)
	assert.False(t, res.HasWarning)
	assert.Empty(t, res.Matches)
}

func TestAuditFailureDoesNotPropagate(t *testing.T) {
	src := &fakeSource{records: []RecordSnapshot{carolRecord()}}
	warnings := &fakeWarnings{}
	audit := &fakeAudit{err: errors.New("audit table gone")}
	c := newTestChecker(src, warnings, audit)

	var res Result
	assert.NotPanics(t, func() {
		res = c.Check(context.Background(), CheckInput{Email: "bob@acme.com"}, 1, model.TriggerLeadCreate)
	})
	assert.True(t, res.HasWarning, "the warning itself still goes through")
	require.NotNil(t, warnings.created)
}

func TestCheckEndToEnd(t *testing.T) {
	// BDR Alice checks "Bob Smith" at "Acme Ltd" with bob@acme.com; BDR
	// Carol owns "Bob Smyth" at "ACME Corp" with the same email and an
	// activity ten days ago.
	src := &fakeSource{records: []RecordSnapshot{carolRecord()}}
	warnings := &fakeWarnings{}
	audit := &fakeAudit{}
	c := newTestChecker(src, warnings, audit)

	res := c.Check(context.Background(), CheckInput{
		Name:    "Bob Smith",
		Company: "Acme Ltd",
		Email:   "bob@acme.com",
	}, 1, model.TriggerLeadCreate)

	require.True(t, res.HasWarning)
	assert.Equal(t, model.SeverityCritical, res.Severity)

	byType := map[string]Match{}
	for _, m := range res.Matches {
		byType[m.MatchType] = m
	}
	email, ok := byType[model.MatchContactEmail]
	require.True(t, ok, "expected an exact email match")
	assert.Equal(t, 1.0, email.Confidence)
	assert.Equal(t, model.SeverityCritical, email.Severity)
	assert.Equal(t, uint64(2), email.Record.Owner.ID)

	company, ok := byType[model.MatchCompanyName]
	require.True(t, ok, "expected a company match")
	assert.GreaterOrEqual(t, company.Confidence, 0.85)

	// Warning persisted with every match row.
	require.NotNil(t, warnings.created)
	assert.Equal(t, model.SeverityCritical, warnings.created.Severity)
	assert.Equal(t, uint64(1), warnings.created.TriggeredBy)
	assert.Len(t, warnings.createdRows, len(res.Matches))
	require.NotNil(t, res.WarningID)
	assert.Equal(t, warnings.created.PublicID, *res.WarningID)

	// "warning_shown" audit entry carrying match count and severity.
	require.Len(t, audit.entries, 1)
	assert.Equal(t, AuditWarningShown, audit.entries[0].Action)
	assert.Contains(t, audit.entries[0].ActualOutcome, model.SeverityCritical)
}
