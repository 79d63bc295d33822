package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/sales-crm/internal/match"
	"github.com/fieldline/sales-crm/internal/model"
)

// Matching thresholds. Company and name comparisons are fuzzy with hard
// similarity cutoffs; the name bar is higher to reduce false positives on
// common names. Phone numbers shorter than seven digits are too ambiguous
// to compare at all.
const (
	companyThreshold   = 0.80
	nameThreshold      = 0.85
	domainConfidence   = 0.70
	phoneEndConfidence = 0.80
	linkedinConfidence = 0.95
	minPhoneDigits     = 7
	phoneSuffixDigits  = 7
	domainMatchCap     = 5

	defaultLookbackMonths = 12
	domainLookbackMonths  = 6
)

// Audit action tags written by the duplicate engine.
const (
	AuditWarningShown = "warning_shown"
	AuditProceeded    = "proceeded_anyway"
	AuditCancelled    = "cancelled"
)

// Checker runs duplicate checks against the record store and persists a
// warning when the result is worth showing. Store failures degrade to the
// empty result: duplicate checking is advisory and must never block the
// create workflow it guards.
type Checker struct {
	Source   CandidateSource
	Warnings WarningStore
	Audit    *AuditLogger
	Events   EventSink // optional

	lookback int
	now      func() time.Time
}

// NewChecker wires a Checker. events may be nil.
func NewChecker(source CandidateSource, warnings WarningStore, audit *AuditLogger, events EventSink) *Checker {
	return &Checker{
		Source:   source,
		Warnings: warnings,
		Audit:    audit,
		Events:   events,
		lookback: defaultLookbackMonths,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetLookback overrides the general activity lookback window in months.
// The six-month domain-scan window is fixed and unaffected.
func (c *Checker) SetLookback(months int) {
	if months > 0 {
		c.lookback = months
	}
}

// emptyResult is what callers get when nothing matched or the check had to
// degrade.
func emptyResult() Result {
	return Result{HasWarning: false, Severity: model.SeverityLow, Matches: []Match{}}
}

// Check compares the candidate input against other owners' lead and
// pipeline records, one independent scan per present field, and merges the
// matches into a ranked result. When the overall severity rises above LOW
// a warning row (with its match rows, atomically) is persisted, a
// "warning_shown" audit entry is appended best-effort, and the optional
// event sink is notified.
func (c *Checker) Check(ctx context.Context, in CheckInput, userID uint64, action string) Result {
	if in.Empty() {
		return emptyResult()
	}
	now := c.now()

	var matches []Match
	for _, dim := range []func(context.Context, CheckInput, uint64, time.Time) ([]Match, error){
		c.companyMatches,
		c.emailMatches,
		c.phoneMatches,
		c.nameMatches,
		c.linkedinMatches,
	} {
		found, err := dim(ctx, in, userID, now)
		if err != nil {
			// Availability over false-positive blocking: degrade to no
			// warning instead of failing the caller's create flow.
			log.Printf("dedupe: check degraded for user %d: %v", userID, err)
			return emptyResult()
		}
		matches = append(matches, found...)
	}

	if len(matches) == 0 {
		return emptyResult()
	}

	overall := overallSeverity(matches)
	res := Result{
		HasWarning: overall != model.SeverityLow,
		Severity:   overall,
		Matches:    matches,
		Message:    buildMessage(matches, now),
	}
	if !res.HasWarning {
		return res
	}

	trigger, err := json.Marshal(in)
	if err != nil {
		log.Printf("dedupe: marshal trigger data: %v", err)
		return emptyResult()
	}
	w := model.DuplicateWarning{
		PublicID:      uuid.NewString(),
		TriggeredBy:   userID,
		TriggerAction: action,
		WarningType:   primaryMatch(matches).MatchType,
		Severity:      overall,
		TriggerData:   string(trigger),
		CreatedAt:     now,
	}
	if err := c.Warnings.CreateWithMatches(ctx, &w, matchRows(matches)); err != nil {
		log.Printf("dedupe: persist warning failed for user %d: %v", userID, err)
		return emptyResult()
	}
	res.WarningID = &w.PublicID

	c.Audit.Log(ctx, model.AuditLogEntry{
		UserID:           userID,
		Action:           AuditWarningShown,
		WarningID:        &w.ID,
		EntityType:       "duplicate_warning",
		EntityID:         w.PublicID,
		SystemSuggestion: res.Message,
		ActualOutcome:    fmt.Sprintf("%d match(es), severity %s", len(matches), overall),
		CreatedAt:        now,
	})
	if c.Events != nil {
		c.Events.WarningRaised(ctx, w, len(matches))
	}
	return res
}

func (c *Checker) newMatch(rec RecordSnapshot, dimension, matchType string, confidence float64, details map[string]string, now time.Time) Match {
	return Match{
		ID:           fmt.Sprintf("%s-%s-%d", rec.SourceType, dimension, rec.ID),
		MatchType:    matchType,
		Confidence:   confidence,
		MatchDetails: details,
		Record:       rec,
		Severity:     MatchSeverity(confidence, rec.LastContactAt, now),
	}
}

// companyMatches scores the candidate company against every other owner's
// record with a company set, keeping similarities at or above the 0.8
// cutoff. Confidence equals the similarity.
func (c *Checker) companyMatches(ctx context.Context, in CheckInput, userID uint64, now time.Time) ([]Match, error) {
	norm := match.CompanyName(in.Company)
	if norm == "" {
		return nil, nil
	}
	cands, err := c.Source.Candidates(ctx, userID, c.lookback)
	if err != nil {
		return nil, fmt.Errorf("company scan: %w", err)
	}
	var out []Match
	for _, rec := range cands {
		if rec.Company == nil {
			continue
		}
		existing := match.CompanyName(*rec.Company)
		if existing == "" {
			continue
		}
		sim := match.Similarity(norm, existing)
		if sim < companyThreshold {
			continue
		}
		out = append(out, c.newMatch(rec, "company", model.MatchCompanyName, sim, map[string]string{
			"candidateCompany": in.Company,
			"existingCompany":  *rec.Company,
			"similarity":       fmt.Sprintf("%.2f", sim),
		}, now))
	}
	return out, nil
}

// emailMatches runs two scans: exact normalized-email equality at
// confidence 1.0, then a domain scan (excluding the exact hits) at
// confidence 0.7, capped at five results and restricted to a six-month
// activity lookback.
func (c *Checker) emailMatches(ctx context.Context, in CheckInput, userID uint64, now time.Time) ([]Match, error) {
	norm := match.Email(in.Email)
	if norm == "" {
		return nil, nil
	}

	cands, err := c.Source.Candidates(ctx, userID, c.lookback)
	if err != nil {
		return nil, fmt.Errorf("email scan: %w", err)
	}
	var out []Match
	exact := map[uint64]bool{}
	for _, rec := range cands {
		if rec.Email == nil || match.Email(*rec.Email) != norm {
			continue
		}
		exact[rec.ID] = true
		out = append(out, c.newMatch(rec, "email", model.MatchContactEmail, 1.0, map[string]string{
			"candidateEmail": norm,
			"existingEmail":  *rec.Email,
		}, now))
	}

	domain := match.DomainFromEmail(norm)
	if domain == "" {
		return out, nil
	}
	domCands, err := c.Source.Candidates(ctx, userID, domainLookbackMonths)
	if err != nil {
		return nil, fmt.Errorf("domain scan: %w", err)
	}
	found := 0
	for _, rec := range domCands {
		if found >= domainMatchCap {
			break
		}
		if rec.Email == nil || exact[rec.ID] {
			continue
		}
		if !strings.Contains(match.Email(*rec.Email), "@"+domain) {
			continue
		}
		out = append(out, c.newMatch(rec, "domain", model.MatchCompanyDomain, domainConfidence, map[string]string{
			"domain":        domain,
			"existingEmail": *rec.Email,
		}, now))
		found++
	}
	return out, nil
}

// phoneMatches compares digit-normalized phone numbers. Exact equality
// scores 1.0; otherwise two numbers of at least seven digits whose last
// seven digits agree score 0.8. Candidates shorter than seven digits are
// skipped entirely.
func (c *Checker) phoneMatches(ctx context.Context, in CheckInput, userID uint64, now time.Time) ([]Match, error) {
	norm := match.Phone(in.Phone)
	if len(norm) < minPhoneDigits {
		return nil, nil
	}
	cands, err := c.Source.Candidates(ctx, userID, c.lookback)
	if err != nil {
		return nil, fmt.Errorf("phone scan: %w", err)
	}
	var out []Match
	for _, rec := range cands {
		if rec.Phone == nil {
			continue
		}
		existing := match.Phone(*rec.Phone)
		var confidence float64
		var how string
		switch {
		case existing == norm:
			confidence, how = 1.0, "exact"
		case len(existing) >= phoneSuffixDigits && len(norm) >= phoneSuffixDigits &&
			existing[len(existing)-phoneSuffixDigits:] == norm[len(norm)-phoneSuffixDigits:]:
			confidence, how = phoneEndConfidence, "ends match"
		default:
			continue
		}
		out = append(out, c.newMatch(rec, "phone", model.MatchContactPhone, confidence, map[string]string{
			"candidatePhone": norm,
			"existingPhone":  existing,
			"matchedBy":      how,
		}, now))
	}
	return out, nil
}

// nameMatches scores the candidate person name against other records'
// names with a 0.85 cutoff.
func (c *Checker) nameMatches(ctx context.Context, in CheckInput, userID uint64, now time.Time) ([]Match, error) {
	norm := match.PersonName(in.Name)
	if norm == "" {
		return nil, nil
	}
	cands, err := c.Source.Candidates(ctx, userID, c.lookback)
	if err != nil {
		return nil, fmt.Errorf("name scan: %w", err)
	}
	var out []Match
	for _, rec := range cands {
		existing := match.PersonName(rec.Name)
		if existing == "" {
			continue
		}
		sim := match.Similarity(norm, existing)
		if sim < nameThreshold {
			continue
		}
		out = append(out, c.newMatch(rec, "name", model.MatchContactName, sim, map[string]string{
			"candidateName": in.Name,
			"existingName":  rec.Name,
			"similarity":    fmt.Sprintf("%.2f", sim),
		}, now))
	}
	return out, nil
}

// linkedinMatches reduces the candidate URL to its profile slug and flags
// stored links containing it at a fixed 0.95 confidence.
func (c *Checker) linkedinMatches(ctx context.Context, in CheckInput, userID uint64, now time.Time) ([]Match, error) {
	path := match.LinkedInPath(in.LinkedInURL)
	if path == "" {
		return nil, nil
	}
	cands, err := c.Source.Candidates(ctx, userID, c.lookback)
	if err != nil {
		return nil, fmt.Errorf("linkedin scan: %w", err)
	}
	var out []Match
	for _, rec := range cands {
		if rec.LinkedInURL == nil || !strings.Contains(strings.ToLower(*rec.LinkedInURL), path) {
			continue
		}
		out = append(out, c.newMatch(rec, "linkedin", model.MatchLinkedInProfile, linkedinConfidence, map[string]string{
			"profilePath":  path,
			"existingLink": *rec.LinkedInURL,
		}, now))
	}
	return out, nil
}

// matchRows converts ephemeral matches into the rows persisted with a
// warning.
func matchRows(matches []Match) []model.DuplicateWarningMatch {
	rows := make([]model.DuplicateWarningMatch, 0, len(matches))
	for _, m := range matches {
		details, _ := json.Marshal(m.MatchDetails)
		rows = append(rows, model.DuplicateWarningMatch{
			MatchKey:      m.ID,
			MatchType:     m.MatchType,
			Confidence:    m.Confidence,
			Severity:      m.Severity,
			SourceType:    m.Record.SourceType,
			RecordID:      m.Record.ID,
			RecordName:    m.Record.Name,
			RecordCompany: m.Record.Company,
			RecordEmail:   m.Record.Email,
			RecordPhone:   m.Record.Phone,
			OwnerID:       m.Record.Owner.ID,
			OwnerName:     m.Record.Owner.Name,
			OwnerRole:     m.Record.Owner.Role,
			LastContactAt: m.Record.LastContactAt,
			RecordStatus:  m.Record.Status,
			RecordActive:  m.Record.IsActive,
			Details:       string(details),
		})
	}
	return rows
}
