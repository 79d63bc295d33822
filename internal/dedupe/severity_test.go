package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fieldline/sales-crm/internal/model"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func TestMatchSeverityHighConfidence(t *testing.T) {
	cases := []struct {
		name        string
		confidence  float64
		lastContact *time.Time
		want        string
	}{
		{"0.95 one month ago", 0.95, daysAgo(30), model.SeverityCritical},
		{"1.0 ten days ago", 1.0, daysAgo(10), model.SeverityCritical},
		{"0.95 four months ago", 0.95, daysAgo(120), model.SeverityHigh},
		{"0.95 ten months ago", 0.95, daysAgo(300), model.SeverityMedium},
		{"0.95 no contact floors at medium", 0.95, nil, model.SeverityMedium},
		{"0.80 two months ago", 0.80, daysAgo(60), model.SeverityHigh},
		{"0.80 five months ago", 0.80, daysAgo(150), model.SeverityMedium},
		{"0.80 no contact", 0.80, nil, model.SeverityMedium},
		{"0.79 is low regardless", 0.79, daysAgo(1), model.SeverityLow},
		{"0.70 low", 0.70, nil, model.SeverityLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchSeverity(tc.confidence, tc.lastContact, now))
		})
	}
}

func TestMatchSeverityWindowBoundary(t *testing.T) {
	// "Within 3 months" means strictly after now - 90 days (30-day months).
	exactly := now.Add(-90 * 24 * time.Hour)
	inside := exactly.Add(time.Second)
	assert.Equal(t, model.SeverityHigh, MatchSeverity(0.95, &exactly, now))
	assert.Equal(t, model.SeverityCritical, MatchSeverity(0.95, &inside, now))
}

func TestOverallSeverityIsMax(t *testing.T) {
	matches := []Match{
		{Severity: model.SeverityLow},
		{Severity: model.SeverityHigh},
		{Severity: model.SeverityMedium},
	}
	assert.Equal(t, model.SeverityHigh, overallSeverity(matches))
	assert.Equal(t, model.SeverityLow, overallSeverity(nil))
}

func TestPrimaryMatchTieBreaks(t *testing.T) {
	matches := []Match{
		{MatchType: model.MatchCompanyDomain, Severity: model.SeverityMedium, Confidence: 0.70},
		{MatchType: model.MatchCompanyName, Severity: model.SeverityHigh, Confidence: 0.82},
		{MatchType: model.MatchContactEmail, Severity: model.SeverityHigh, Confidence: 1.0},
	}
	// Highest severity first, then highest confidence.
	assert.Equal(t, model.MatchContactEmail, primaryMatch(matches).MatchType)
}

func TestRelativeTime(t *testing.T) {
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{90 * time.Second, "1 minute ago"},
		{45 * time.Minute, "45 minutes ago"},
		{2 * time.Hour, "2 hours ago"},
		{26 * time.Hour, "1 day ago"},
		{10 * 24 * time.Hour, "10 days ago"},
		{45 * 24 * time.Hour, "1 month ago"},
		{200 * 24 * time.Hour, "6 months ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, relativeTime(now.Add(-tc.ago), now), "ago=%s", tc.ago)
	}
}

func TestBuildMessage(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", buildMessage(nil, now))
	})

	t.Run("high severity names dimension owner and recency", func(t *testing.T) {
		matches := []Match{{
			MatchType:  model.MatchContactEmail,
			Severity:   model.SeverityCritical,
			Confidence: 1.0,
			Record: RecordSnapshot{
				Owner:         Owner{ID: 2, Name: "Carol Jones"},
				LastContactAt: daysAgo(10),
			},
		}}
		msg := buildMessage(matches, now)
		assert.Contains(t, msg, "email address")
		assert.Contains(t, msg, "Carol Jones")
		assert.Contains(t, msg, "10 days ago")
	})

	t.Run("owner fallback", func(t *testing.T) {
		matches := []Match{{
			MatchType: model.MatchCompanyName,
			Severity:  model.SeverityHigh,
			Record:    RecordSnapshot{LastContactAt: daysAgo(5)},
		}}
		assert.Contains(t, buildMessage(matches, now), "another BDR")
	})

	t.Run("generic message below high", func(t *testing.T) {
		matches := []Match{
			{Severity: model.SeverityMedium},
			{Severity: model.SeverityLow},
		}
		assert.Equal(t, "2 potential duplicates found", buildMessage(matches, now))
		assert.Equal(t, "1 potential duplicate found", buildMessage(matches[:1], now))
	})
}
