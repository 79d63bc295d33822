package dedupe

import (
	"fmt"
	"time"

	"github.com/fieldline/sales-crm/internal/model"
)

// Recency windows use a 30-day month approximation rather than calendar
// months. The scoring only needs coarse buckets, and the approximation
// keeps classification deterministic across month lengths.
const month = 30 * 24 * time.Hour

// MatchSeverity classifies one match from its confidence and the matched
// record's most recent contact. High-confidence matches floor at MEDIUM
// even with no recent activity; anything under 0.80 confidence is LOW.
func MatchSeverity(confidence float64, lastContact *time.Time, now time.Time) string {
	within := func(n int) bool {
		return lastContact != nil && lastContact.After(now.Add(-time.Duration(n)*month))
	}
	switch {
	case confidence >= 0.95:
		if within(3) {
			return model.SeverityCritical
		}
		if within(6) {
			return model.SeverityHigh
		}
		return model.SeverityMedium
	case confidence >= 0.80:
		if within(3) {
			return model.SeverityHigh
		}
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// overallSeverity is the maximum severity across matches; LOW when the
// list is empty.
func overallSeverity(matches []Match) string {
	out := model.SeverityLow
	for _, m := range matches {
		if model.SeverityRank(m.Severity) > model.SeverityRank(out) {
			out = m.Severity
		}
	}
	return out
}

// primaryMatch picks the match that names the warning: highest severity,
// ties broken by highest confidence.
func primaryMatch(matches []Match) *Match {
	var best *Match
	for i := range matches {
		m := &matches[i]
		if best == nil ||
			model.SeverityRank(m.Severity) > model.SeverityRank(best.Severity) ||
			(model.SeverityRank(m.Severity) == model.SeverityRank(best.Severity) && m.Confidence > best.Confidence) {
			best = m
		}
	}
	return best
}

// matchTypePhrase maps the enum values to the wording used in warning
// messages.
var matchTypePhrase = map[string]string{
	model.MatchCompanyName:     "company name",
	model.MatchContactEmail:    "email address",
	model.MatchContactPhone:    "phone number",
	model.MatchContactName:     "contact name",
	model.MatchCompanyDomain:   "email domain",
	model.MatchLinkedInProfile: "LinkedIn profile",
}

// buildMessage produces the human-readable warning. Matches at HIGH or
// CRITICAL get a specific sentence naming the dimension, the last contact
// and the owning BDR; otherwise a generic count is returned. No message is
// produced for an empty match list.
func buildMessage(matches []Match, now time.Time) string {
	if len(matches) == 0 {
		return ""
	}
	p := primaryMatch(matches)
	if model.SeverityRank(p.Severity) >= model.SeverityRank(model.SeverityHigh) {
		owner := p.Record.Owner.Name
		if owner == "" {
			owner = "another BDR"
		}
		when := "with no recent activity"
		if p.Record.LastContactAt != nil {
			when = "last contacted " + relativeTime(*p.Record.LastContactAt, now)
		}
		return fmt.Sprintf("Potential duplicate: %s matches a record owned by %s, %s.",
			matchTypePhrase[p.MatchType], owner, when)
	}
	if len(matches) == 1 {
		return "1 potential duplicate found"
	}
	return fmt.Sprintf("%d potential duplicates found", len(matches))
}

// relativeTime renders "just now" / "N minutes|hours|days|months|years ago"
// with thresholds at one minute, hour, day, 30-day month and 365-day year.
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return plural(secs/60, "minute")
	case secs < 86400:
		return plural(secs/3600, "hour")
	case secs < 2592000:
		return plural(secs/86400, "day")
	case secs < 31536000:
		return plural(secs/2592000, "month")
	default:
		return plural(secs/31536000, "year")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
