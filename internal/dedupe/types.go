// Package dedupe implements duplicate detection for leads and pipeline
// items: per-field fuzzy matching against other BDRs' records, severity
// scoring weighted by contact recency, and the persisted warning lifecycle
// with its audit trail. It talks to storage through the narrow interfaces
// declared here so the matching logic stays testable without a database.
package dedupe

import (
	"context"
	"time"

	"github.com/fieldline/sales-crm/internal/model"
)

// CheckInput is the candidate record submitted for duplicate checking.
// Every field is optional; only the fields present are compared. The input
// is transient and only persisted as the trigger_data snapshot of a
// warning.
type CheckInput struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Company     string `json:"company,omitempty"`
	LinkedInURL string `json:"linkedinUrl,omitempty"`
	Title       string `json:"title,omitempty"`
}

// Empty reports whether no comparable field is present.
func (in CheckInput) Empty() bool {
	return in.Name == "" && in.Email == "" && in.Phone == "" &&
		in.Company == "" && in.LinkedInURL == ""
}

// Owner identifies the BDR owning a matched record.
type Owner struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// RecordSnapshot is the view of an existing lead or pipeline item the
// matcher compares against, including the most recent activity inside the
// scan's lookback window.
type RecordSnapshot struct {
	ID            uint64     `json:"id"`
	SourceType    string     `json:"sourceType"` // "lead" | "pipeline"
	Name          string     `json:"name"`
	Company       *string    `json:"company,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	LinkedInURL   *string    `json:"linkedinUrl,omitempty"`
	Owner         Owner      `json:"owner"`
	LastContactAt *time.Time `json:"lastContactDate,omitempty"`
	Status        string     `json:"status"`
	IsActive      bool       `json:"isActive"`
}

// Match is one potential duplicate produced by a check. Matches are
// ephemeral; they are only persisted as rows attached to a warning.
type Match struct {
	ID           string            `json:"id"` // "<sourceType>-<dimension>-<recordId>"
	MatchType    string            `json:"matchType"`
	Confidence   float64           `json:"confidence"`
	MatchDetails map[string]string `json:"matchDetails"`
	Record       RecordSnapshot    `json:"existingRecord"`
	Severity     string            `json:"severity"`
}

// Result is the outcome of one duplicate check, shaped for direct JSON
// serialization to callers.
type Result struct {
	HasWarning bool    `json:"hasWarning"`
	Severity   string  `json:"severity"`
	Matches    []Match `json:"matches"`
	WarningID  *string `json:"warningId,omitempty"` // public UUID of the persisted warning
	Message    string  `json:"message,omitempty"`
}

// Statistics aggregates warnings for operator dashboards.
type Statistics struct {
	TotalWarnings int64            `json:"totalWarnings"`
	Proceeded     int64            `json:"proceeded"`
	Cancelled     int64            `json:"cancelled"`
	ProceedRate   float64          `json:"proceedRate"` // percentage of decided warnings that proceeded
	BySeverity    map[string]int64 `json:"bySeverity"`
}

// WarningSummary is one row of the recent-warnings operator view: the
// warning plus the triggering user and the owners involved in its matches.
type WarningSummary struct {
	Warning       model.DuplicateWarning `json:"warning"`
	TriggeredName string                 `json:"triggeredByName"`
	MatchOwners   []string               `json:"matchOwners"`
	MatchCount    int                    `json:"matchCount"`
}

// CandidateSource supplies the records a check compares against. The
// excludeOwner predicate is how self-duplicates stay out of scope: a BDR's
// own records are never candidates. lookbackMonths bounds the attached
// most-recent-activity lookup (30-day months).
type CandidateSource interface {
	Candidates(ctx context.Context, excludeOwner uint64, lookbackMonths int) ([]RecordSnapshot, error)
}

// WarningStore persists warnings and their match rows. CreateWithMatches
// must be atomic: a warning row never exists without its matches.
type WarningStore interface {
	CreateWithMatches(ctx context.Context, w *model.DuplicateWarning, matches []model.DuplicateWarningMatch) error
	GetByPublicID(ctx context.Context, publicID string) (model.DuplicateWarning, error)
	RecordDecision(ctx context.Context, id uint64, decision string, reason *string, at time.Time) error
	Statistics(ctx context.Context, from, to *time.Time) (Statistics, error)
	Recent(ctx context.Context, limit int, includeResolved bool) ([]WarningSummary, error)
}

// AuditSink appends one audit entry. Implementations may fail; AuditLogger
// guarantees callers never see the failure.
type AuditSink interface {
	Append(ctx context.Context, entry model.AuditLogEntry) error
}

// EventSink receives fire-and-forget notifications when a warning is
// raised. Implementations must not block the check path; errors are theirs
// to log.
type EventSink interface {
	WarningRaised(ctx context.Context, w model.DuplicateWarning, matchCount int)
}
