package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldline/sales-crm/internal/model"
)

// ErrInvalidDecision is returned when a decision value is outside the
// PROCEEDED/CANCELLED enum. Handlers translate it into HTTP 400 before any
// store access happens.
var ErrInvalidDecision = errors.New("invalid decision")

// Lifecycle records user decisions on persisted warnings and serves the
// operator aggregate views. Warnings are never deleted; recording a
// decision twice overwrites it (last write wins).
type Lifecycle struct {
	Warnings WarningStore
	Audit    *AuditLogger

	now func() time.Time
}

// NewLifecycle wires a Lifecycle.
func NewLifecycle(warnings WarningStore, audit *AuditLogger) *Lifecycle {
	return &Lifecycle{
		Warnings: warnings,
		Audit:    audit,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RecordDecision marks a warning as decided: decisionMade, decisionAt and
// userDecision are set together, keeping the warning's invariant. The
// matching audit entry ("proceeded_anyway" or "cancelled") is appended
// best-effort after the update.
func (l *Lifecycle) RecordDecision(ctx context.Context, publicID, decision string, userID uint64, reason *string) error {
	if decision != model.DecisionProceeded && decision != model.DecisionCancelled {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	w, err := l.Warnings.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}
	at := l.now()
	if err := l.Warnings.RecordDecision(ctx, w.ID, decision, reason, at); err != nil {
		return err
	}

	action := AuditCancelled
	if decision == model.DecisionProceeded {
		action = AuditProceeded
	}
	entry := model.AuditLogEntry{
		UserID:           userID,
		Action:           action,
		WarningID:        &w.ID,
		EntityType:       "duplicate_warning",
		EntityID:         w.PublicID,
		SystemSuggestion: w.Severity,
		ActualOutcome:    decision,
		CreatedAt:        at,
	}
	if reason != nil {
		entry.DecisionReason = *reason
	}
	l.Audit.Log(ctx, entry)
	return nil
}

// Statistics returns warning counts, decision counts, the proceed rate and
// a severity histogram, scoped to created_at within the optional range.
func (l *Lifecycle) Statistics(ctx context.Context, from, to *time.Time) (Statistics, error) {
	return l.Warnings.Statistics(ctx, from, to)
}

// Recent returns the most recent warnings with triggering user and match
// owners attached. With includeResolved false, decided warnings are
// filtered out.
func (l *Lifecycle) Recent(ctx context.Context, limit int, includeResolved bool) ([]WarningSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return l.Warnings.Recent(ctx, limit, includeResolved)
}
