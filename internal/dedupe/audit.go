package dedupe

import (
	"context"
	"log"

	"github.com/fieldline/sales-crm/internal/model"
)

// AuditLogger wraps an AuditSink with best-effort semantics: a failed
// append is logged locally and swallowed, so audit writes can never fail
// the operation that produced them. A nil logger or sink is a no-op.
type AuditLogger struct {
	Sink AuditSink
}

// Log appends one entry, swallowing any error.
func (a *AuditLogger) Log(ctx context.Context, entry model.AuditLogEntry) {
	if a == nil || a.Sink == nil {
		return
	}
	if err := a.Sink.Append(ctx, entry); err != nil {
		log.Printf("dedupe: audit append failed (action=%s user=%d): %v", entry.Action, entry.UserID, err)
	}
}

// AuditReader lists previously appended audit entries, newest first.
type AuditReader interface {
	RecentByUser(ctx context.Context, userID uint64, limit int) ([]model.AuditLogEntry, error)
}

const (
	defaultAuditPage = 50
	maxAuditPage     = 200
)

// RecentAuditByUser returns one user's latest audit entries with the page
// size clamped, so the operator trail view stays bounded no matter what the
// caller asks for.
func RecentAuditByUser(ctx context.Context, r AuditReader, userID uint64, limit int) ([]model.AuditLogEntry, error) {
	if limit <= 0 {
		limit = defaultAuditPage
	}
	if limit > maxAuditPage {
		limit = maxAuditPage
	}
	return r.RecentByUser(ctx, userID, limit)
}
