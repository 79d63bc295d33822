package repository

import (
	"context"
	"database/sql"

	"github.com/fieldline/sales-crm/internal/model"
)

// AuditRepo appends rows to the duplicate_audit_log table. The table is
// append-only: there are no update or delete paths. It implements
// dedupe.AuditSink.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Append inserts one audit entry.
func (r *AuditRepo) Append(ctx context.Context, entry model.AuditLogEntry) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO duplicate_audit_log
		(user_id, action, warning_id, entity_type, entity_id, decision_reason, system_suggestion, actual_outcome)
		VALUES (?,?,?,?,?,?,?,?)`,
		entry.UserID, entry.Action, entry.WarningID, entry.EntityType, entry.EntityID,
		entry.DecisionReason, entry.SystemSuggestion, entry.ActualOutcome)
	return err
}

// RecentByUser returns a user's newest audit entries, for the operator
// timeline view.
func (r *AuditRepo) RecentByUser(ctx context.Context, userID uint64, limit int) ([]model.AuditLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, action, warning_id, entity_type, entity_id, decision_reason, system_suggestion, actual_outcome, created_at
		FROM duplicate_audit_log WHERE user_id=? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditLogEntry
	for rows.Next() {
		var e model.AuditLogEntry
		var warningID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &warningID, &e.EntityType,
			&e.EntityID, &e.DecisionReason, &e.SystemSuggestion, &e.ActualOutcome, &e.CreatedAt); err != nil {
			return nil, err
		}
		if warningID.Valid {
			id := uint64(warningID.Int64)
			e.WarningID = &id
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
