package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fieldline/sales-crm/internal/dedupe"
	"github.com/fieldline/sales-crm/internal/model"
)

// WarningRepo persists duplicate warnings and their match rows. It
// implements dedupe.WarningStore. A warning and its matches are written in
// one transaction so a warning row never exists without its matches.
type WarningRepo struct{ DB *sql.DB }

func NewWarningRepo(db *sql.DB) *WarningRepo { return &WarningRepo{DB: db} }

const warningColumns = "id, public_id, triggered_by, trigger_action, warning_type, severity, trigger_data, user_decision, decision_made, decision_at, proceed_reason, created_at"

func scanWarning(row *sql.Row) (model.DuplicateWarning, error) {
	var w model.DuplicateWarning
	var decision, reason sql.NullString
	var decidedAt sql.NullTime
	err := row.Scan(&w.ID, &w.PublicID, &w.TriggeredBy, &w.TriggerAction,
		&w.WarningType, &w.Severity, &w.TriggerData, &decision, &w.DecisionMade,
		&decidedAt, &reason, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return w, ErrNotFound
	}
	if err != nil {
		return w, err
	}
	if decision.Valid {
		w.UserDecision = &decision.String
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		w.DecisionAt = &t
	}
	if reason.Valid {
		w.ProceedReason = &reason.String
	}
	return w, nil
}

// CreateWithMatches inserts the warning and all its match rows in a single
// transaction, populating w.ID on success.
func (r *WarningRepo) CreateWithMatches(ctx context.Context, w *model.DuplicateWarning, matches []model.DuplicateWarningMatch) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO duplicate_warnings (public_id, triggered_by, trigger_action, warning_type, severity, trigger_data)
		VALUES (?,?,?,?,?,?)`,
		w.PublicID, w.TriggeredBy, w.TriggerAction, w.WarningType, w.Severity, w.TriggerData)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)

	if len(matches) > 0 {
		query := `INSERT INTO duplicate_warning_matches
			(warning_id, match_key, match_type, confidence, severity, source_type, record_id, record_name,
			record_company, record_email, record_phone, owner_id, owner_name, owner_role,
			last_contact_at, record_status, record_active, details) VALUES `
		args := make([]any, 0, len(matches)*18)
		for i, m := range matches {
			if i > 0 {
				query += ","
			}
			query += "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)"
			args = append(args, w.ID, m.MatchKey, m.MatchType, m.Confidence, m.Severity,
				m.SourceType, m.RecordID, m.RecordName, m.RecordCompany, m.RecordEmail,
				m.RecordPhone, m.OwnerID, m.OwnerName, m.OwnerRole, m.LastContactAt,
				m.RecordStatus, m.RecordActive, m.Details)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByPublicID fetches a warning by its external UUID.
func (r *WarningRepo) GetByPublicID(ctx context.Context, publicID string) (model.DuplicateWarning, error) {
	return scanWarning(r.DB.QueryRowContext(ctx,
		"SELECT "+warningColumns+" FROM duplicate_warnings WHERE public_id=? LIMIT 1", publicID))
}

// RecordDecision marks the warning decided. Decisions may be re-recorded;
// the latest write wins. Warnings themselves are never deleted.
func (r *WarningRepo) RecordDecision(ctx context.Context, id uint64, decision string, reason *string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE duplicate_warnings SET user_decision=?, decision_made=1, decision_at=?, proceed_reason=? WHERE id=?`,
		decision, at, reason, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Statistics aggregates warning counts, decision outcomes and a severity
// histogram, optionally bounded to a created_at range.
func (r *WarningRepo) Statistics(ctx context.Context, from, to *time.Time) (dedupe.Statistics, error) {
	stats := dedupe.Statistics{BySeverity: map[string]int64{}}

	where := ""
	args := []any{}
	if from != nil {
		where += " AND created_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		where += " AND created_at <= ?"
		args = append(args, *to)
	}

	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(user_decision = 'PROCEEDED'), 0),
			COALESCE(SUM(user_decision = 'CANCELLED'), 0)
		FROM duplicate_warnings WHERE 1=1`+where, args...).
		Scan(&stats.TotalWarnings, &stats.Proceeded, &stats.Cancelled)
	if err != nil {
		return stats, err
	}
	if decided := stats.Proceeded + stats.Cancelled; decided > 0 {
		stats.ProceedRate = float64(stats.Proceeded) / float64(decided) * 100
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT severity, COUNT(*) FROM duplicate_warnings WHERE 1=1"+where+" GROUP BY severity", args...)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var severity string
		var count int64
		if err := rows.Scan(&severity, &count); err != nil {
			return stats, err
		}
		stats.BySeverity[severity] = count
	}
	return stats, rows.Err()
}

// Recent lists the newest warnings with the triggering user's name and the
// distinct owners of the matched records. includeResolved=false keeps only
// undecided warnings.
func (r *WarningRepo) Recent(ctx context.Context, limit int, includeResolved bool) ([]dedupe.WarningSummary, error) {
	q := `SELECT w.id, w.public_id, w.triggered_by, w.trigger_action, w.warning_type, w.severity,
			w.trigger_data, w.user_decision, w.decision_made, w.decision_at, w.proceed_reason, w.created_at,
			u.full_name
		FROM duplicate_warnings w
		JOIN users u ON u.id = w.triggered_by`
	if !includeResolved {
		q += " WHERE w.decision_made = 0"
	}
	q += " ORDER BY w.created_at DESC LIMIT ?"

	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dedupe.WarningSummary
	for rows.Next() {
		var s dedupe.WarningSummary
		var decision, reason sql.NullString
		var decidedAt sql.NullTime
		w := &s.Warning
		if err := rows.Scan(&w.ID, &w.PublicID, &w.TriggeredBy, &w.TriggerAction,
			&w.WarningType, &w.Severity, &w.TriggerData, &decision, &w.DecisionMade,
			&decidedAt, &reason, &w.CreatedAt, &s.TriggeredName); err != nil {
			return nil, err
		}
		if decision.Valid {
			w.UserDecision = &decision.String
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			w.DecisionAt = &t
		}
		if reason.Valid {
			w.ProceedReason = &reason.String
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		owners, count, err := r.matchOwners(ctx, out[i].Warning.ID)
		if err != nil {
			return nil, err
		}
		out[i].MatchOwners = owners
		out[i].MatchCount = count
	}
	return out, nil
}

func (r *WarningRepo) matchOwners(ctx context.Context, warningID uint64) ([]string, int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT owner_name, COUNT(*) FROM duplicate_warning_matches WHERE warning_id=? GROUP BY owner_name", warningID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var owners []string
	total := 0
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, 0, err
		}
		owners = append(owners, name)
		total += n
	}
	return owners, total, rows.Err()
}
