package repository

import (
	"context"
	"database/sql"

	"github.com/fieldline/sales-crm/internal/dedupe"
)

// CandidateRepo feeds the duplicate matcher with the records it compares
// against: every active lead and pipeline item NOT owned by the checking
// user, each with its most recent activity inside the lookback window.
// It implements dedupe.CandidateSource.
type CandidateRepo struct{ DB *sql.DB }

func NewCandidateRepo(db *sql.DB) *CandidateRepo { return &CandidateRepo{DB: db} }

// Candidates scans leads and pipeline items in one UNION query. The
// excludeOwner predicate keeps a BDR's own records out of their duplicate
// checks; lookbackMonths bounds the activity sub-fetch using 30-day
// months, matching the matcher's severity windows.
func (r *CandidateRepo) Candidates(ctx context.Context, excludeOwner uint64, lookbackMonths int) ([]dedupe.RecordSnapshot, error) {
	lookbackDays := lookbackMonths * 30
	const q = `SELECT l.id, 'lead' AS source_type, l.full_name, l.company, l.email, l.phone, l.linkedin_url,
			o.id, o.full_name, o.role, l.status, l.is_active,
			(SELECT MAX(a.occurred_at) FROM activities a
				WHERE a.source_type = 'lead' AND a.source_id = l.id
				AND a.occurred_at > DATE_SUB(NOW(), INTERVAL ? DAY)) AS last_contact_at
		FROM leads l
		JOIN users o ON o.id = l.bdr_id
		WHERE l.bdr_id <> ? AND l.is_active = 1
		UNION ALL
		SELECT p.id, 'pipeline', p.contact_name, p.company, p.email, p.phone, NULL,
			o.id, o.full_name, o.role, p.status, p.is_active,
			(SELECT MAX(a.occurred_at) FROM activities a
				WHERE a.source_type = 'pipeline' AND a.source_id = p.id
				AND a.occurred_at > DATE_SUB(NOW(), INTERVAL ? DAY)) AS last_contact_at
		FROM pipeline_items p
		JOIN users o ON o.id = p.bdr_id
		WHERE p.bdr_id <> ? AND p.is_active = 1`

	rows, err := r.DB.QueryContext(ctx, q, lookbackDays, excludeOwner, lookbackDays, excludeOwner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dedupe.RecordSnapshot
	for rows.Next() {
		var (
			rec         dedupe.RecordSnapshot
			company     sql.NullString
			email       sql.NullString
			phone       sql.NullString
			linkedin    sql.NullString
			lastContact sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.SourceType, &rec.Name, &company, &email, &phone, &linkedin,
			&rec.Owner.ID, &rec.Owner.Name, &rec.Owner.Role, &rec.Status, &rec.IsActive, &lastContact); err != nil {
			return nil, err
		}
		if company.Valid {
			rec.Company = &company.String
		}
		if email.Valid {
			rec.Email = &email.String
		}
		if phone.Valid {
			rec.Phone = &phone.String
		}
		if linkedin.Valid {
			rec.LinkedInURL = &linkedin.String
		}
		if lastContact.Valid {
			t := lastContact.Time
			rec.LastContactAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
