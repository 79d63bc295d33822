package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fieldline/sales-crm/internal/model"
	"github.com/fieldline/sales-crm/internal/security"
)

// LeadRepo reads and writes the leads table. Listing goes through
// security.BuildSecureQuery so row-level scoping is applied in SQL rather
// than post-filtered in memory.
type LeadRepo struct{ DB *sql.DB }

func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{DB: db} }

const leadColumns = "l.id, l.bdr_id, l.full_name, l.company, l.email, l.phone, l.linkedin_url, l.title, l.status, l.is_active, l.created_at, l.updated_at"

func scanLead(sc interface{ Scan(...any) error }) (model.Lead, error) {
	var l model.Lead
	var company, email, phone, linkedin, title sql.NullString
	err := sc.Scan(&l.ID, &l.BdrID, &l.FullName, &company, &email, &phone,
		&linkedin, &title, &l.Status, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	if err != nil {
		return l, err
	}
	if company.Valid {
		l.Company = &company.String
	}
	if email.Valid {
		l.Email = &email.String
	}
	if phone.Valid {
		l.Phone = &phone.String
	}
	if linkedin.Valid {
		l.LinkedInURL = &linkedin.String
	}
	if title.Valid {
		l.Title = &title.String
	}
	return l, nil
}

// Create inserts a lead and returns its ID.
func (r *LeadRepo) Create(ctx context.Context, l *model.Lead) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO leads (bdr_id, full_name, company, email, phone, linkedin_url, title, status)
		VALUES (?,?,?,?,?,?,?,?)`,
		l.BdrID, l.FullName, l.Company, l.Email, l.Phone, l.LinkedInURL, l.Title, l.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one active lead.
func (r *LeadRepo) GetByID(ctx context.Context, id uint64) (model.Lead, error) {
	return scanLead(r.DB.QueryRowContext(ctx,
		"SELECT "+leadColumns+" FROM leads l WHERE l.id=? AND l.is_active=1 LIMIT 1", id))
}

// List returns the active leads the security context may see, newest first.
func (r *LeadRepo) List(ctx context.Context, sc *security.Context, limit, offset int) ([]model.Lead, error) {
	base := "SELECT " + leadColumns + " FROM leads l JOIN users o ON o.id = l.bdr_id WHERE l.is_active=1"
	q, args, err := security.BuildSecureQuery(base, nil, sc, security.ResourceLeads)
	if err != nil {
		return nil, err
	}
	q += " ORDER BY l.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Deactivate soft-deletes a lead. ErrNotFound when nothing was active to
// deactivate.
func (r *LeadRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE leads SET is_active=0 WHERE id=? AND is_active=1", id)
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
