package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fieldline/sales-crm/internal/model"
	"github.com/fieldline/sales-crm/internal/security"
)

// PipelineRepo reads and writes the pipeline_items table with the same
// row-level scoping as LeadRepo.
type PipelineRepo struct{ DB *sql.DB }

func NewPipelineRepo(db *sql.DB) *PipelineRepo { return &PipelineRepo{DB: db} }

const pipelineColumns = "p.id, p.bdr_id, p.lead_id, p.contact_name, p.company, p.email, p.phone, p.stage, p.status, p.is_active, p.created_at, p.updated_at"

func scanPipelineItem(sc interface{ Scan(...any) error }) (model.PipelineItem, error) {
	var p model.PipelineItem
	var leadID sql.NullInt64
	var company, email, phone sql.NullString
	err := sc.Scan(&p.ID, &p.BdrID, &leadID, &p.ContactName, &company, &email,
		&phone, &p.Stage, &p.Status, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if leadID.Valid {
		id := uint64(leadID.Int64)
		p.LeadID = &id
	}
	if company.Valid {
		p.Company = &company.String
	}
	if email.Valid {
		p.Email = &email.String
	}
	if phone.Valid {
		p.Phone = &phone.String
	}
	return p, nil
}

// Create inserts a pipeline item and returns its ID.
func (r *PipelineRepo) Create(ctx context.Context, p *model.PipelineItem) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO pipeline_items (bdr_id, lead_id, contact_name, company, email, phone, stage, status)
		VALUES (?,?,?,?,?,?,?,?)`,
		p.BdrID, p.LeadID, p.ContactName, p.Company, p.Email, p.Phone, p.Stage, p.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one active pipeline item.
func (r *PipelineRepo) GetByID(ctx context.Context, id uint64) (model.PipelineItem, error) {
	return scanPipelineItem(r.DB.QueryRowContext(ctx,
		"SELECT "+pipelineColumns+" FROM pipeline_items p WHERE p.id=? AND p.is_active=1 LIMIT 1", id))
}

// List returns the active pipeline items the security context may see,
// newest first.
func (r *PipelineRepo) List(ctx context.Context, sc *security.Context, limit, offset int) ([]model.PipelineItem, error) {
	base := "SELECT " + pipelineColumns + " FROM pipeline_items p JOIN users o ON o.id = p.bdr_id WHERE p.is_active=1"
	q, args, err := security.BuildSecureQuery(base, nil, sc, security.ResourcePipeline)
	if err != nil {
		return nil, err
	}
	q += " ORDER BY p.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PipelineItem
	for rows.Next() {
		p, err := scanPipelineItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStage moves a pipeline item to a new stage.
func (r *PipelineRepo) UpdateStage(ctx context.Context, id uint64, stage string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE pipeline_items SET stage=? WHERE id=? AND is_active=1", stage, id)
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
