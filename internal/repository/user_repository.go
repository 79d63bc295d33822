package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fieldline/sales-crm/internal/model"
	"github.com/fieldline/sales-crm/internal/utils"
)

// UserRepo reads and writes the users table plus the permission and
// territory lookups a security context resolution needs.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, password_hash, full_name, role, territory_id, is_active, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var territory sql.NullInt64
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
		&territory, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if territory.Valid {
		t := uint64(territory.Int64)
		u.TerritoryID = &t
	}
	return u, nil
}

// Create provisions a user and returns its ID. Emails are normalized to
// lowercase before insert; a duplicate email surfaces as ErrConflict.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName, role string, territoryID *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, role, territory_id) VALUES (?,?,?,?,?)",
		email, hash, fullName, role, territoryID)
	if err != nil {
		// 1062 = MySQL duplicate key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// Grants returns the user's explicit permission rows. Errors propagate:
// authorization must fail closed when the store is unavailable.
func (r *UserRepo) Grants(ctx context.Context, userID uint64) ([]model.PermissionGrant, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, resource, action FROM user_permissions WHERE user_id=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PermissionGrant
	for rows.Next() {
		var g model.PermissionGrant
		if err := rows.Scan(&g.ID, &g.UserID, &g.Resource, &g.Action); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ManagedTerritories returns the ids of territories the user manages.
func (r *UserRepo) ManagedTerritories(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT territory_id FROM territory_managers WHERE user_id=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
