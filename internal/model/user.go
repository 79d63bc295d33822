package model

import "time"

// User represents an application user record as stored in the `users`
// table. Roles are plain strings matching the security package's role
// constants (BDR, TEAM_LEAD, MANAGER, DIRECTOR, ADMIN). TerritoryID is
// nullable because ADMIN and DIRECTOR accounts are not bound to a
// territory.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name used in warning messages.
//  Role         – role name (BDR, TEAM_LEAD, MANAGER, DIRECTOR, ADMIN).
//  TerritoryID  – territory the user belongs to (nullable).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	Role         string    // users.role
	TerritoryID  *uint64   // users.territory_id (nullable)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Territory is a row in the `territories` table. Managers are linked to
// the territories they run through the territory_managers join table.
type Territory struct {
	ID   uint64 // territories.id
	Name string // territories.name
}

// PermissionGrant is an explicit per-user permission row from the
// `user_permissions` table. Grants are strictly additive on top of the
// role's default permission table; they never revoke a role default.
type PermissionGrant struct {
	ID       uint64 // user_permissions.id
	UserID   uint64 // user_permissions.user_id
	Resource string // user_permissions.resource
	Action   string // user_permissions.action
}

// RefreshToken models an entry in the `refresh_tokens` table. The plain
// token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
