package security

import (
	"errors"

	"github.com/fieldline/sales-crm/internal/model"
)

// ErrUnauthorized means no identity could be resolved for the request.
// Handlers translate it into HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden means the identity is resolved but the permission or
// row-level check failed. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// Context is the effective permission set of one request. It is rebuilt on
// every authorization check from the session identity plus the store's
// explicit grants; it is never cached across requests.
//
// Fields:
//  UserID              – the authenticated user.
//  Role                – role name (see roles.go).
//  TerritoryID         – the user's own territory (nullable).
//  ManagedTerritoryIDs – territories run by this user; populated for MANAGER only.
//  Permissions         – resolved "RESOURCE:ACTION" set (role defaults ∪ grants).
type Context struct {
	UserID              uint64
	Role                string
	TerritoryID         *uint64
	ManagedTerritoryIDs []uint64
	Permissions         map[string]bool
}

// NewContext resolves a security context from a user record, their explicit
// permission grants and (for managers) the territories they manage. The
// static role table is always unioned in, so baseline access survives
// missing or stale permission rows in the store.
func NewContext(u model.User, grants []model.PermissionGrant, managed []uint64) *Context {
	sc := &Context{
		UserID:      u.ID,
		Role:        u.Role,
		TerritoryID: u.TerritoryID,
		Permissions: EffectivePermissions(u.Role, grants),
	}
	if u.Role == RoleManager {
		sc.ManagedTerritoryIDs = managed
	}
	return sc
}

// Can reports whether the context holds the RESOURCE:ACTION permission.
func (sc *Context) Can(resource, action string) bool {
	return sc.Permissions[PermKey(resource, action)]
}

// ManagesTerritory reports whether id is in the managed-territory set.
func (sc *Context) ManagesTerritory(id uint64) bool {
	for _, t := range sc.ManagedTerritoryIDs {
		if t == id {
			return true
		}
	}
	return false
}

// RowOwner carries the ownership attributes of a single record for
// row-level checks: who owns it and which territory that owner sits in.
type RowOwner struct {
	OwnerID     uint64
	TerritoryID *uint64
}

// CanAccess runs the two-step authorization check: first the flat
// RESOURCE:ACTION permission, then the role's row-level rule against the
// record when one is provided. MESSAGES is granted at the permission level
// only; conversation membership is enforced by the endpoint, not here.
func (sc *Context) CanAccess(resource, action string, row *RowOwner) bool {
	if !sc.Can(resource, action) {
		return false
	}
	if sc.Role == RoleAdmin || sc.Role == RoleDirector {
		return true
	}
	if row == nil || resource == ResourceMessages {
		return true
	}
	switch sc.Role {
	case RoleBDR:
		return row.OwnerID == sc.UserID
	case RoleTeamLead:
		if row.OwnerID == sc.UserID {
			return true
		}
		return sc.TerritoryID != nil && row.TerritoryID != nil && *sc.TerritoryID == *row.TerritoryID
	case RoleManager:
		if row.OwnerID == sc.UserID {
			return true
		}
		return row.TerritoryID != nil && sc.ManagesTerritory(*row.TerritoryID)
	}
	return false
}

// CanViewUserData decides whether the context's user may see data belonging
// to another user. Everyone sees themselves; ADMIN and DIRECTOR see
// everyone; MANAGER sees users in territories they manage; MANAGER and
// TEAM_LEAD see users sharing their own territory.
func (sc *Context) CanViewUserData(targetID uint64, targetTerritoryID *uint64) bool {
	if sc.UserID == targetID {
		return true
	}
	switch sc.Role {
	case RoleAdmin, RoleDirector:
		return true
	case RoleManager:
		if targetTerritoryID != nil && sc.ManagesTerritory(*targetTerritoryID) {
			return true
		}
	}
	if sc.Role == RoleManager || sc.Role == RoleTeamLead {
		return sc.TerritoryID != nil && targetTerritoryID != nil && *sc.TerritoryID == *targetTerritoryID
	}
	return false
}
