package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldline/sales-crm/internal/dedupe"
	"github.com/fieldline/sales-crm/internal/model"
	"github.com/fieldline/sales-crm/internal/repository"
	"github.com/fieldline/sales-crm/internal/security"
)

// resolveSecurity rebuilds the caller's security context from the identity
// JWTAuth injected plus the store's current user row, explicit grants and
// (for managers) managed territories. It is rebuilt per request so role or
// grant changes take effect on the next call, not at next login.
//
// Store failures propagate: authorization fails closed when the user or
// grant rows cannot be read.
func resolveSecurity(ctx context.Context, c echo.Context, users *repository.UserRepo) (*security.Context, error) {
	uid, ok := c.Get("user_id").(uint64)
	if !ok || uid == 0 {
		return nil, security.ErrUnauthorized
	}

	u, err := users.GetByID(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, security.ErrUnauthorized
		}
		return nil, err
	}
	if !u.IsActive || !security.KnownRole(u.Role) {
		return nil, security.ErrUnauthorized
	}

	grants, err := users.Grants(ctx, uid)
	if err != nil {
		return nil, err
	}

	var managed []uint64
	if u.Role == security.RoleManager {
		managed, err = users.ManagedTerritories(ctx, uid)
		if err != nil {
			return nil, err
		}
	}
	return security.NewContext(u, grants, managed), nil
}

// auditAccess appends the outcome of one authorization check to the audit
// trail. Both branches are recorded; denied carries nil on success and the
// rejecting error otherwise. Writes are best-effort like every audit
// append.
func auditAccess(ctx context.Context, audit *dedupe.AuditLogger, userID uint64, resource, action, entityID string, denied error) {
	outcome := "allowed"
	if denied != nil {
		outcome = "denied: " + denied.Error()
	}
	audit.Log(ctx, model.AuditLogEntry{
		UserID:        userID,
		Action:        "access_" + strings.ToLower(action),
		EntityType:    strings.ToLower(resource),
		EntityID:      entityID,
		ActualOutcome: outcome,
		CreatedAt:     time.Now().UTC(),
	})
}

// requireAccess runs the permission and row-level check for one request and
// records the outcome on the audit trail regardless of which way it went.
func requireAccess(ctx context.Context, audit *dedupe.AuditLogger, sc *security.Context, resource, action, entityID string, row *security.RowOwner) error {
	var err error
	if !sc.CanAccess(resource, action, row) {
		err = security.ErrForbidden
	}
	auditAccess(ctx, audit, sc.UserID, resource, action, entityID, err)
	return err
}

// securityError maps an authorization error to its HTTP response. Unknown
// errors are reported as server faults.
func securityError(c echo.Context, err error) error {
	switch err {
	case security.ErrUnauthorized:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case security.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authorization failed"})
}
