package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldline/sales-crm/internal/dedupe"
	"github.com/fieldline/sales-crm/internal/model"
	"github.com/fieldline/sales-crm/internal/repository"
	"github.com/fieldline/sales-crm/internal/security"
)

// DedupeHandler exposes the duplicate engine directly: ad-hoc checks,
// warning decisions and the operator statistics views.
type DedupeHandler struct {
	Users     *repository.UserRepo
	Checker   *dedupe.Checker
	Lifecycle *dedupe.Lifecycle
	Audit     *dedupe.AuditLogger
	Trail     dedupe.AuditReader
}

func NewDedupeHandler(users *repository.UserRepo, checker *dedupe.Checker, lc *dedupe.Lifecycle, audit *dedupe.AuditLogger, trail dedupe.AuditReader) *DedupeHandler {
	return &DedupeHandler{Users: users, Checker: checker, Lifecycle: lc, Audit: audit, Trail: trail}
}

// requireOperator gates the operator views on the role hierarchy rather
// than a grant: TEAM_LEAD holds REPORTS:VIEW_TEAM for its own reports but
// the cross-team duplicate views start at MANAGER.
func (h *DedupeHandler) requireOperator(ctx context.Context, sc *security.Context) error {
	var err error
	if !security.RoleAtLeast(sc.Role, security.RoleManager) {
		err = security.ErrForbidden
	}
	auditAccess(ctx, h.Audit, sc.UserID, security.ResourceReports, security.ActionViewTeam, "", err)
	return err
}

// Check runs a duplicate check for the submitted contact without creating
// anything. A raised warning is persisted exactly as in the create flow so
// the returned warningId can be carried into a later create.
func (h *DedupeHandler) Check(c echo.Context) error {
	var in dedupe.CheckInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourceLeads, security.ActionCreate, "", err)
		return securityError(c, err)
	}
	if err := requireAccess(ctx, h.Audit, sc, security.ResourceLeads, security.ActionCreate, "", nil); err != nil {
		return securityError(c, err)
	}

	res := h.Checker.Check(ctx, in, sc.UserID, model.TriggerLeadCreate)
	return c.JSON(http.StatusOK, res)
}

type decisionReq struct {
	Decision string  `json:"decision"` // PROCEEDED | CANCELLED
	Reason   *string `json:"reason"`
}

// Decision records the user's choice against a warning.
func (h *DedupeHandler) Decision(c echo.Context) error {
	publicID := strings.TrimSpace(c.Param("id"))
	if publicID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid warning id"})
	}
	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, "WARNINGS", "DECIDE", publicID, err)
		return securityError(c, err)
	}
	auditAccess(ctx, h.Audit, sc.UserID, "WARNINGS", "DECIDE", publicID, nil)

	err = h.Lifecycle.RecordDecision(ctx, publicID, strings.ToUpper(strings.TrimSpace(req.Decision)), sc.UserID, req.Reason)
	switch err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case dedupe.ErrInvalidDecision:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be PROCEEDED or CANCELLED"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "warning not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record decision failed"})
	}
}

// Statistics aggregates warning outcomes, optionally bounded by
// from/to (RFC 3339) query parameters.
func (h *DedupeHandler) Statistics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourceReports, security.ActionViewTeam, "", err)
		return securityError(c, err)
	}
	if err := h.requireOperator(ctx, sc); err != nil {
		return securityError(c, err)
	}

	from, err := timeParam(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from"})
	}
	to, err := timeParam(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to"})
	}

	stats, err := h.Lifecycle.Statistics(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load statistics failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// Recent lists the newest warnings for the operator dashboard.
func (h *DedupeHandler) Recent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourceReports, security.ActionViewTeam, "", err)
		return securityError(c, err)
	}
	if err := h.requireOperator(ctx, sc); err != nil {
		return securityError(c, err)
	}

	limit := 20
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		limit = v
	}
	includeResolved := c.QueryParam("include_resolved") == "true"

	recent, err := h.Lifecycle.Recent(ctx, limit, includeResolved)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load recent warnings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"warnings": recent, "count": len(recent)})
}

// AuditTrail lists one user's recent duplicate audit entries, newest
// first. user_id defaults to the caller.
func (h *DedupeHandler) AuditTrail(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourceReports, security.ActionViewTeam, "", err)
		return securityError(c, err)
	}
	if err := h.requireOperator(ctx, sc); err != nil {
		return securityError(c, err)
	}

	userID := sc.UserID
	if v := strings.TrimSpace(c.QueryParam("user_id")); v != "" {
		userID, err = strconv.ParseUint(v, 10, 64)
		if err != nil || userID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, err := dedupe.RecentAuditByUser(ctx, h.Trail, userID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load audit trail failed"})
	}
	out := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, echo.Map{
			"id":              e.ID,
			"user_id":         e.UserID,
			"action":          e.Action,
			"warning_id":      e.WarningID,
			"entity_type":     e.EntityType,
			"entity_id":       e.EntityID,
			"decision_reason": e.DecisionReason,
			"actual_outcome":  e.ActualOutcome,
			"created_at":      e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out, "count": len(out)})
}

// timeParam parses an optional RFC 3339 query parameter.
func timeParam(c echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
