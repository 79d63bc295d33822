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

// LeadHandler serves lead CRUD with duplicate checking on create. A create
// that raises a warning is held back with 409 and the full check result;
// the client either cancels or retries carrying override_warning_id, which
// records a PROCEEDED decision before the lead is written.
type LeadHandler struct {
	Users     *repository.UserRepo
	Leads     *repository.LeadRepo
	Checker   *dedupe.Checker
	Lifecycle *dedupe.Lifecycle
	Audit     *dedupe.AuditLogger
}

func NewLeadHandler(users *repository.UserRepo, leads *repository.LeadRepo, checker *dedupe.Checker, lc *dedupe.Lifecycle, audit *dedupe.AuditLogger) *LeadHandler {
	return &LeadHandler{Users: users, Leads: leads, Checker: checker, Lifecycle: lc, Audit: audit}
}

type createLeadReq struct {
	FullName    string  `json:"full_name"`
	Company     *string `json:"company"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	LinkedInURL *string `json:"linkedin_url"`
	Title       *string `json:"title"`
	Status      string  `json:"status"`

	// Set when the client proceeds past a previously returned warning.
	OverrideWarningID string  `json:"override_warning_id"`
	ProceedReason     *string `json:"proceed_reason"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create checks the submitted lead for duplicates before inserting it.
func (h *LeadHandler) Create(c echo.Context) error {
	var req createLeadReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name required"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = "NEW"
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

	if req.OverrideWarningID == "" {
		res := h.Checker.Check(ctx, dedupe.CheckInput{
			Name:        req.FullName,
			Email:       deref(req.Email),
			Phone:       deref(req.Phone),
			Company:     deref(req.Company),
			LinkedInURL: deref(req.LinkedInURL),
			Title:       deref(req.Title),
		}, sc.UserID, model.TriggerLeadCreate)
		if res.HasWarning {
			return c.JSON(http.StatusConflict, echo.Map{"duplicate_check": res})
		}
	} else {
		err := h.Lifecycle.RecordDecision(ctx, req.OverrideWarningID, model.DecisionProceeded, sc.UserID, req.ProceedReason)
		switch err {
		case nil:
		case dedupe.ErrInvalidDecision:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid decision"})
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "warning not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record decision failed"})
		}
	}

	lead := model.Lead{
		BdrID:       sc.UserID,
		FullName:    req.FullName,
		Company:     req.Company,
		Email:       req.Email,
		Phone:       req.Phone,
		LinkedInURL: req.LinkedInURL,
		Title:       req.Title,
		Status:      status,
		IsActive:    true,
	}
	id, err := h.Leads.Create(ctx, &lead)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create lead failed"})
	}
	lead.ID = id
	return c.JSON(http.StatusCreated, leadResp(lead))
}

// List returns the leads visible to the caller under row-level scoping.
func (h *LeadHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourceLeads, security.ActionView, "", err)
		return securityError(c, err)
	}
	if err := requireAccess(ctx, h.Audit, sc, security.ResourceLeads, security.ActionView, "", nil); err != nil {
		return securityError(c, err)
	}

	limit, offset := pageParams(c)
	leads, err := h.Leads.List(ctx, sc, limit, offset)
	if err != nil {
		if err == security.ErrForbidden {
			return securityError(c, err)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list leads failed"})
	}

	out := make([]echo.Map, 0, len(leads))
	for _, l := range leads {
		out = append(out, leadResp(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"leads": out, "count": len(out)})
}

// Get fetches one lead after a row-level ownership check.
func (h *LeadHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourceLeads, security.ActionView, c.Param("id"), err)
		return securityError(c, err)
	}

	lead, err := h.Leads.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load lead failed"})
	}

	owner, err := h.Users.GetByID(ctx, lead.BdrID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load owner failed"})
	}
	if err := requireAccess(ctx, h.Audit, sc, security.ResourceLeads, security.ActionView, c.Param("id"),
		&security.RowOwner{OwnerID: lead.BdrID, TerritoryID: owner.TerritoryID}); err != nil {
		return securityError(c, err)
	}
	return c.JSON(http.StatusOK, leadResp(lead))
}

// Delete soft-deletes a lead the caller may delete.
func (h *LeadHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourceLeads, security.ActionDelete, c.Param("id"), err)
		return securityError(c, err)
	}

	lead, err := h.Leads.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load lead failed"})
	}
	owner, err := h.Users.GetByID(ctx, lead.BdrID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load owner failed"})
	}
	if err := requireAccess(ctx, h.Audit, sc, security.ResourceLeads, security.ActionDelete, c.Param("id"),
		&security.RowOwner{OwnerID: lead.BdrID, TerritoryID: owner.TerritoryID}); err != nil {
		return securityError(c, err)
	}

	if err := h.Leads.Deactivate(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete lead failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func leadResp(l model.Lead) echo.Map {
	return echo.Map{
		"id":           l.ID,
		"bdr_id":       l.BdrID,
		"full_name":    l.FullName,
		"company":      l.Company,
		"email":        l.Email,
		"phone":        l.Phone,
		"linkedin_url": l.LinkedInURL,
		"title":        l.Title,
		"status":       l.Status,
		"created_at":   l.CreatedAt,
		"updated_at":   l.UpdatedAt,
	}
}

// pageParams reads limit/offset query parameters with a cap that keeps a
// single page bounded.
func pageParams(c echo.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 200 {
		limit = 200
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
