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

// PipelineHandler serves pipeline item endpoints with the same duplicate
// check and override flow as lead creation.
type PipelineHandler struct {
	Users     *repository.UserRepo
	Pipeline  *repository.PipelineRepo
	Checker   *dedupe.Checker
	Lifecycle *dedupe.Lifecycle
	Audit     *dedupe.AuditLogger
}

func NewPipelineHandler(users *repository.UserRepo, items *repository.PipelineRepo, checker *dedupe.Checker, lc *dedupe.Lifecycle, audit *dedupe.AuditLogger) *PipelineHandler {
	return &PipelineHandler{Users: users, Pipeline: items, Checker: checker, Lifecycle: lc, Audit: audit}
}

type createPipelineReq struct {
	LeadID      *uint64 `json:"lead_id"`
	ContactName string  `json:"contact_name"`
	Company     *string `json:"company"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Stage       string  `json:"stage"`
	Status      string  `json:"status"`

	OverrideWarningID string  `json:"override_warning_id"`
	ProceedReason     *string `json:"proceed_reason"`
}

// Create checks the submitted contact for duplicates before inserting the
// pipeline item.
func (h *PipelineHandler) Create(c echo.Context) error {
	var req createPipelineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ContactName = strings.TrimSpace(req.ContactName)
	if req.ContactName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contact_name required"})
	}
	stage := strings.ToUpper(strings.TrimSpace(req.Stage))
	if stage == "" {
		stage = "PROSPECTING"
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = "OPEN"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourcePipeline, security.ActionCreate, "", err)
		return securityError(c, err)
	}
	if err := requireAccess(ctx, h.Audit, sc, security.ResourcePipeline, security.ActionCreate, "", nil); err != nil {
		return securityError(c, err)
	}

	if req.OverrideWarningID == "" {
		res := h.Checker.Check(ctx, dedupe.CheckInput{
			Name:    req.ContactName,
			Email:   deref(req.Email),
			Phone:   deref(req.Phone),
			Company: deref(req.Company),
		}, sc.UserID, model.TriggerPipelineCreate)
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

	item := model.PipelineItem{
		BdrID:       sc.UserID,
		LeadID:      req.LeadID,
		ContactName: req.ContactName,
		Company:     req.Company,
		Email:       req.Email,
		Phone:       req.Phone,
		Stage:       stage,
		Status:      status,
		IsActive:    true,
	}
	id, err := h.Pipeline.Create(ctx, &item)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create pipeline item failed"})
	}
	item.ID = id
	return c.JSON(http.StatusCreated, pipelineResp(item))
}

// List returns the pipeline items visible to the caller.
func (h *PipelineHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourcePipeline, security.ActionView, "", err)
		return securityError(c, err)
	}
	if err := requireAccess(ctx, h.Audit, sc, security.ResourcePipeline, security.ActionView, "", nil); err != nil {
		return securityError(c, err)
	}

	limit, offset := pageParams(c)
	items, err := h.Pipeline.List(ctx, sc, limit, offset)
	if err != nil {
		if err == security.ErrForbidden {
			return securityError(c, err)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list pipeline failed"})
	}

	out := make([]echo.Map, 0, len(items))
	for _, it := range items {
		out = append(out, pipelineResp(it))
	}
	return c.JSON(http.StatusOK, echo.Map{"pipeline": out, "count": len(out)})
}

type updateStageReq struct {
	Stage string `json:"stage"`
}

// UpdateStage moves an item through the pipeline after a row-level check.
func (h *PipelineHandler) UpdateStage(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateStageReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Stage) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stage required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, security.ResourcePipeline, security.ActionUpdate, c.Param("id"), err)
		return securityError(c, err)
	}

	item, err := h.Pipeline.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pipeline item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load pipeline item failed"})
	}
	owner, err := h.Users.GetByID(ctx, item.BdrID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load owner failed"})
	}
	if err := requireAccess(ctx, h.Audit, sc, security.ResourcePipeline, security.ActionUpdate, c.Param("id"),
		&security.RowOwner{OwnerID: item.BdrID, TerritoryID: owner.TerritoryID}); err != nil {
		return securityError(c, err)
	}

	if err := h.Pipeline.UpdateStage(ctx, id, strings.ToUpper(strings.TrimSpace(req.Stage))); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pipeline item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update stage failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func pipelineResp(p model.PipelineItem) echo.Map {
	return echo.Map{
		"id":           p.ID,
		"bdr_id":       p.BdrID,
		"lead_id":      p.LeadID,
		"contact_name": p.ContactName,
		"company":      p.Company,
		"email":        p.Email,
		"phone":        p.Phone,
		"stage":        p.Stage,
		"status":       p.Status,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
}
