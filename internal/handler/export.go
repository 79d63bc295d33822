package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/fieldline/sales-crm/internal/dedupe"
	"github.com/fieldline/sales-crm/internal/model"
	"github.com/fieldline/sales-crm/internal/repository"
	"github.com/fieldline/sales-crm/internal/security"
)

// ExportHandler materializes exports of lead and pipeline data under the
// role-based export restriction table: field projection, sensitive-field
// stripping, record caps and format checks all come from
// security.CanExport. Every export attempt lands in the audit log.
type ExportHandler struct {
	Users    *repository.UserRepo
	Leads    *repository.LeadRepo
	Pipeline *repository.PipelineRepo
	Audit    *dedupe.AuditLogger
}

func NewExportHandler(users *repository.UserRepo, leads *repository.LeadRepo, pipeline *repository.PipelineRepo, audit *dedupe.AuditLogger) *ExportHandler {
	return &ExportHandler{Users: users, Leads: leads, Pipeline: pipeline, Audit: audit}
}

type exportReq struct {
	Resource string `json:"resource"`
	Format   string `json:"format"`
}

// Full column order per resource when a role may export every field.
var exportColumns = map[string][]string{
	security.ResourceLeads:    {"id", "full_name", "company", "email", "phone", "linkedin_url", "title", "status", "created_at"},
	security.ResourcePipeline: {"id", "contact_name", "company", "email", "phone", "stage", "status", "created_at"},
}

// Export runs a restricted export and streams the result in the requested
// format. The caller needs the RESOURCE:EXPORT permission and a green
// light from the restriction table.
func (h *ExportHandler) Export(c echo.Context) error {
	var req exportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	resource := strings.ToUpper(strings.TrimSpace(req.Resource))
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = "csv"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	sc, err := resolveSecurity(ctx, c, h.Users)
	if err != nil {
		auditAccess(ctx, h.Audit, 0, resource, security.ActionExport, format, err)
		return securityError(c, err)
	}
	if sc.Role != security.RoleAdmin && !sc.Can(resource, security.ActionExport) {
		auditAccess(ctx, h.Audit, sc.UserID, resource, security.ActionExport, format, security.ErrForbidden)
		return securityError(c, security.ErrForbidden)
	}

	dec := security.CanExport(sc, security.ExportRequest{Resource: resource, Format: format})
	h.auditExport(ctx, sc.UserID, resource, format, dec)
	if !dec.Allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": dec.Reason})
	}
	columns, ok := exportColumns[resource]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource has no export data source"})
	}

	rows, truncated, err := h.fetchRows(ctx, sc, resource, dec.Restrictions.MaxRecords)
	if err != nil {
		if err == security.ErrForbidden {
			return securityError(c, err)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load export data failed"})
	}

	fields := projectedFields(columns, *dec.Restrictions, sc.Role)
	projected := make([]map[string]string, len(rows))
	for i, r := range rows {
		out := make(map[string]string, len(fields))
		for _, f := range fields {
			out[f] = r[f]
		}
		projected[i] = out
	}

	meta := echo.Map{
		"resource":  resource,
		"format":    format,
		"fields":    fields,
		"count":     len(projected),
		"truncated": truncated,
	}

	switch format {
	case "json":
		return c.JSON(http.StatusOK, echo.Map{"metadata": meta, "records": projected})
	case "csv":
		body, err := renderCSV(fields, projected)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render csv failed"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%s.csv", strings.ToLower(resource)))
		return c.Blob(http.StatusOK, "text/csv", body)
	case "xlsx":
		body, err := renderXLSX(resource, fields, projected)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render xlsx failed"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%s.xlsx", strings.ToLower(resource)))
		return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", body)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported format"})
}

// fetchRows loads up to max rows of the resource under the caller's
// row-level scope. max <= 0 means unlimited; the fetch is still bounded to
// keep one response in memory.
func (h *ExportHandler) fetchRows(ctx context.Context, sc *security.Context, resource string, max int) ([]map[string]string, bool, error) {
	const hardCap = 50000
	limit := max
	if limit <= 0 || limit > hardCap {
		limit = hardCap
	}

	switch resource {
	case security.ResourceLeads:
		leads, err := h.Leads.List(ctx, sc, limit+1, 0)
		if err != nil {
			return nil, false, err
		}
		truncated := len(leads) > limit
		if truncated {
			leads = leads[:limit]
		}
		rows := make([]map[string]string, len(leads))
		for i, l := range leads {
			rows[i] = map[string]string{
				"id":           strconv.FormatUint(l.ID, 10),
				"full_name":    l.FullName,
				"company":      deref(l.Company),
				"email":        deref(l.Email),
				"phone":        deref(l.Phone),
				"linkedin_url": deref(l.LinkedInURL),
				"title":        deref(l.Title),
				"status":       l.Status,
				"created_at":   l.CreatedAt.UTC().Format(time.RFC3339),
			}
		}
		return rows, truncated, nil
	case security.ResourcePipeline:
		items, err := h.Pipeline.List(ctx, sc, limit+1, 0)
		if err != nil {
			return nil, false, err
		}
		truncated := len(items) > limit
		if truncated {
			items = items[:limit]
		}
		rows := make([]map[string]string, len(items))
		for i, p := range items {
			rows[i] = map[string]string{
				"id":           strconv.FormatUint(p.ID, 10),
				"contact_name": p.ContactName,
				"company":      deref(p.Company),
				"email":        deref(p.Email),
				"phone":        deref(p.Phone),
				"stage":        p.Stage,
				"status":       p.Status,
				"created_at":   p.CreatedAt.UTC().Format(time.RFC3339),
			}
		}
		return rows, truncated, nil
	}
	return nil, false, fmt.Errorf("no data source for resource %s", resource)
}

// projectedFields resolves the exported column list: the allowed fields in
// canonical column order, minus sensitive fields for everyone but ADMIN.
func projectedFields(columns []string, r security.ExportRestrictions, role string) []string {
	allowed := map[string]bool{}
	if !r.AllFields() {
		for _, f := range r.AllowedFields {
			allowed[f] = true
		}
	}
	sensitive := map[string]bool{}
	if role != security.RoleAdmin {
		for _, f := range r.SensitiveFields {
			sensitive[f] = true
		}
	}

	var out []string
	for _, col := range columns {
		if sensitive[col] {
			continue
		}
		if r.AllFields() || allowed[col] {
			out = append(out, col)
		}
	}
	return out
}

func renderCSV(fields []string, rows []map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, err
	}
	record := make([]string, len(fields))
	for _, row := range rows {
		for i, f := range fields {
			record[i] = row[f]
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderXLSX(sheet string, fields []string, rows []map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	f.SetSheetName(defaultSheet, sheet)

	header := make([]interface{}, len(fields))
	for i, name := range fields {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		values := make([]interface{}, len(fields))
		for j, field := range fields {
			values[j] = row[field]
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// auditExport records the attempt (allowed or denied) best-effort.
func (h *ExportHandler) auditExport(ctx context.Context, userID uint64, resource, format string, dec security.ExportDecision) {
	outcome := "denied: " + dec.Reason
	if dec.Allowed {
		outcome = "allowed"
	}
	h.Audit.Log(ctx, model.AuditLogEntry{
		UserID:        userID,
		Action:        "export_requested",
		EntityType:    "export",
		EntityID:      strings.ToLower(resource) + "." + format,
		ActualOutcome: outcome,
		CreatedAt:     time.Now().UTC(),
	})
}
