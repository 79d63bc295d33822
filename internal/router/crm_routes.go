package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fieldline/sales-crm/internal/handler"
	"github.com/fieldline/sales-crm/internal/middleware"
)

// RegisterCRM registers the lead, pipeline, duplicate and export endpoints
// under /v1. All routes require a valid JWT with a known role; fine-grained
// permissions are enforced inside the handlers against the store, not the
// token. rateLimit guards the write/check paths, cache fronts the
// statistics views; pass nil for either to skip it.
func RegisterCRM(e *echo.Echo, leads *handler.LeadHandler, pipeline *handler.PipelineHandler,
	dedupe *handler.DedupeHandler, export *handler.ExportHandler,
	jwtSecret string, rateLimit, cache echo.MiddlewareFunc) {

	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireKnownRole(),
	)

	writes := []echo.MiddlewareFunc{}
	if rateLimit != nil {
		writes = append(writes, rateLimit)
	}

	g.POST("/leads", leads.Create, writes...)
	g.GET("/leads", leads.List)
	g.GET("/leads/:id", leads.Get)
	g.DELETE("/leads/:id", leads.Delete)

	g.POST("/pipeline", pipeline.Create, writes...)
	g.GET("/pipeline", pipeline.List)
	g.PATCH("/pipeline/:id/stage", pipeline.UpdateStage)

	g.POST("/duplicates/check", dedupe.Check, writes...)
	g.POST("/duplicates/:id/decision", dedupe.Decision)

	stats := []echo.MiddlewareFunc{}
	if cache != nil {
		stats = append(stats, cache)
	}
	g.GET("/duplicates/statistics", dedupe.Statistics, stats...)
	g.GET("/duplicates/recent", dedupe.Recent, stats...)
	g.GET("/duplicates/audit", dedupe.AuditTrail)

	g.POST("/exports", export.Export, writes...)
}
