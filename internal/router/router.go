// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing

	"github.com/fieldline/sales-crm/internal/handler"
	"github.com/fieldline/sales-crm/internal/middleware"
	"github.com/fieldline/sales-crm/internal/security"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes. Unauthenticated operations
// live under /v1/auth; protected session endpoints live under /v1. User
// provisioning is admin-only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh_token body without a JWT so an expired
	// session can still be terminated.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireKnownRole())
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)

	admin := e.Group("/v1/users",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(security.RoleAdmin),
	)
	admin.POST("", a.CreateUser)
}
