package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/fieldline/sales-crm/internal/security"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles. The roles accepted
// correspond to the values stored in the JWT's "role" claim. If the user's
// role is not in the allowed set, the request is aborted with a 403
// Forbidden response. It assumes JWTAuth has extracted the role into the
// context under the key "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := c.Get("role")
			role, ok := v.(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireKnownRole rejects tokens carrying a role outside the defined
// hierarchy before any permission resolution runs.
func RequireKnownRole() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !security.KnownRole(role) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
