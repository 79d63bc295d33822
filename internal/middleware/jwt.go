package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's identity claims into the request context. The
// provided secret must match the one used when issuing tokens. Handlers
// behind this middleware read the identity via c.Get("user_id") (uint64),
// c.Get("role") (string) and c.Get("territory_id") (*uint64, nil when the
// user has no territory).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// JSON numbers arrive as float64; normalize to the types
			// handlers expect.
			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			role, _ := claims["role"].(string)

			c.Set("user_id", uint64(sub))
			c.Set("role", role)
			var territory *uint64
			if t, ok := claims["territory_id"].(float64); ok {
				id := uint64(t)
				territory = &id
			}
			c.Set("territory_id", territory)
			return next(c)
		}
	}
}
