package middleware

// identity.go defines helper functions shared across middleware files. The
// rate limiter keys on the authenticated user when one is present; requests
// without a resolved identity share the "anon" bucket per IP.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts the authenticated user id stored by JWTAuth as a
// string suitable for cache/rate-limit keys. It returns "anon" when no user
// is authenticated.
func currentUserID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		if id, ok := v.(uint64); ok && id > 0 {
			return strconv.FormatUint(id, 10)
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anon"
}
