package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reading-list/internal/apperr"
)

// RequireRole admits callers whose identity holds one of roles. It must run
// behind JWTAuth; a request without an identity is forbidden as well.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFrom(c.Request().Context())
			if id == nil || !allowed[id.Role] {
				return apperr.ErrForbidden
			}
			return next(c)
		}
	}
}
