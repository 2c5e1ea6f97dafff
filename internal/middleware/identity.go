package middleware

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reading-list/internal/utils"
)

// Identity is the authenticated caller attached to a request by JWTAuth.
type Identity struct {
	UserID uint64
	Role   string
	Claims *utils.Claims
	Token  string // the raw bearer token
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// currentUserID returns the caller's id as a string, or "anon".
func currentUserID(c echo.Context) string {
	if id := IdentityFrom(c.Request().Context()); id != nil {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
