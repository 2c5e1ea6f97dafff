package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reading-list/internal/apperr"
	"github.com/iliyamo/reading-list/internal/config"
	"github.com/iliyamo/reading-list/internal/model"
	"github.com/iliyamo/reading-list/internal/utils"
)

// TokenDecoder verifies a signed token. *utils.TokenCodec satisfies it.
type TokenDecoder interface {
	Decode(raw string) (*utils.Claims, error)
}

// Blacklist reports revoked jtis. *repository.RevokedRepo satisfies it.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth returns a global middleware guarding the configured path prefixes.
// A request under a protected prefix must carry a valid, unrevoked access
// token; its identity is then attached to the request context. Every other
// request passes untouched.
func JWTAuth(decoder TokenDecoder, blacklist Blacklist, cfg config.AuthGateConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodOptions || !protected(cfg, req.URL.Path) {
				return next(c)
			}

			header := req.Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return apperr.ErrMissingAuthorization
			}
			// "Bearer" with no separator is a malformed header, not an empty token.
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				return apperr.ErrInvalidScheme
			}
			raw = strings.TrimSpace(raw)
			if raw == "" {
				return apperr.ErrEmptyToken
			}

			claims, err := decoder.Decode(raw)
			if err != nil {
				return apperr.ErrInvalidAccessToken
			}
			if claims.Type != model.TokenTypeAccess {
				return apperr.ErrAccessTokenRequired
			}
			listed, err := blacklist.IsBlacklisted(req.Context(), claims.ID)
			if err != nil {
				return fmt.Errorf("blacklist lookup: %w", err)
			}
			if listed {
				return apperr.ErrTokenRevoked
			}
			uid, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil {
				return apperr.ErrInvalidSubject
			}

			role := claims.Role
			if role == "" {
				role = model.RoleUser
			}
			id := &Identity{UserID: uid, Role: role, Claims: claims, Token: raw}
			c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}

func protected(cfg config.AuthGateConfig, path string) bool {
	for _, p := range cfg.PublicPaths {
		if path == p {
			return false
		}
	}
	for _, p := range cfg.ProtectedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
