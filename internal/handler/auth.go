package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reading-list/internal/apperr"
	"github.com/iliyamo/reading-list/internal/middleware"
	"github.com/iliyamo/reading-list/internal/model"
	"github.com/iliyamo/reading-list/internal/service"
)

// DeviceHeader lets clients name their device without a body field.
const DeviceHeader = "X-Device-Id"

// AuthHandler exposes the auth service over HTTP.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: svc}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	DeviceID string `json:"device_id" validate:"omitempty,max=128"`
}

type loginReq struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutReq struct {
	DeviceID     string `json:"device_id" validate:"required,max=128"`
	RefreshToken string `json:"refresh_token"`
}

type meResp struct {
	ID   uint64 `json:"id"`
	Role string `json:"role"`
}

type sessionResp struct {
	DeviceID  string    `json:"device_id"`
	UserAgent *string   `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// bindValid binds the request into dst and validates it.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.ErrBadRequest
	}
	return c.Validate(dst)
}

// deviceHeader reads X-Device-Id, bounded like the device_id body fields.
func deviceHeader(c echo.Context) (string, error) {
	device := strings.TrimSpace(c.Request().Header.Get(DeviceHeader))
	if utf8.RuneCountInString(device) > model.MaxDeviceIDLen {
		return "", apperr.Validation(apperr.FieldError{
			Field:   DeviceHeader,
			Message: fmt.Sprintf("must be no longer than %d characters", model.MaxDeviceIDLen),
		})
	}
	return device, nil
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	device := req.DeviceID
	if device == "" {
		var err error
		if device, err = deviceHeader(c); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		DeviceID:  device,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pair)
}

// Login: verify form credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	device, err := deviceHeader(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Login(ctx, service.LoginInput{
		Email:     req.Username,
		Password:  req.Password,
		DeviceID:  device,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh: rotate a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, service.RefreshInput{
		RefreshToken: strings.TrimSpace(req.RefreshToken),
		UserAgent:    c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Me returns the caller's id and role.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResp{ID: id.UserID, Role: id.Role})
}

// Logout revokes the device's refresh records and blacklists the presented
// tokens. Without an identity only the access token is blacklisted.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	in := service.LogoutInput{
		DeviceID:     req.DeviceID,
		RefreshToken: strings.TrimSpace(req.RefreshToken),
	}
	if id := middleware.IdentityFrom(c.Request().Context()); id != nil {
		in.AccessToken = id.Token
		in.UserID = id.UserID
		in.Authenticated = true
	} else if scheme, raw, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " "); ok && strings.EqualFold(scheme, "bearer") {
		in.AccessToken = strings.TrimSpace(raw)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, in); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Sessions lists the caller's live refresh sessions.
func (h *AuthHandler) Sessions(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recs, err := h.Auth.Sessions(ctx, id.UserID)
	if err != nil {
		return err
	}
	out := make([]sessionResp, 0, len(recs))
	for _, r := range recs {
		out = append(out, sessionResp{
			DeviceID:  r.DeviceID,
			UserAgent: r.UserAgent,
			CreatedAt: r.CreatedAt,
			ExpiresAt: r.ExpiresAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// identity returns the authenticated caller. Routes using it sit behind
// JWTAuth, so a missing identity means the gate was misconfigured.
func identity(c echo.Context) (*middleware.Identity, error) {
	id := middleware.IdentityFrom(c.Request().Context())
	if id == nil {
		return nil, apperr.ErrMissingAuthorization
	}
	return id, nil
}
