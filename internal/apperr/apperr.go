// Package apperr defines the errors surfaced to API callers. Each carries an
// HTTP status and a stable machine-readable code; handlers render them as
// RFC 7807 problem documents.
package apperr

import (
	"fmt"
	"net/http"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a caller-visible failure. Two errors match under errors.Is when
// their codes are equal, so a copy with a different detail still matches its
// sentinel.
type Error struct {
	Status int
	Code   string
	Detail string
	Fields []FieldError
}

func New(status int, code, detail string) *Error {
	return &Error{Status: status, Code: code, Detail: detail}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDetail returns a copy of e carrying a different detail message.
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// Auth service failures.
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	ErrEmailTaken         = New(http.StatusConflict, "email_taken", "Email already registered")
	ErrInvalidToken       = New(http.StatusUnauthorized, "invalid_token", "Invalid refresh token")
	ErrWrongTokenType     = New(http.StatusBadRequest, "wrong_token_type", "Not a refresh token")
	ErrRefreshRevoked     = New(http.StatusUnauthorized, "refresh_revoked", "Refresh token revoked")
	ErrUserInactive       = New(http.StatusUnauthorized, "user_inactive", "User inactive or not found")
)

// Middleware rejections. All are 401 Unauthorized with a distinct reason.
var (
	ErrMissingAuthorization = New(http.StatusUnauthorized, "missing_authorization", "Missing Authorization header")
	ErrInvalidScheme        = New(http.StatusUnauthorized, "invalid_scheme", "Invalid Authorization scheme")
	ErrEmptyToken           = New(http.StatusUnauthorized, "empty_token", "Empty bearer token")
	ErrInvalidAccessToken   = New(http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
	ErrAccessTokenRequired  = New(http.StatusUnauthorized, "access_token_required", "Access token required")
	ErrTokenRevoked         = New(http.StatusUnauthorized, "token_revoked", "Token revoked")
	ErrInvalidSubject       = New(http.StatusUnauthorized, "invalid_subject", "Invalid token subject")
)

var (
	ErrBadRequest  = New(http.StatusBadRequest, "bad_request", "Malformed request body")
	ErrForbidden   = New(http.StatusForbidden, "forbidden", "Forbidden")
	ErrNotFound    = New(http.StatusNotFound, "not_found", "Not found")
	ErrRateLimited = New(http.StatusTooManyRequests, "too_many_requests", "Rate limit exceeded")
	ErrInternal    = New(http.StatusInternalServerError, "internal_error", "Internal Server Error")
)

// Validation builds a 422 error listing the failed fields.
func Validation(fields ...FieldError) *Error {
	return &Error{
		Status: http.StatusUnprocessableEntity,
		Code:   "validation_failed",
		Detail: "Validation failed",
		Fields: fields,
	}
}
