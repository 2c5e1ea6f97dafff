package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reading-list/internal/apperr"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// page is the envelope of list responses.
type page[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func newPage[T any](items []T, limit, offset int) page[T] {
	if items == nil {
		items = []T{}
	}
	return page[T]{Items: items, Limit: limit, Offset: offset, Count: len(items)}
}

// parsePage reads limit (1..200, default 50) and offset (>= 0).
func parsePage(c echo.Context) (limit, offset int, err error) {
	limit = defaultLimit
	if err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("offset", &offset).
		BindError(); err != nil {
		return 0, 0, apperr.ErrBadRequest.WithDetail("Malformed query parameter")
	}
	var fields []apperr.FieldError
	if limit < 1 || limit > maxLimit {
		fields = append(fields, apperr.FieldError{Field: "limit", Message: "must be between 1 and 200"})
	}
	if offset < 0 {
		fields = append(fields, apperr.FieldError{Field: "offset", Message: "must be greater than or equal to 0"})
	}
	if len(fields) > 0 {
		return 0, 0, apperr.Validation(fields...)
	}
	return limit, offset, nil
}
