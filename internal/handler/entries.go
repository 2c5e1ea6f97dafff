package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reading-list/internal/apperr"
	"github.com/iliyamo/reading-list/internal/model"
	"github.com/iliyamo/reading-list/internal/repository"
)

var errEntryNotFound = apperr.ErrNotFound.WithDetail("Entry not found")

// EntryHandler serves the reading-list entries. Callers see their own
// entries; admins see everyone's.
type EntryHandler struct {
	Entries *repository.EntryRepo
}

func NewEntryHandler(entries *repository.EntryRepo) *EntryHandler {
	return &EntryHandler{Entries: entries}
}

type createEntryReq struct {
	Title  string  `json:"title" validate:"required,max=255"`
	Kind   string  `json:"kind" validate:"required,oneof=book article"`
	Link   *string `json:"link" validate:"omitempty,url,max=2048"`
	Status string  `json:"status" validate:"omitempty,oneof=planned in_progress finished"`
}

// updateEntryReq is a partial update; absent fields are left alone and an
// empty link clears it.
type updateEntryReq struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=255"`
	Kind   *string `json:"kind" validate:"omitempty,oneof=book article"`
	Link   *string `json:"link" validate:"omitempty,max=2048"`
	Status *string `json:"status" validate:"omitempty,oneof=planned in_progress finished"`
}

type entryResp struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Link      *string   `json:"link"`
	Status    string    `json:"status"`
	OwnerID   uint64    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toEntryResp(e model.Entry) entryResp {
	return entryResp{
		ID:        e.ID,
		Title:     e.Title,
		Kind:      e.Kind,
		Link:      e.Link,
		Status:    e.Status,
		OwnerID:   e.OwnerID,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// Create handles POST /entries.
func (h *EntryHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req createEntryReq
	if err := c.Bind(&req); err != nil {
		return apperr.ErrBadRequest
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Status == "" {
		req.Status = model.StatusPlanned
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e := model.Entry{
		Title:   req.Title,
		Kind:    req.Kind,
		Link:    req.Link,
		Status:  req.Status,
		OwnerID: id.UserID,
	}
	if err := h.Entries.Create(ctx, &e); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toEntryResp(e))
}

// List handles GET /entries.
func (h *EntryHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	limit, offset, err := parsePage(c)
	if err != nil {
		return err
	}
	f := repository.EntryFilter{Limit: limit, Offset: offset, Status: c.QueryParam("entry_status")}
	if f.Status != "" && !model.ValidStatus(f.Status) {
		return apperr.Validation(apperr.FieldError{Field: "entry_status", Message: "must be one of: planned, in_progress, finished"})
	}

	if raw := c.QueryParam("owner_id"); raw != "" {
		if id.Role != model.RoleAdmin {
			return apperr.ErrForbidden.WithDetail("Only admins may filter by owner")
		}
		owner, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return apperr.Validation(apperr.FieldError{Field: "owner_id", Message: "must be a positive integer"})
		}
		f.OwnerID = &owner
	} else if id.Role != model.RoleAdmin {
		f.OwnerID = &id.UserID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Entries.List(ctx, f)
	if err != nil {
		return err
	}
	items := make([]entryResp, 0, len(entries))
	for _, e := range entries {
		items = append(items, toEntryResp(e))
	}
	return c.JSON(http.StatusOK, newPage(items, limit, offset))
}

// Get handles GET /entries/:id.
func (h *EntryHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.load(ctx, c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResp(e))
}

// Update handles PATCH /entries/:id.
func (h *EntryHandler) Update(c echo.Context) error {
	var req updateEntryReq
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.load(ctx, c)
	if err != nil {
		return err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return apperr.Validation(apperr.FieldError{Field: "title", Message: "is required"})
		}
		e.Title = title
	}
	if req.Kind != nil {
		e.Kind = *req.Kind
	}
	if req.Link != nil {
		e.Link = req.Link
		if *req.Link == "" {
			e.Link = nil
		}
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if err := h.Entries.Update(ctx, &e); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResp(e))
}

// Delete handles DELETE /entries/:id.
func (h *EntryHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.load(ctx, c)
	if err != nil {
		return err
	}
	if err := h.Entries.Delete(ctx, e.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errEntryNotFound
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// load fetches the entry named by the :id param. Entries of other users are
// reported as missing unless the caller is an admin.
func (h *EntryHandler) load(ctx context.Context, c echo.Context) (model.Entry, error) {
	id, err := identity(c)
	if err != nil {
		return model.Entry{}, err
	}
	entryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return model.Entry{}, errEntryNotFound
	}
	e, err := h.Entries.Get(ctx, entryID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Entry{}, errEntryNotFound
	}
	if err != nil {
		return model.Entry{}, err
	}
	if e.OwnerID != id.UserID && id.Role != model.RoleAdmin {
		return model.Entry{}, errEntryNotFound
	}
	return e, nil
}
