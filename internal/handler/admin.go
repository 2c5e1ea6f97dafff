package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reading-list/internal/repository"
)

// AdminHandler serves the admin-only user directory.
type AdminHandler struct {
	Users *repository.UserRepo
}

func NewAdminHandler(users *repository.UserRepo) *AdminHandler {
	return &AdminHandler{Users: users}
}

type adminUserResp struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// ListUsers handles GET /admin/users?q=&limit=&offset=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, offset, err := parsePage(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.Search(ctx, strings.TrimSpace(c.QueryParam("q")), limit, offset)
	if err != nil {
		return err
	}
	items := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		items = append(items, adminUserResp{ID: u.ID, Email: u.Email, Role: u.Role, IsActive: u.IsActive})
	}
	return c.JSON(http.StatusOK, newPage(items, limit, offset))
}
