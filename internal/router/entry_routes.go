package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reading-list/internal/handler"
	"github.com/iliyamo/reading-list/internal/middleware"
	"github.com/iliyamo/reading-list/internal/model"
)

// RegisterEntries registers the reading-list CRUD endpoints. Any
// authenticated role may use them; ownership is enforced by the handler.
func RegisterEntries(api *echo.Group, h *handler.EntryHandler) {
	g := api.Group("/entries", middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterAdmin registers admin-only endpoints.
func RegisterAdmin(api *echo.Group, h *handler.AdminHandler) {
	g := api.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	g.GET("/users", h.ListUsers)
}
