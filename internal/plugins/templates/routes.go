package templates

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts template management on the authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/templates", h.Index)
	g.GET("/templates/new", h.New)
	g.POST("/templates", h.Create)
	g.POST("/templates/preview", h.Preview)
	g.GET("/templates/:id/edit", h.Edit)
	g.PUT("/templates/:id", h.Update)
	g.DELETE("/templates/:id", h.Delete)
}
