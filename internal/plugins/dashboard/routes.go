package dashboard

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the dashboard at the root of the authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/", h.Index)
}
