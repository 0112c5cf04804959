package audit

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the activity feed on the authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/activity", h.Activity)
	g.GET("/activity/:resource/:id", h.History)
}
