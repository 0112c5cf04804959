package wizard

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the wizard on the authenticated group. The static
// /campaigns/new prefix takes precedence over the campaign list's :id routes.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/campaigns/new", h.New)
	g.GET("/campaigns/new/:draft", h.Show)
	g.POST("/campaigns/new/:draft/next", h.Next)
	g.POST("/campaigns/new/:draft/back", h.Back)
	g.POST("/campaigns/new/:draft/recipients", h.Recipient)
	g.POST("/campaigns/new/:draft/select-all", h.SelectAll)
	g.POST("/campaigns/new/:draft/submit", h.Submit)
}
