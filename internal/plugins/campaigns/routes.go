package campaigns

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the campaign list on the authenticated group.
// Creation lives in the wizard plugin under /campaigns/new.
func RegisterRoutes(g *echo.Group, h *Handler, svc CampaignService) {
	g.GET("/campaigns", h.Index)
	g.POST("/campaigns/:id/execute", h.Execute)
	g.GET("/campaigns/:id/edit", h.EditForm, LoadCampaign(svc), RequireDraft())
	g.PUT("/campaigns/:id", h.Update)
	g.DELETE("/campaigns/:id", h.Delete)
}
