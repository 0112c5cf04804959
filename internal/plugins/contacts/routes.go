package contacts

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/middleware"
)

// RegisterRoutes mounts contact management on the authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/contacts", h.Index)
	g.POST("/contacts", h.Create)
	g.PUT("/contacts/:id", h.Update)
	g.DELETE("/contacts/:id", h.Delete)

	g.GET("/contacts/import", h.ImportForm)
	g.POST("/contacts/import", h.Import, middleware.RateLimit(10, time.Minute))
	g.GET("/contacts/import/:job/progress", h.ImportProgress)
}
