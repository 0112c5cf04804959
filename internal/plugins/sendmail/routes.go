package sendmail

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/middleware"
)

// RegisterRoutes mounts the send page on the authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	limit := middleware.RateLimit(10, time.Minute)

	g.GET("/send", h.Index)
	g.POST("/send/bulk", h.SendBulk, limit)
	g.POST("/send/single", h.SendSingle, limit)
	g.GET("/send/progress/:job", h.Progress)
}
