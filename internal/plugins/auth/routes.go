package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/middleware"
)

// RegisterRoutes sets up the public sign-in routes. Login is rate-limited
// to 10 attempts per IP per minute against credential stuffing.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.POST("/logout", h.Logout)
}
