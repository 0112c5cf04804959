package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
)

// Handler serves the dashboard.
type Handler struct {
	service DashboardService
}

// NewHandler creates a new dashboard handler.
func NewHandler(service DashboardService) *Handler {
	return &Handler{service: service}
}

// Index renders the overview (GET /?status=&search=). HTMX requests from the
// filter form and the Retry button receive only the body.
func (h *Handler) Index(c echo.Context) error {
	var f Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
		return apperror.NewBadRequest("invalid filter")
	}
	v := pageView{Filter: f.Normalize()}

	summary, err := h.service.Summary(c.Request().Context(), v.Filter)
	if err != nil {
		v.LoadError = apperror.SafeMessage(err)
	}
	v.Summary = summary

	if middleware.IsHTMX(c) {
		return layouts.Respond(c, http.StatusOK, "Dashboard", Body(v))
	}
	return layouts.Respond(c, http.StatusOK, "Dashboard", Page(v))
}
