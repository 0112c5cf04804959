package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
)

// Handler handles HTTP requests for the activity feed. Handlers are thin:
// bind request, call service, render response.
type Handler struct {
	service AuditService
}

// NewHandler creates a new audit handler.
func NewHandler(service AuditService) *Handler {
	return &Handler{service: service}
}

// Activity renders the console activity feed (GET /activity).
func (h *Handler) Activity(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	filter := ListFilter{ResourceType: c.QueryParam("resource")}

	entries, total, err := h.service.Activity(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}

	view := activityView{
		Enabled: h.service.Enabled(),
		Entries: entries,
		Total:   total,
		Page:    page,
		Filter:  filter,
	}
	return layouts.Respond(c, http.StatusOK, "Activity", ActivityPage(view))
}

// History returns the JSON history of one resource
// (GET /activity/:resource/:id).
func (h *Handler) History(c echo.Context) error {
	entries, err := h.service.History(c.Request().Context(), c.Param("resource"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
