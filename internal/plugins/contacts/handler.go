package contacts

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/flash"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/plugins/audit"
	"github.com/keyxmakerx/mailroom/internal/sse"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
)

// ProgressEvent is the payload of a "progress" server-sent event.
type ProgressEvent struct {
	Percent int `json:"percent"`
}

// Handler handles HTTP requests for contacts.
type Handler struct {
	service ContactService
	audit   audit.AuditService
	hub     *sse.Hub
	limits  ImportLimits
}

// NewHandler creates a new contacts handler.
func NewHandler(service ContactService, auditSvc audit.AuditService, hub *sse.Hub, limits ImportLimits) *Handler {
	return &Handler{service: service, audit: auditSvc, hub: hub, limits: limits}
}

// Index lists contacts (GET /contacts?page=&search=).
func (h *Handler) Index(c echo.Context) error {
	return h.renderList(c, listView{})
}

// Create adds a contact (POST /contacts).
func (h *Handler) Create(c echo.Context) error {
	var form ContactForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	contact, err := h.service.Create(c.Request().Context(), form)
	if err != nil {
		layouts.Notify(c, flash.Error, apperror.SafeMessage(err))
		return h.renderList(c, listView{Form: form, Errors: apperror.FieldsOf(err), Adding: true})
	}

	audit.Record(c, h.audit, audit.ActionContactCreated, audit.ResourceContact, contact.ID, contact.Email, nil)
	layouts.Flash(c, flash.Success, "Contact created successfully")
	return middleware.Redirect(c, listURL(c))
}

// Update edits a contact (PUT /contacts/:id).
func (h *Handler) Update(c echo.Context) error {
	id := c.Param("id")
	var form ContactForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	contact, err := h.service.Update(c.Request().Context(), id, form)
	if err != nil {
		layouts.Notify(c, flash.Error, apperror.SafeMessage(err))
		return h.renderList(c, listView{EditingID: id, Form: form, Errors: apperror.FieldsOf(err)})
	}

	audit.Record(c, h.audit, audit.ActionContactUpdated, audit.ResourceContact, contact.ID, contact.Email, nil)
	layouts.Flash(c, flash.Success, "Contact updated successfully")
	return middleware.Redirect(c, listURL(c))
}

// Delete removes a contact (DELETE /contacts/:id).
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		layouts.Flash(c, flash.Error, apperror.SafeMessage(err))
		return middleware.Redirect(c, listURL(c))
	}

	audit.Record(c, h.audit, audit.ActionContactDeleted, audit.ResourceContact, id, c.FormValue("email"), nil)
	layouts.Flash(c, flash.Success, "Contact deleted successfully")
	return middleware.Redirect(c, listURL(c))
}

// ImportForm renders the upload dialog (GET /contacts/import).
func (h *Handler) ImportForm(c echo.Context) error {
	return layouts.Respond(c, http.StatusOK, "Import contacts", ImportPanel(h.importView("")))
}

// Import uploads a contact file (POST /contacts/import). Progress is
// published on "import:<job>" while the backend receives the file.
func (h *Handler) Import(c echo.Context) error {
	job := c.FormValue("job")
	if _, err := uuid.Parse(job); err != nil {
		job = ""
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if middleware.Oversized(c, err) {
			return h.importFailed(c, job, apperror.SafeMessage(fileTooLarge(h.limits.MaxSize)))
		}
		return h.importFailed(c, job, "Please choose a file to upload")
	}
	if err := h.service.CheckUpload(fh.Filename, fh.Size); err != nil {
		return h.importFailed(c, job, apperror.SafeMessage(err))
	}

	src, err := fh.Open()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("opening upload: %w", err))
	}
	defer src.Close()

	topic := importTopic(job)
	report := func(p int) {
		if job != "" {
			h.hub.Publish(topic, sse.JSONEvent("progress", ProgressEvent{Percent: p}))
		}
	}

	summary, err := h.service.Import(c.Request().Context(), fh.Filename, fh.Size, src, report)
	if err != nil {
		return h.importFailed(c, job, apperror.SafeMessage(err))
	}
	h.finish(job, 100)

	audit.Record(c, h.audit, audit.ActionContactImported, audit.ResourceContact, "", fh.Filename, map[string]any{
		"imported":   summary.Result.Imported,
		"duplicates": summary.Result.Duplicates,
		"errors":     len(summary.Result.Errors),
	})

	kind := flash.Success
	if summary.Warning {
		kind = flash.Warning
	}
	if !summary.Refresh {
		layouts.Notify(c, kind, summary.Message)
		return layouts.Respond(c, http.StatusOK, "Import contacts", ImportPanel(h.importView(summary.Message)))
	}
	layouts.Flash(c, kind, summary.Message)
	return middleware.Redirect(c, "/contacts")
}

// ImportProgress streams upload progress (GET /contacts/import/:job/progress).
func (h *Handler) ImportProgress(c echo.Context) error {
	job := c.Param("job")
	if _, err := uuid.Parse(job); err != nil {
		return apperror.NewNotFound("unknown import")
	}
	return h.hub.Stream(c, importTopic(job))
}

// importFailed resets the bar and re-renders the dialog in retry state.
func (h *Handler) importFailed(c echo.Context, job, msg string) error {
	h.finish(job, 0)
	layouts.Notify(c, flash.Error, msg)
	return layouts.Respond(c, http.StatusOK, "Import contacts", ImportPanel(h.importView(msg)))
}

// finish publishes the final percentage and closes the job's stream.
func (h *Handler) finish(job string, percent int) {
	if job == "" {
		return
	}
	topic := importTopic(job)
	h.hub.Publish(topic, sse.JSONEvent("progress", ProgressEvent{Percent: percent}))
	h.hub.Publish(topic, sse.JSONEvent("done", ProgressEvent{Percent: percent}))
}

// importView prepares a dialog for a fresh job.
func (h *Handler) importView(errMsg string) importView {
	return importView{
		Job:        uuid.NewString(),
		Error:      errMsg,
		MaxSize:    h.limits.MaxSize,
		Extensions: h.limits.Extensions,
	}
}

func (h *Handler) renderList(c echo.Context, v listView) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	v.Query = ListQuery{Page: page, Search: c.QueryParam("search")}

	result, err := h.service.List(c.Request().Context(), v.Query)
	if err != nil {
		v.LoadError = apperror.SafeMessage(err)
	}
	v.Page = result
	return layouts.Respond(c, http.StatusOK, "Contacts", ListPage(v))
}

// listURL keeps the operator on the page and search they were viewing.
func listURL(c echo.Context) string {
	q := c.Request().URL.Query()
	if len(q) == 0 {
		return "/contacts"
	}
	return "/contacts?" + q.Encode()
}

func importTopic(job string) string { return "import:" + job }
