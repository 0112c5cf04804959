package templates

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/flash"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/plugins/audit"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
)

// varPrefix marks preview form fields carrying a variable value.
const varPrefix = "var_"

// Handler handles HTTP requests for template management.
type Handler struct {
	service TemplateService
	audit   audit.AuditService
}

// NewHandler creates a new templates handler.
func NewHandler(service TemplateService, auditSvc audit.AuditService) *Handler {
	return &Handler{service: service, audit: auditSvc}
}

// Index lists templates (GET /templates).
func (h *Handler) Index(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		if apperror.SafeCode(err) < http.StatusInternalServerError {
			return err
		}
		return layouts.Respond(c, http.StatusOK, "Templates", ListPage(nil, apperror.SafeMessage(err), h.service.Preview))
	}
	return layouts.Respond(c, http.StatusOK, "Templates", ListPage(items, "", h.service.Preview))
}

// New renders the empty editor (GET /templates/new).
func (h *Handler) New(c echo.Context) error {
	return layouts.Respond(c, http.StatusOK, "New template", EditorPage(editorView{Form: NewForm()}))
}

// Create stores a new template (POST /templates).
func (h *Handler) Create(c echo.Context) error {
	form, err := bindForm(c)
	if err != nil {
		return err
	}

	t, err := h.service.Create(c.Request().Context(), form)
	if err != nil {
		return h.formError(c, editorView{Form: form}, err)
	}

	audit.Record(c, h.audit, audit.ActionTemplateCreated, audit.ResourceTemplate, t.ID, t.Name, nil)
	layouts.Flash(c, flash.Success, "Template created successfully")
	return middleware.Redirect(c, "/templates")
}

// Edit renders the editor for an existing template (GET /templates/:id/edit).
func (h *Handler) Edit(c echo.Context) error {
	t, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return layouts.Respond(c, http.StatusOK, "Edit template", EditorPage(editorView{ID: t.ID, Form: FormFor(t)}))
}

// Update replaces a template (PUT /templates/:id).
func (h *Handler) Update(c echo.Context) error {
	id := c.Param("id")
	form, err := bindForm(c)
	if err != nil {
		return err
	}

	t, err := h.service.Update(c.Request().Context(), id, form)
	if err != nil {
		return h.formError(c, editorView{ID: id, Form: form}, err)
	}

	audit.Record(c, h.audit, audit.ActionTemplateUpdated, audit.ResourceTemplate, t.ID, t.Name, nil)
	layouts.Flash(c, flash.Success, "Template updated successfully")
	return middleware.Redirect(c, "/templates")
}

// Delete removes a template (DELETE /templates/:id).
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		layouts.Flash(c, flash.Error, apperror.SafeMessage(err))
		return middleware.Redirect(c, "/templates")
	}

	audit.Record(c, h.audit, audit.ActionTemplateDeleted, audit.ResourceTemplate, id, c.FormValue("name"), nil)
	layouts.Flash(c, flash.Success, "Template deleted successfully")
	return middleware.Redirect(c, "/templates")
}

// Preview renders the body with sample and operator-supplied values
// (POST /templates/preview).
func (h *Handler) Preview(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	values := make(map[string]string)
	for k, v := range params {
		if name, ok := strings.CutPrefix(k, varPrefix); ok && len(v) > 0 {
			values[name] = strings.TrimSpace(v[0])
		}
	}
	html := h.service.Preview(params.Get("content"), values)
	return middleware.Render(c, http.StatusOK, PreviewPane(params.Get("subject"), html))
}

// formError re-renders the editor, keeping what the operator typed, with
// inline messages for validation failures and a toast for anything else.
func (h *Handler) formError(c echo.Context, v editorView, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	v.Errors = apperror.FieldsOf(err)
	layouts.Notify(c, flash.Error, apperror.SafeMessage(err))
	title := "New template"
	if v.ID != "" {
		title = "Edit template"
	}
	return layouts.Respond(c, http.StatusOK, title, EditorPage(v))
}

func bindForm(c echo.Context) (TemplateForm, error) {
	var form TemplateForm
	if err := c.Bind(&form); err != nil {
		return form, apperror.NewBadRequest("invalid request")
	}
	return form, nil
}
