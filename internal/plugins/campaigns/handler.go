package campaigns

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/flash"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/plugins/audit"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
)

// TemplateLister supplies the template choices of the edit form.
type TemplateLister interface {
	List(ctx context.Context) ([]backend.Template, error)
}

// Handler handles HTTP requests for campaign operations. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service   CampaignService
	templates TemplateLister
	audit     audit.AuditService
}

// NewHandler creates a new campaign handler.
func NewHandler(service CampaignService, templates TemplateLister, auditSvc audit.AuditService) *Handler {
	return &Handler{service: service, templates: templates, audit: auditSvc}
}

// Index renders the campaign list page (GET /campaigns).
func (h *Handler) Index(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	q := ListQuery{
		Page:   page,
		Status: backend.Status(c.QueryParam("status")),
		Search: c.QueryParam("search"),
	}

	v := listView{Query: q}
	result, err := h.service.List(c.Request().Context(), q)
	if err != nil {
		v.LoadError = apperror.SafeMessage(err)
	}
	v.Page = result
	return layouts.Respond(c, http.StatusOK, "Campaigns", ListPage(v))
}

// Execute sends a campaign now (POST /campaigns/:id/execute).
func (h *Handler) Execute(c echo.Context) error {
	id := c.Param("id")
	res, err := h.service.Execute(c.Request().Context(), id)
	if err != nil {
		layouts.Flash(c, flash.Error, apperror.SafeMessage(err))
		return middleware.Redirect(c, listURL(c))
	}

	details := map[string]any{}
	if res.Campaign != nil {
		details["status"] = string(res.Campaign.Status)
		details["sent"] = res.Campaign.Stats.Sent
	}
	audit.Record(c, h.audit, audit.ActionCampaignExecuted, audit.ResourceCampaign, id, c.FormValue("name"), details)
	layouts.Flash(c, flash.Success, MsgExecuted)
	return middleware.Redirect(c, listURL(c))
}

// EditForm renders the draft editor (GET /campaigns/:id/edit).
func (h *Handler) EditForm(c echo.Context) error {
	campaign := GetCampaign(c)
	return h.renderEditor(c, editView{ID: campaign.ID, Form: FormFor(campaign)})
}

// Update edits a draft (PUT /campaigns/:id).
func (h *Handler) Update(c echo.Context) error {
	id := c.Param("id")
	var form EditForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	campaign, err := h.service.Update(c.Request().Context(), id, form)
	if err != nil {
		if apperror.IsValidation(err) {
			layouts.Notify(c, flash.Error, apperror.SafeMessage(err))
			return h.renderEditor(c, editView{ID: id, Form: form, Errors: apperror.FieldsOf(err)})
		}
		layouts.Flash(c, flash.Error, apperror.SafeMessage(err))
		return middleware.Redirect(c, "/campaigns")
	}

	audit.Record(c, h.audit, audit.ActionCampaignUpdated, audit.ResourceCampaign, campaign.ID, campaign.Name, nil)
	layouts.Flash(c, flash.Success, "Campaign updated successfully")
	return middleware.Redirect(c, "/campaigns")
}

// Delete removes a draft (DELETE /campaigns/:id).
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		layouts.Flash(c, flash.Error, apperror.SafeMessage(err))
		return middleware.Redirect(c, listURL(c))
	}

	audit.Record(c, h.audit, audit.ActionCampaignDeleted, audit.ResourceCampaign, id, c.FormValue("name"), nil)
	layouts.Flash(c, flash.Success, "Campaign deleted successfully")
	return middleware.Redirect(c, listURL(c))
}

func (h *Handler) renderEditor(c echo.Context, v editView) error {
	items, err := h.templates.List(c.Request().Context())
	if err != nil {
		v.LoadError = apperror.SafeMessage(err)
	}
	v.Templates = items
	return layouts.Respond(c, http.StatusOK, "Edit campaign", EditPage(v))
}

// listURL keeps the operator on the page and filters they were viewing.
func listURL(c echo.Context) string {
	if q := c.Request().URL.RawQuery; q != "" {
		return "/campaigns?" + q
	}
	return "/campaigns"
}
