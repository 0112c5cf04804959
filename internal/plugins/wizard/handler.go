package wizard

import (
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

const pageTitle = "New campaign"

// Handler handles HTTP requests for the campaign wizard.
type Handler struct {
	service WizardService
	audit   audit.AuditService
}

// NewHandler creates a new wizard handler.
func NewHandler(service WizardService, auditSvc audit.AuditService) *Handler {
	return &Handler{service: service, audit: auditSvc}
}

// New starts a draft and sends the operator to it (GET /campaigns/new).
func (h *Handler) New(c echo.Context) error {
	d, err := h.service.Start(c.Request().Context(), operator(c))
	if err != nil {
		return err
	}
	return middleware.Redirect(c, draftURL(d.ID))
}

// Show renders the draft's current step (GET /campaigns/new/:draft).
func (h *Handler) Show(c echo.Context) error {
	d, err := h.service.Get(c.Request().Context(), operator(c), c.Param("draft"))
	if d == nil {
		return h.expired(c, err)
	}
	v := h.view(d, nil)
	if err != nil {
		v.LoadError = apperror.SafeMessage(err)
	}
	return layouts.Respond(c, http.StatusOK, pageTitle, WizardPage(v))
}

// Next validates the current step and advances (POST .../next).
func (h *Handler) Next(c echo.Context) error {
	f, err := bindFields(c)
	if err != nil {
		return err
	}
	d, errs, err := h.service.Next(c.Request().Context(), operator(c), c.Param("draft"), f)
	if d == nil {
		return h.expired(c, err)
	}
	if err != nil {
		return err
	}
	return h.render(c, d, errs)
}

// Back returns to the previous step (POST .../back).
func (h *Handler) Back(c echo.Context) error {
	f, err := bindFields(c)
	if err != nil {
		return err
	}
	d, err := h.service.Back(c.Request().Context(), operator(c), c.Param("draft"), f)
	if d == nil {
		return h.expired(c, err)
	}
	if err != nil {
		return err
	}
	return h.render(c, d, nil)
}

// Recipient toggles one contact (POST .../recipients, contact=&on=).
func (h *Handler) Recipient(c echo.Context) error {
	on, _ := strconv.ParseBool(c.FormValue("on"))
	d, err := h.service.SetRecipient(c.Request().Context(), operator(c), c.Param("draft"), c.FormValue("contact"), on)
	if d == nil {
		return h.expired(c, err)
	}
	if err != nil {
		return err
	}
	return h.render(c, d, nil)
}

// SelectAll selects every contact or none (POST .../select-all, on=).
func (h *Handler) SelectAll(c echo.Context) error {
	on, _ := strconv.ParseBool(c.FormValue("on"))
	d, err := h.service.SetSelectAll(c.Request().Context(), operator(c), c.Param("draft"), on)
	if d == nil {
		return h.expired(c, err)
	}
	if err != nil {
		return err
	}
	return h.render(c, d, nil)
}

// Submit creates the campaign (POST .../submit). Failures keep the draft
// and show the reason.
func (h *Handler) Submit(c echo.Context) error {
	f, err := bindFields(c)
	if err != nil {
		return err
	}
	d, campaign, errs, err := h.service.Submit(c.Request().Context(), operator(c), c.Param("draft"), f)
	if d == nil {
		return h.expired(c, err)
	}
	if errs != nil {
		layouts.Notify(c, flash.Error, apperror.NewFieldValidation(errs).Message)
		return h.render(c, d, errs)
	}
	if err != nil {
		layouts.Notify(c, flash.Error, apperror.SafeMessage(err))
		return h.render(c, d, nil)
	}

	audit.Record(c, h.audit, audit.ActionCampaignCreated, audit.ResourceCampaign, campaign.ID, campaign.Name, map[string]any{
		"recipients": len(d.Recipients),
		"template":   d.TemplateID,
	})
	layouts.Flash(c, flash.Success, "Campaign created successfully")
	return middleware.Redirect(c, "/campaigns")
}

func (h *Handler) render(c echo.Context, d *Draft, errs apperror.FieldErrors) error {
	return layouts.Respond(c, http.StatusOK, pageTitle, WizardPage(h.view(d, errs)))
}

func (h *Handler) view(d *Draft, errs apperror.FieldErrors) wizardView {
	return wizardView{Draft: d, Errors: errs, Days: h.service.ScheduleDays()}
}

// expired handles a draft that no longer exists by starting over.
func (h *Handler) expired(c echo.Context, err error) error {
	if apperror.SafeCode(err) != http.StatusNotFound {
		return err
	}
	layouts.Flash(c, flash.Warning, apperror.SafeMessage(err))
	return middleware.Redirect(c, "/campaigns/new")
}

func bindFields(c echo.Context) (Fields, error) {
	var f Fields
	if err := c.Bind(&f); err != nil {
		return f, apperror.NewBadRequest("invalid request")
	}
	return f, nil
}

func operator(c echo.Context) string {
	return backend.OperatorFrom(c.Request().Context())
}

func draftURL(id string) string { return "/campaigns/new/" + id }
