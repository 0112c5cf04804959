package sendmail

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/flash"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/plugins/audit"
	"github.com/keyxmakerx/mailroom/internal/progress"
	"github.com/keyxmakerx/mailroom/internal/sse"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
)

// ProgressEvent is the payload of a "progress" server-sent event.
type ProgressEvent struct {
	Percent int `json:"percent"`
}

// Handler serves the send page.
type Handler struct {
	service SendService
	audit   audit.AuditService
	hub     *sse.Hub
	clock   progress.Clock
}

// NewHandler creates a new send-mail handler.
func NewHandler(service SendService, auditSvc audit.AuditService, hub *sse.Hub) *Handler {
	return &Handler{service: service, audit: auditSvc, hub: hub, clock: progress.RealClock}
}

// Index renders the send page (GET /send?tab=bulk|single).
func (h *Handler) Index(c echo.Context) error {
	v := pageView{Tab: c.QueryParam("tab"), Job: uuid.NewString()}
	return h.render(c, v)
}

// SendBulk sends a template to the selected contacts (POST /send/bulk).
func (h *Handler) SendBulk(c echo.Context) error {
	var form BulkForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	v := pageView{Tab: TabBulk, Job: jobID(form.Job), Bulk: form}
	ctx := c.Request().Context()

	in, err := h.service.PrepareBulk(ctx, &v.Bulk)
	if err != nil {
		return h.failed(c, v, err)
	}

	finish := h.track(ctx, v.Job)
	outcome, err := h.service.SendBulk(ctx, in)
	finish()
	if err != nil {
		return h.failed(c, v, err)
	}

	audit.Record(c, h.audit, audit.ActionEmailBulkSent, audit.ResourceEmail, in.TemplateID, "", map[string]any{
		"successful": outcome.Successful,
		"failed":     outcome.Failed,
	})
	kind := flash.Success
	if outcome.Warning {
		kind = flash.Warning
	}
	layouts.Notify(c, kind, outcome.Message)

	v.Bulk = BulkForm{Job: v.Job, TemplateID: in.TemplateID}
	return h.render(c, v)
}

// SendSingle sends a template to one typed address (POST /send/single).
func (h *Handler) SendSingle(c echo.Context) error {
	var form SingleForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	v := pageView{Tab: TabSingle, Job: jobID(form.Job), Single: form}
	ctx := c.Request().Context()

	in, err := h.service.PrepareSingle(&v.Single)
	if err != nil {
		return h.failed(c, v, err)
	}

	finish := h.track(ctx, v.Job)
	outcome, err := h.service.SendSingle(ctx, in)
	finish()
	if err != nil {
		return h.failed(c, v, err)
	}

	audit.Record(c, h.audit, audit.ActionEmailSingleSent, audit.ResourceEmail, in.TemplateID, in.Email, nil)
	layouts.Notify(c, flash.Success, outcome.Message)

	v.Single = SingleForm{Job: v.Job, TemplateID: in.TemplateID}
	return h.render(c, v)
}

// Progress streams send progress (GET /send/progress/:job).
func (h *Handler) Progress(c echo.Context) error {
	job := c.Param("job")
	if _, err := uuid.Parse(job); err != nil {
		return apperror.NewNotFound("unknown send")
	}
	return h.hub.Stream(c, sendTopic(job))
}

// track drives the simulated bar for job while a send is outstanding. The
// returned function marks the call finished; the bar then shows 100, resets
// to 0 and the stream is closed with a "done" event. The run outlives the
// request so the reset still reaches the page.
func (h *Handler) track(ctx context.Context, job string) func() {
	done := make(chan struct{})
	topic := sendTopic(job)
	runCtx := context.WithoutCancel(ctx)
	go func() {
		progress.Run(runCtx, h.clock, done, func(p int) {
			h.hub.Publish(topic, sse.JSONEvent("progress", ProgressEvent{Percent: p}))
		})
		h.hub.Publish(topic, sse.JSONEvent("done", ProgressEvent{}))
	}()
	return sync.OnceFunc(func() { close(done) })
}

// failed re-renders the form with its errors. Field errors are shown
// inline and summarized in one notification.
func (h *Handler) failed(c echo.Context, v pageView, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	v.Errors = apperror.FieldsOf(err)
	layouts.Notify(c, flash.Error, apperror.SafeMessage(err))
	return h.render(c, v)
}

// render loads the options and responds with the form panel for HTMX
// requests or the whole page otherwise.
func (h *Handler) render(c echo.Context, v pageView) error {
	opts, err := h.service.Options(c.Request().Context())
	if err != nil {
		v.LoadError = apperror.SafeMessage(err)
	}
	v.Options = opts

	if middleware.IsHTMX(c) && c.Request().Method == http.MethodPost {
		return layouts.Respond(c, http.StatusOK, "Send email", FormPanel(v))
	}
	return layouts.Respond(c, http.StatusOK, "Send email", Page(v))
}

// jobID keeps a well-formed job id from the form or starts a new one.
func jobID(job string) string {
	if _, err := uuid.Parse(job); err != nil {
		return uuid.NewString()
	}
	return job
}

func sendTopic(job string) string { return "send:" + job }
