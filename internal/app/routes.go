package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/cache"
	"github.com/keyxmakerx/mailroom/internal/plugins/audit"
	"github.com/keyxmakerx/mailroom/internal/plugins/auth"
	"github.com/keyxmakerx/mailroom/internal/plugins/campaigns"
	"github.com/keyxmakerx/mailroom/internal/plugins/contacts"
	"github.com/keyxmakerx/mailroom/internal/plugins/dashboard"
	"github.com/keyxmakerx/mailroom/internal/plugins/sendmail"
	"github.com/keyxmakerx/mailroom/internal/plugins/templates"
	"github.com/keyxmakerx/mailroom/internal/plugins/wizard"
)

// devPassword signs in the default operator when no hash is configured.
// Config validation refuses to start production without a hash.
const devPassword = "mailroom"

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() error {
	e := a.Echo
	cfg := a.Config

	// --- Shared services ---
	var auditRepo audit.AuditRepository
	if a.DB != nil {
		auditRepo = audit.NewAuditRepository(a.DB)
	}
	auditSvc := audit.NewAuditService(auditRepo)
	lists := cache.New(a.Redis, cfg.Cache.TTL)

	templateSvc := templates.NewTemplateService(a.Backend.Templates, lists)
	limits := contacts.ImportLimits{MaxSize: cfg.Upload.MaxSize, Extensions: cfg.Upload.AllowedExtensions}
	contactSvc := contacts.NewContactService(a.Backend.Contacts, lists, cfg.Backend.PageSize, limits)
	campaignSvc := campaigns.NewCampaignService(a.Backend.Campaigns, cfg.Backend.PageSize)

	// --- Public Routes (no auth required) ---
	operator, err := a.operator()
	if err != nil {
		return err
	}
	authSvc := auth.NewAuthService(auth.NewStaticOperatorRepository(operator), a.Redis, cfg.Auth.SessionTTL)
	auth.RegisterRoutes(e, auth.NewHandler(authSvc, auditSvc, cfg.Auth.SessionTTL))

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", a.healthz)

	// --- Plugin Routes ---
	// Authenticated route group -- all routes below require a valid session.
	authed := e.Group("", auth.RequireAuth(authSvc), withOperator, a.popFlashes)

	dashboard.RegisterRoutes(authed, dashboard.NewHandler(dashboard.NewDashboardService(campaignSvc, contactSvc)))
	templates.RegisterRoutes(authed, templates.NewHandler(templateSvc, auditSvc))
	contacts.RegisterRoutes(authed, contacts.NewHandler(contactSvc, auditSvc, a.Hub, limits))

	// /campaigns/new is a static route and wins over /campaigns/:id.
	drafts := wizard.NewDraftStore(a.Redis, cfg.Wizard.DraftTTL)
	wizardSvc := wizard.NewWizardService(drafts, templateSvc, contactSvc, campaignSvc, cfg.Wizard.ScheduleDays)
	wizard.RegisterRoutes(authed, wizard.NewHandler(wizardSvc, auditSvc))
	campaigns.RegisterRoutes(authed, campaigns.NewHandler(campaignSvc, templateSvc, auditSvc), campaignSvc)

	sendSvc := sendmail.NewSendService(templateSvc, contactSvc, a.Backend.Emails)
	sendmail.RegisterRoutes(authed, sendmail.NewHandler(sendSvc, auditSvc, a.Hub))

	audit.RegisterRoutes(authed, audit.NewHandler(auditSvc))
	return nil
}

// operator builds the single console account from config. Development
// without a configured hash falls back to devPassword.
func (a *App) operator() (auth.Operator, error) {
	op := auth.Operator{
		Email:        a.Config.Auth.OperatorEmail,
		Name:         a.Config.Auth.OperatorName,
		PasswordHash: a.Config.Auth.OperatorPasswordHash,
	}
	if op.PasswordHash != "" {
		return op, nil
	}
	hash, err := auth.HashPassword(devPassword)
	if err != nil {
		return op, err
	}
	op.PasswordHash = hash
	slog.Warn("OPERATOR_PASSWORD_HASH not set; using the development password",
		slog.String("email", op.Email))
	return op, nil
}

// healthz reports Redis and, when configured, MariaDB reachability.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["status"], status["redis"] = "degraded", err.Error()
		code = http.StatusServiceUnavailable
	}
	if a.DB != nil {
		status["database"] = "ok"
		if err := a.DB.PingContext(ctx); err != nil {
			status["status"], status["database"] = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, status)
}
