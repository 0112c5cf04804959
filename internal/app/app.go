// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (backend client, Redis
// client, optional audit database, Echo instance) and wires together all
// plugins.
package app

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/config"
	"github.com/keyxmakerx/mailroom/internal/flash"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/plugins/auth"
	"github.com/keyxmakerx/mailroom/internal/sse"
	"github.com/keyxmakerx/mailroom/internal/telemetry"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
	"github.com/keyxmakerx/mailroom/internal/templates/pages"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB pool backing the audit log. Nil when no database
	// is configured; the console then runs without an audit trail.
	DB *sql.DB

	// Redis holds sessions, flashes, wizard drafts and the list cache.
	Redis *redis.Client

	// Backend is the typed client for the mailing REST API.
	Backend *backend.Client

	// Hub fans progress events out to open event streams.
	Hub *sse.Hub

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Flashes queues notices across redirects.
	Flashes *flash.Store

	// sentry reports whether 5xx errors are sent to Sentry.
	sentry bool
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client, client *backend.Client, sentryEnabled bool) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Resolve c.RealIP() through trusted reverse proxies only. Rate limiting
	// and the audit log depend on it.
	middleware.TrustedProxies(e, cfg.TrustedProxies)

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Backend: client,
		Hub:     sse.New(),
		Echo:    e,
		Flashes: flash.NewStore(rdb),
		sentry:  sentryEnabled,
	}

	app.setupMiddleware()
	app.setupLayout()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	// Serve static files (CSS, JS).
	e.Static("/static", "static")

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, innermost (CSRF) runs last.
func (a *App) setupMiddleware() {
	// Forms submit PUT/DELETE through a hidden _method field. Runs before
	// routing so the overridden method selects the route.
	a.Echo.Pre(echomw.MethodOverrideWithConfig(echomw.MethodOverrideConfig{
		Getter: echomw.MethodFromForm("_method"),
	}))

	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request ids are logged and forwarded to the backend.
	a.Echo.Use(middleware.RequestID(backend.WithRequestID))

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- CSP, X-Frame-Options, X-Content-Type-Options, etc.
	a.Echo.Use(middleware.SecurityHeaders(a.Config.IsProduction()))

	// Contact imports get their own cap so an oversized file is answered in
	// the import dialog; every other body gets the plain 413.
	uploadLimit := a.Config.Upload.MaxSize + 1<<20
	a.Echo.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Skipper: isImportUpload,
		Limit:   fmt.Sprintf("%dK", uploadLimit/1024),
	}))
	a.Echo.Use(middleware.UploadLimit(uploadLimit, isImportUpload))

	// CSRF -- gorilla/csrf on all state-changing requests. The key must be
	// exactly 32 bytes, so the configured secret is hashed down to size.
	key := sha256.Sum256([]byte(a.Config.Auth.SecretKey))
	a.Echo.Use(middleware.CSRF(middleware.CSRFConfig{
		Key:    key[:],
		Secure: a.Config.IsProduction(),
	}))
}

// isImportUpload matches the contact import form post.
func isImportUpload(c echo.Context) bool {
	return c.Request().Method == http.MethodPost && c.Path() == "/contacts/import"
}

// setupLayout registers the callbacks the layout package uses to read
// request state without importing plugins.
func (a *App) setupLayout() {
	middleware.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
		ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
		if s := auth.GetSession(c); s != nil {
			ctx = layouts.SetIsAuthenticated(ctx, true)
			ctx = layouts.SetOperator(ctx, s.Name, s.Email)
		}
		return ctx
	}

	layouts.Flasher = func(c echo.Context, n flash.Notice) {
		s := auth.GetSession(c)
		if s == nil {
			layouts.Notify(c, n.Kind, n.Message)
			return
		}
		if err := a.Flashes.Push(c.Request().Context(), s.ID, n); err != nil {
			slog.Warn("queueing flash failed", slog.Any("error", err))
			layouts.Notify(c, n.Kind, n.Message)
		}
	}
}

// withOperator copies the signed-in operator into the request context so
// backend calls, audit entries and wizard drafts can see it. Must run after
// auth.RequireAuth.
func withOperator(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if email := auth.GetOperatorEmail(c); email != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(backend.WithOperator(req.Context(), email)))
		}
		return next(c)
	}
}

// popFlashes moves notices queued before a redirect onto this response.
// Event streams are skipped so they never swallow a notice.
func (a *App) popFlashes(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s := auth.GetSession(c)
		if s == nil || c.Request().Header.Get("Accept") == "text/event-stream" {
			return next(c)
		}
		notices, err := a.Flashes.Pop(c.Request().Context(), s.ID)
		if err != nil {
			slog.Warn("reading flashes failed", slog.Any("error", err))
		}
		if len(notices) > 0 {
			layouts.SetResponseNotices(c, append(notices, layouts.Notices(c)...))
		}
		return next(c)
	}
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to appropriate HTTP responses and renders error pages.
//
// For HTMX partial requests that hit errors, we set HX-Retarget and
// HX-Reswap headers so the error page replaces the full body instead of
// being swapped into a partial target.
//
// For 401 errors on browser requests, we redirect to the login page.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", middleware.GetRequestID(c)),
			)
		}
	case errors.As(err, &echoErr):
		// Echo's built-in HTTP errors (e.g., 404 from router).
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = defaultErrorMessage(code)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("request_id", middleware.GetRequestID(c)),
		)
	}

	if code >= http.StatusInternalServerError && a.sentry {
		telemetry.CaptureError(err, map[string]string{
			"path":       c.Path(),
			"method":     c.Request().Method,
			"request_id": middleware.GetRequestID(c),
		})
	}

	// EventSource cannot render HTML.
	if c.Request().Header.Get("Accept") == "text/event-stream" {
		c.NoContent(code)
		return
	}

	if isAPIRequest(c) {
		c.JSON(code, map[string]string{
			"error":   http.StatusText(code),
			"message": message,
		})
		return
	}

	// For HTMX requests, redirect to login on 401 so the browser navigates
	// instead of swapping error HTML into a fragment target.
	if middleware.IsHTMX(c) {
		if code == http.StatusUnauthorized {
			c.Response().Header().Set("HX-Redirect", "/login")
			c.NoContent(http.StatusNoContent)
			return
		}
		c.Response().Header().Set("HX-Retarget", "body")
		c.Response().Header().Set("HX-Reswap", "innerHTML")
	}

	// Regular browser 401: redirect to login page.
	if code == http.StatusUnauthorized {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	middleware.Render(c, code, pages.ErrorPage(code, message))
}

// defaultErrorMessage returns a user-friendly message for common HTTP status codes
// when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "You need to sign in to access this page."
	case http.StatusForbidden:
		return "You don't have permission to do that."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist or has been moved."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusRequestEntityTooLarge:
		return "The upload is too large."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusBadGateway:
		return "The mailing backend returned an invalid response."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An unexpected error occurred."
	}
}

// isAPIRequest reports whether the caller expects JSON: the health check,
// anything under /api, or an explicit Accept header.
func isAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	if path == "/healthz" || strings.HasPrefix(path, "/api/") {
		return true
	}
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Mailroom console",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
		slog.String("backend", a.Backend.BaseURL()),
		slog.Bool("audit", a.DB != nil),
	)
	return a.Echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}
