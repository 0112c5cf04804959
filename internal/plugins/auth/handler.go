package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/plugins/audit"
	"github.com/keyxmakerx/mailroom/internal/validate"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "mailroom_session"

// Handler handles HTTP requests for sign-in and sign-out.
type Handler struct {
	service    AuthService
	audit      audit.AuditService
	sessionTTL time.Duration
}

// NewHandler creates a new auth handler.
func NewHandler(service AuthService, auditSvc audit.AuditService, sessionTTL time.Duration) *Handler {
	return &Handler{service: service, audit: auditSvc, sessionTTL: sessionTTL}
}

// LoginForm renders the login page (GET /login).
func (h *Handler) LoginForm(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		if _, err := h.service.ValidateSession(c.Request().Context(), token); err == nil {
			return c.Redirect(http.StatusSeeOther, "/")
		}
	}
	return middleware.Render(c, http.StatusOK, LoginPage("", nil, ""))
}

// Login processes the login form submission (POST /login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if errs := validate.Struct(req, nil); errs != nil {
		return h.renderLoginError(c, req.Email, errs, "")
	}

	token, session, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if apperror.SafeCode(err) >= http.StatusInternalServerError {
			return err
		}
		return h.renderLoginError(c, req.Email, nil, apperror.SafeMessage(err))
	}

	setSessionCookie(c, token, h.sessionTTL)

	ctx := backend.WithOperator(c.Request().Context(), session.Email)
	c.SetRequest(c.Request().WithContext(ctx))
	audit.Record(c, h.audit, audit.ActionSessionLogin, audit.ResourceSession, session.ID, session.Name, nil)

	return middleware.Redirect(c, "/")
}

func (h *Handler) renderLoginError(c echo.Context, email string, errs apperror.FieldErrors, msg string) error {
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, LoginForm(email, errs, msg))
	}
	return middleware.Render(c, http.StatusOK, LoginPage(email, errs, msg))
}

// Logout destroys the session and clears the cookie (POST /logout).
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		ctx := c.Request().Context()
		if session, err := h.service.ValidateSession(ctx, token); err == nil {
			c.SetRequest(c.Request().WithContext(backend.WithOperator(ctx, session.Email)))
			audit.Record(c, h.audit, audit.ActionSessionLogout, audit.ResourceSession, session.ID, session.Name, nil)
		}
		// The cookie is cleared regardless.
		_ = h.service.DestroySession(ctx, token)
	}

	clearSessionCookie(c)
	return middleware.Redirect(c, "/login")
}

// --- Cookie helpers ---

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly, Secure behind TLS, and SameSite=Lax. It lives as long as the
// Redis session.
func setSessionCookie(c echo.Context, token string, ttl time.Duration) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
