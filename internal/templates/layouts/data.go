// data.go provides typed context helpers for passing layout data from
// handlers/middleware to templ components. Only simple types are stored so
// the layouts package never imports plugin types.
//
// Data flow: Handler/Middleware → Echo Context → LayoutInjector → Go Context → templ
package layouts

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/flash"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyIsAuthenticated ctxKey = "layout_is_authenticated"
	keyOperatorName    ctxKey = "layout_operator_name"
	keyOperatorEmail   ctxKey = "layout_operator_email"
	keyCSRFToken       ctxKey = "layout_csrf_token"
	keyNotices         ctxKey = "layout_notices"
	keyActivePath      ctxKey = "layout_active_path"
)

// noticesKey is the Echo context key holding notices for the current response.
const noticesKey = "flash_notices"

// --- Setters (called by the layout injector in internal/app) ---

// SetIsAuthenticated marks whether the current request has a valid session.
func SetIsAuthenticated(ctx context.Context, authed bool) context.Context {
	return context.WithValue(ctx, keyIsAuthenticated, authed)
}

// SetOperator stores the signed-in operator's display name and email.
func SetOperator(ctx context.Context, name, email string) context.Context {
	ctx = context.WithValue(ctx, keyOperatorName, name)
	return context.WithValue(ctx, keyOperatorEmail, email)
}

// SetCSRFToken stores the masked CSRF token for forms and the meta tag.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// SetNotices stores the toasts to show on this render.
func SetNotices(ctx context.Context, notices []flash.Notice) context.Context {
	return context.WithValue(ctx, keyNotices, notices)
}

// SetActivePath stores the request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// --- Getters (called from components) ---

// IsAuthenticated reports whether the request has a valid session.
func IsAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(keyIsAuthenticated).(bool)
	return v
}

// OperatorName returns the operator's display name.
func OperatorName(ctx context.Context) string {
	v, _ := ctx.Value(keyOperatorName).(string)
	return v
}

// OperatorEmail returns the operator's email.
func OperatorEmail(ctx context.Context) string {
	v, _ := ctx.Value(keyOperatorEmail).(string)
	return v
}

// GetCSRFToken returns the CSRF token for the current request.
func GetCSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(keyCSRFToken).(string)
	return v
}

// GetNotices returns the toasts for this render.
func GetNotices(ctx context.Context) []flash.Notice {
	v, _ := ctx.Value(keyNotices).([]flash.Notice)
	return v
}

// GetActivePath returns the request path.
func GetActivePath(ctx context.Context) string {
	v, _ := ctx.Value(keyActivePath).(string)
	return v
}

// --- Notifications ---

// Flasher persists a notice so it survives a redirect. Registered once at
// startup in internal/app; when nil, Flash falls back to Notify.
var Flasher func(c echo.Context, n flash.Notice)

// Notify shows a notice on the current response.
func Notify(c echo.Context, kind flash.Kind, message string) {
	list, _ := c.Get(noticesKey).([]flash.Notice)
	c.Set(noticesKey, append(list, flash.Notice{Kind: kind, Message: message}))
}

// Flash queues a notice for the next page the operator sees. Use it before
// redirecting.
func Flash(c echo.Context, kind flash.Kind, message string) {
	if Flasher != nil {
		Flasher(c, flash.Notice{Kind: kind, Message: message})
		return
	}
	Notify(c, kind, message)
}

// Notices returns the notices attached to the current response.
func Notices(c echo.Context) []flash.Notice {
	list, _ := c.Get(noticesKey).([]flash.Notice)
	return list
}

// SetResponseNotices replaces the notices for the current response. Used by
// the middleware that pops queued flashes.
func SetResponseNotices(c echo.Context, notices []flash.Notice) {
	c.Set(noticesKey, notices)
}
