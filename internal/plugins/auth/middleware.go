package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/middleware"
)

// contextKeySession is the Echo context key holding the *Session.
const contextKeySession = "auth_session"

// RequireAuth returns middleware that validates the session cookie and
// stores the session in the Echo context. Missing or expired sessions are
// sent to /login (HX-Redirect for HTMX requests).
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return handleUnauthenticated(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				clearSessionCookie(c)
				return handleUnauthenticated(c)
			}

			c.Set(contextKeySession, session)
			return next(c)
		}
	}
}

// handleUnauthenticated sends the browser to the login page. Event streams
// get a bare 401 since EventSource cannot follow a redirect into HTML.
func handleUnauthenticated(c echo.Context) error {
	if c.Request().Header.Get("Accept") == "text/event-stream" {
		return c.NoContent(http.StatusUnauthorized)
	}
	return middleware.Redirect(c, "/login")
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated.
func GetSession(c echo.Context) *Session {
	session, _ := c.Get(contextKeySession).(*Session)
	return session
}

// GetOperatorEmail returns the signed-in operator's email, or "".
func GetOperatorEmail(c echo.Context) string {
	if s := GetSession(c); s != nil {
		return s.Email
	}
	return ""
}
