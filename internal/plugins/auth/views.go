package auth

import (
	"context"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
	"github.com/keyxmakerx/mailroom/internal/templates/ui"
)

// LoginPage renders the full sign-in page.
func LoginPage(email string, errs apperror.FieldErrors, message string) templ.Component {
	return layouts.Base("Sign in", markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "class", "auth-card")
		h.Elem("h1", "Sign in to Mailroom")
		h.Render(ctx, LoginForm(email, errs, message))
		h.Close("section")
	}))
}

// LoginForm renders the sign-in form; HTMX swaps it in place on failure.
func LoginForm(email string, errs apperror.FieldErrors, message string) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("form", "id", "login-form", "method", "post", "action", "/login",
			"hx-post", "/login", "hx-target", "#login-form", "hx-swap", "outerHTML")
		ui.CSRFField(ctx, h)
		if message != "" {
			h.Elem("p", message, "class", "form-error", "role", "alert")
		}
		ui.Input(h, "Email", "email", "email", email, errs, "autocomplete", "username", "required", "required")
		ui.Input(h, "Password", "password", "password", "", errs, "autocomplete", "current-password", "required", "required")
		h.Elem("button", "Sign in", "type", "submit", "class", "btn btn-primary")
		h.Close("form")
	})
}
