// Package pages holds standalone pages that belong to no plugin.
package pages

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
)

// ErrorPage renders a full error page for the given status.
func ErrorPage(code int, message string) templ.Component {
	content := markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "class", "error-page")
		h.Elem("h1", strconv.Itoa(code))
		h.Elem("p", message)
		h.Elem("a", "Back to dashboard", "href", "/", "class", "btn")
		h.Close("section")
	})
	return layouts.Base("Error", content)
}
