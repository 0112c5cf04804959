// Package ui holds the small reusable components shared by plugin views:
// form fields, status badges, pagination, progress bars and error boxes.
package ui

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
)

// CSRFField writes the hidden CSRF input every POST form needs.
func CSRFField(ctx context.Context, h *markup.W) {
	h.Void("input", "type", "hidden", "name", "csrf_token", "value", layouts.GetCSRFToken(ctx))
}

// MethodField writes echo's method override field for PUT/DELETE forms
// submitted without HTMX.
func MethodField(h *markup.W, method string) {
	h.Void("input", "type", "hidden", "name", "_method", "value", method)
}

// FieldError writes the inline message for field, if any.
func FieldError(h *markup.W, errs apperror.FieldErrors, field string) {
	if msg, ok := errs[field]; ok {
		h.Elem("p", msg, "class", "field-error", "id", field+"-error")
	}
}

// Input writes a labelled text input with its inline error.
func Input(h *markup.W, label, name, typ, value string, errs apperror.FieldErrors, extra ...string) {
	h.Open("label", "class", "field")
	h.Elem("span", label)
	attrs := append([]string{"type", typ, "name", name, "value", value,
		"class", markup.If(errs[name] != "", "invalid")}, extra...)
	h.Void("input", attrs...)
	FieldError(h, errs, name)
	h.Close("label")
}

// Option is one entry of a select.
type Option struct {
	Value string
	Label string
}

// Select writes a labelled select with its inline error.
func Select(h *markup.W, label, name, selected string, opts []Option, errs apperror.FieldErrors, extra ...string) {
	h.Open("label", "class", "field")
	h.Elem("span", label)
	h.Open("select", append([]string{"name", name}, extra...)...)
	for _, o := range opts {
		h.Elem("option", o.Label, "value", o.Value, "selected", markup.If(o.Value == selected, "selected"))
	}
	h.Close("select")
	FieldError(h, errs, name)
	h.Close("label")
}

// ValidationSummary lists every field message above a form.
func ValidationSummary(h *markup.W, errs apperror.FieldErrors) {
	if len(errs) == 0 {
		return
	}
	h.Open("ul", "class", "validation-summary", "role", "alert")
	for _, msg := range errs.Messages() {
		h.Elem("li", msg)
	}
	h.Close("ul")
}

// StatusBadge renders a campaign status pill.
func StatusBadge(status string) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Elem("span", status, "class", "badge badge-"+status)
	})
}

// Pagination renders prev/next controls that swap target. The page query
// parameter is replaced; all other parameters are kept.
func Pagination(target, path string, query url.Values, page, totalPages int) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		if totalPages <= 1 {
			return
		}
		link := func(p int) string {
			q := url.Values{}
			for k, v := range query {
				q[k] = v
			}
			q.Set("page", strconv.Itoa(p))
			return path + "?" + q.Encode()
		}

		h.Open("nav", "class", "pagination", "aria-label", "Pagination")
		if page > 1 {
			h.Elem("a", "Previous", "href", link(page-1), "hx-get", link(page-1),
				"hx-target", target, "hx-push-url", "true", "class", "btn")
		} else {
			h.Elem("span", "Previous", "class", "btn disabled")
		}
		h.Elem("span", fmt.Sprintf("Page %d of %d", page, totalPages), "class", "page-info")
		if page < totalPages {
			h.Elem("a", "Next", "href", link(page+1), "hx-get", link(page+1),
				"hx-target", target, "hx-push-url", "true", "class", "btn")
		} else {
			h.Elem("span", "Next", "class", "btn disabled")
		}
		h.Close("nav")
	})
}

// ProgressBar renders a bar fed by the server-sent event stream at src.
// static/js/app.js opens the stream and moves the bar on "progress" events.
func ProgressBar(id, src string) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("div", "id", id, "class", "progress", "data-progress-src", src,
			"role", "progressbar", "aria-valuemin", "0", "aria-valuemax", "100", "aria-valuenow", "0")
		h.Open("div", "class", "progress-bar", "style", "width: 0%")
		h.Close("div")
		h.Elem("span", "0%", "class", "progress-label")
		h.Close("div")
	})
}

// ErrorBox renders a load failure with an optional retry button that
// re-requests retryURL into target.
func ErrorBox(message, retryURL, target string) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("div", "class", "error-box", "role", "alert")
		h.Elem("p", message)
		if retryURL != "" {
			h.Elem("button", "Retry", "type", "button", "class", "btn",
				"hx-get", retryURL, "hx-target", target, "hx-swap", "outerHTML")
		}
		h.Close("div")
	})
}

// Empty renders a placeholder for an empty list.
func Empty(message string) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Elem("p", message, "class", "empty")
	})
}
