package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
	"github.com/keyxmakerx/mailroom/internal/templates/ui"
)

type previewFunc func(content string, values map[string]string) string

type editorView struct {
	ID     string
	Form   TemplateForm
	Errors apperror.FieldErrors
}

func categoryOptions() []ui.Option {
	opts := make([]ui.Option, 0, len(backend.Categories))
	for _, c := range backend.Categories {
		opts = append(opts, ui.Option{Value: c, Label: strings.ToUpper(c[:1]) + c[1:]})
	}
	return opts
}

// ListPage renders every template with an expandable preview.
func ListPage(items []backend.Template, loadErr string, preview previewFunc) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "id", "templates")
		h.Open("header", "class", "page-header")
		h.Elem("h1", "Templates")
		h.Elem("a", "New template", "href", "/templates/new", "class", "btn btn-primary")
		h.Close("header")

		switch {
		case loadErr != "":
			h.Render(ctx, ui.ErrorBox(loadErr, "/templates", "#templates"))
		case len(items) == 0:
			h.Render(ctx, ui.Empty("No templates yet. Create one to start sending."))
		default:
			h.Open("ul", "class", "card-list")
			for _, t := range items {
				templateCard(ctx, h, t, preview)
			}
			h.Close("ul")
		}
		h.Close("section")
	})
}

func templateCard(ctx context.Context, h *markup.W, t backend.Template, preview previewFunc) {
	h.Open("li", "class", "card", "id", "template-"+t.ID)
	h.Open("div", "class", "card-head")
	h.Elem("h2", t.Name)
	h.Elem("span", t.Category, "class", "badge")
	h.Close("div")
	h.Elem("p", t.Subject, "class", "muted")
	if len(t.Variables) > 0 {
		h.Elem("p", "Variables: "+strings.Join(t.Variables, ", "), "class", "muted small")
	}
	if !t.UpdatedAt.IsZero() {
		h.Elem("p", "Updated "+humanize.Time(t.UpdatedAt), "class", "muted small")
	}

	h.Open("details")
	h.Elem("summary", "Preview")
	h.Open("div", "class", "preview")
	h.Raw(preview(t.Content, nil))
	h.Close("div")
	h.Close("details")

	h.Open("div", "class", "card-actions")
	h.Elem("a", "Edit", "href", "/templates/"+t.ID+"/edit", "class", "btn")
	h.Open("form", "method", "post", "action", "/templates/"+t.ID,
		"hx-delete", "/templates/"+t.ID,
		"hx-confirm", "Delete template \""+t.Name+"\"? This cannot be undone.")
	ui.CSRFField(ctx, h)
	ui.MethodField(h, "DELETE")
	h.Void("input", "type", "hidden", "name", "name", "value", t.Name)
	h.Elem("button", "Delete", "type", "submit", "class", "btn btn-danger")
	h.Close("form")
	h.Close("div")
	h.Close("li")
}

// EditorPage renders the create/edit form with a live preview pane.
func EditorPage(v editorView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		action, method, title := "/templates", "POST", "New template"
		if v.ID != "" {
			action, method, title = "/templates/"+v.ID, "PUT", "Edit template"
		}

		h.Open("section", "id", "template-editor", "class", "editor")
		h.Elem("h1", title)
		ui.ValidationSummary(h, v.Errors)

		hxAttr := "hx-post"
		if method == "PUT" {
			hxAttr = "hx-put"
		}
		h.Open("form", "method", "post", "action", action, hxAttr, action,
			"hx-target", "#template-editor", "hx-swap", "outerHTML")
		ui.CSRFField(ctx, h)
		if method == "PUT" {
			ui.MethodField(h, method)
		}

		ui.Input(h, "Name", "name", "text", v.Form.Name, v.Errors, "required", "true", "minlength", "3")
		ui.Input(h, "Subject", "subject", "text", v.Form.Subject, v.Errors, "required", "true", "minlength", "3")
		ui.Select(h, "Category", "category", v.Form.Category, categoryOptions(), v.Errors)

		h.Open("label", "class", "field")
		h.Elem("span", "Content")
		h.Elem("textarea", v.Form.Content, "name", "content", "rows", "14",
			"class", markup.If(v.Errors["content"] != "", "invalid"))
		ui.FieldError(h, v.Errors, "content")
		h.Elem("small", "Use {{variable}} or ${variable} placeholders.", "class", "muted")
		h.Close("label")

		ui.Input(h, "Variables", "variables", "text", v.Form.Variables, v.Errors,
			"placeholder", "recipientName, organization")

		h.Open("details", "class", "preview-values")
		h.Elem("summary", "Preview values")
		for _, name := range ParseVariables(v.Form.Variables) {
			ui.Input(h, name, varPrefix+name, "text", "", nil, "placeholder", SampleValues[name])
		}
		h.Close("details")

		h.Open("div", "class", "form-actions")
		h.Elem("button", "Preview", "type", "button", "class", "btn",
			"hx-post", "/templates/preview", "hx-include", "closest form",
			"hx-target", "#template-preview", "hx-swap", "innerHTML")
		h.Elem("button", "Save template", "type", "submit", "class", "btn btn-primary")
		h.Elem("a", "Cancel", "href", "/templates", "class", "btn btn-link")
		h.Close("div")
		h.Close("form")

		h.Open("div", "id", "template-preview", "class", "preview-pane")
		h.Close("div")
		h.Close("section")
	})
}

// PreviewPane renders an already sanitized preview.
func PreviewPane(subject, html string) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		if subject != "" {
			h.Elem("p", "Subject: "+subject, "class", "preview-subject")
		}
		h.Open("div", "class", "preview")
		h.Raw(html)
		h.Close("div")
	})
}
