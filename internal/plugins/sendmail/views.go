package sendmail

import (
	"context"
	"slices"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
	"github.com/keyxmakerx/mailroom/internal/templates/ui"
)

type pageView struct {
	Tab       string
	Job       string
	Options   Options
	LoadError string
	Bulk      BulkForm
	Single    SingleForm
	Errors    apperror.FieldErrors
}

func (v pageView) tab() string {
	if v.Tab == TabSingle {
		return TabSingle
	}
	return TabBulk
}

// Page renders the send page: tabs, the active form and the progress bar
// shared by both tabs.
func Page(v pageView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "id", "send")
		h.Open("header", "class", "page-header")
		h.Elem("h1", "Send Email")
		h.Elem("p", "Send bulk or single emails using templates", "class", "muted")
		h.Close("header")

		h.Open("nav", "class", "tabs")
		for _, t := range []struct{ id, label string }{{TabBulk, "Bulk Email"}, {TabSingle, "Single Email"}} {
			h.Elem("a", t.label, "href", "/send?tab="+t.id,
				"class", "tab"+markup.If(v.tab() == t.id, " active"),
				"aria-current", markup.If(v.tab() == t.id, "page"))
		}
		h.Close("nav")

		h.Open("div", "id", "send-form")
		h.Render(ctx, FormPanel(v))
		h.Close("div")

		h.Render(ctx, ui.ProgressBar("send-progress", "/send/progress/"+v.Job))
		h.Close("section")
	})
}

// FormPanel renders the active tab's form. It replaces the contents of
// #send-form after each submission.
func FormPanel(v pageView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		if v.LoadError != "" {
			h.Render(ctx, ui.ErrorBox(v.LoadError, "/send?tab="+v.tab(), "#send"))
			return
		}

		action := "/send/" + v.tab()
		h.Open("form", "method", "post", "action", action, "class", "send-form",
			"hx-post", action, "hx-target", "#send-form", "hx-swap", "innerHTML",
			"hx-disabled-elt", "find button[type=submit]", "data-progress-bar", "send-progress")
		ui.CSRFField(ctx, h)
		h.Void("input", "type", "hidden", "name", "job", "value", v.Job)
		ui.ValidationSummary(h, v.Errors)

		if v.tab() == TabSingle {
			templateSelect(h, v, v.Single.TemplateID)
			ui.Input(h, "Recipient Email", "email", "email", v.Single.Email, v.Errors,
				"placeholder", "Enter recipient email")
			variableRows(h, Rows(v.Single.VarKeys, v.Single.VarValues))
			h.Elem("button", "Send Single Email", "type", "submit", "class", "btn btn-primary")
		} else {
			templateSelect(h, v, v.Bulk.TemplateID)
			recipientList(h, v)
			variableRows(h, Rows(v.Bulk.VarKeys, v.Bulk.VarValues))
			h.Elem("button", "Send Bulk Email", "type", "submit", "class", "btn btn-primary")
		}
		h.Close("form")
	})
}

func templateSelect(h *markup.W, v pageView, selected string) {
	opts := []ui.Option{{Value: "", Label: "Select email template"}}
	for _, t := range v.Options.Templates {
		opts = append(opts, ui.Option{Value: t.ID, Label: t.Name + " (" + t.Subject + ")"})
	}
	ui.Select(h, "Email Template", "templateId", selected, opts, v.Errors)
}

// recipientList renders the contact checkboxes. static/js/app.js keeps the
// select-all box and the individual boxes in step; the server applies the
// same rule again when the form is posted.
func recipientList(h *markup.W, v pageView) {
	h.Open("fieldset", "class", "recipients")
	h.Elem("legend", "Recipients")
	if len(v.Options.Contacts) == 0 {
		h.Open("p", "class", "empty")
		h.Text("No contacts yet. ")
		h.Elem("a", "Add contacts first.", "href", "/contacts")
		h.Close("p")
	} else {
		h.Open("label", "class", "select-all")
		h.Void("input", "type", "checkbox", "name", "selectAll", "value", "true",
			"data-select-all", "recipients", "checked", markup.If(v.Bulk.SelectAll, "checked"))
		h.Text(" Select All Contacts")
		h.Close("label")

		h.Open("div", "class", "recipient-list")
		for _, c := range v.Options.Contacts {
			h.Open("label", "class", "recipient")
			h.Void("input", "type", "checkbox", "name", "recipients", "value", c.Email,
				"checked", markup.If(slices.Contains(v.Bulk.Recipients, c.Email), "checked"))
			h.Text(" " + c.Email + " - " + c.Name)
			h.Close("label")
		}
		h.Close("div")
	}
	ui.FieldError(h, v.Errors, "recipients")
	h.Close("fieldset")
}

// variableRows renders the custom variable editor. Rows are added and
// removed client-side; blank rows are dropped on submit.
func variableRows(h *markup.W, rows []Variable) {
	if len(rows) == 0 {
		rows = []Variable{{}}
	}
	h.Open("fieldset", "class", "variables", "data-variables", "")
	h.Open("div", "class", "variables-header")
	h.Elem("legend", "Custom Variables")
	h.Elem("button", "Add Variable", "type", "button", "class", "btn btn-small", "data-add-variable", "")
	h.Close("div")
	for i, r := range rows {
		h.Open("div", "class", "variable-row")
		h.Void("input", "type", "text", "name", "varKey", "value", r.Key, "placeholder", "Variable name")
		h.Void("input", "type", "text", "name", "varValue", "value", r.Value, "placeholder", "Variable value")
		if i > 0 {
			h.Elem("button", "Remove", "type", "button", "class", "btn btn-small", "data-remove-variable", "")
		}
		h.Close("div")
	}
	h.Close("fieldset")
}
