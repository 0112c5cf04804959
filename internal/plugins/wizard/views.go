package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
	"github.com/keyxmakerx/mailroom/internal/templates/ui"
)

type wizardView struct {
	Draft     *Draft
	Errors    apperror.FieldErrors
	Days      []string
	LoadError string
}

// WizardPage renders the draft at its current step.
func WizardPage(v wizardView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		d := v.Draft
		base := draftURL(d.ID)

		h.Open("section", "id", "wizard", "class", "wizard")
		h.Elem("h1", "Create campaign")
		stepIndicator(h, d.Step)

		if v.LoadError != "" {
			h.Render(ctx, ui.ErrorBox(v.LoadError, base, "#wizard"))
			h.Close("section")
			return
		}
		ui.ValidationSummary(h, v.Errors)

		h.Open("form", "method", "post", "action", base+"/next",
			"hx-post", base+"/next", "hx-target", "#wizard", "hx-swap", "outerHTML")
		ui.CSRFField(ctx, h)

		switch d.Step {
		case StepNaming:
			ui.Input(h, "Campaign name", "name", "text", d.Name, v.Errors,
				"required", "true", "minlength", "3", "autofocus", "true")
		case StepTemplate:
			templateStep(h, d, v.Errors)
		case StepRecipients:
			recipientStep(h, d, v.Errors, base)
		case StepSchedule:
			scheduleStep(h, d, v)
		}

		h.Open("div", "class", "form-actions")
		h.Elem("button", "Previous", "type", "submit", "class", "btn",
			"formaction", base+"/back", "hx-post", base+"/back",
			"disabled", markup.If(d.Step == StepNaming, "disabled"))
		if d.Step == StepSchedule {
			h.Elem("button", "Create campaign", "type", "submit", "class", "btn btn-primary",
				"formaction", base+"/submit", "hx-post", base+"/submit",
				"disabled", markup.If(len(d.Recipients) == 0, "disabled"))
		} else {
			h.Elem("button", "Next", "type", "submit", "class", "btn btn-primary")
		}
		h.Close("div")
		h.Close("form")
		h.Close("section")
	})
}

func stepIndicator(h *markup.W, current Step) {
	h.Open("ol", "class", "steps")
	for i, s := range Steps {
		class := "step"
		switch {
		case s == current:
			class += " current"
		case s < current:
			class += " done"
		}
		h.Elem("li", fmt.Sprintf("%d. %s", i+1, s), "class", class)
	}
	h.Close("ol")
}

func templateStep(h *markup.W, d *Draft, errs apperror.FieldErrors) {
	h.Open("fieldset", "class", "choices")
	h.Elem("legend", "Template")
	if len(d.Templates) == 0 {
		h.Open("p", "class", "empty")
		h.Text("No templates yet. ")
		h.Elem("a", "Create one first.", "href", "/templates/new")
		h.Close("p")
	}
	for _, t := range d.Templates {
		selected := t.ID == d.TemplateID
		h.Open("label", "class", "choice"+markup.If(selected, " selected"))
		h.Void("input", "type", "radio", "name", "templateId", "value", t.ID,
			"checked", markup.If(selected, "checked"))
		h.Open("span", "class", "choice-body")
		h.Elem("strong", t.Name)
		h.Elem("span", t.Subject, "class", "muted")
		if len(t.Variables) > 0 {
			h.Elem("small", "Variables: "+strings.Join(t.Variables, ", "), "class", "muted")
		}
		h.Close("span")
		h.Close("label")
	}
	ui.FieldError(h, errs, "templateId")
	h.Close("fieldset")
}

func recipientStep(h *markup.W, d *Draft, errs apperror.FieldErrors, base string) {
	h.Open("fieldset", "class", "recipients")
	h.Elem("legend", fmt.Sprintf("Recipients (%d of %d selected)", len(d.Recipients), len(d.Contacts)))

	if len(d.Contacts) == 0 {
		h.Open("p", "class", "empty")
		h.Text("No contacts yet. ")
		h.Elem("a", "Add contacts first.", "href", "/contacts")
		h.Close("p")
	} else {
		h.Open("label", "class", "select-all")
		h.Void("input", "type", "checkbox", "checked", markup.If(d.SelectAll, "checked"),
			"hx-post", base+"/select-all", "hx-vals", toggleVals("", !d.SelectAll),
			"hx-target", "#wizard", "hx-swap", "outerHTML")
		h.Text(" Select all")
		h.Close("label")

		h.Open("ul", "class", "recipient-list")
		for _, c := range d.Contacts {
			on := d.IsSelected(c.ID)
			h.Open("li")
			h.Open("label")
			h.Void("input", "type", "checkbox", "checked", markup.If(on, "checked"),
				"hx-post", base+"/recipients", "hx-vals", toggleVals(c.ID, !on),
				"hx-target", "#wizard", "hx-swap", "outerHTML")
			h.Text(" " + contactLabel(c))
			h.Close("label")
			h.Close("li")
		}
		h.Close("ul")
	}
	ui.FieldError(h, errs, "recipients")
	h.Close("fieldset")
}

func scheduleStep(h *markup.W, d *Draft, v wizardView) {
	opts := []ui.Option{{Value: "", Label: "No date (execute manually)"}}
	for _, day := range v.Days {
		label := day
		if t, err := time.Parse(backend.DateLayout, day); err == nil {
			label = t.Format("Mon, Jan 2 2006")
		}
		opts = append(opts, ui.Option{Value: day, Label: label})
	}
	ui.Select(h, "Scheduled date", "scheduledDate", d.ScheduledDate, opts, v.Errors)

	h.Open("dl", "class", "summary")
	h.Elem("dt", "Name")
	h.Elem("dd", d.Name)
	h.Elem("dt", "Template")
	if t := d.Template(); t != nil {
		h.Elem("dd", t.Name)
	} else {
		h.Elem("dd", "-")
	}
	h.Elem("dt", "Recipients")
	h.Elem("dd", strconv.Itoa(len(d.Recipients)))
	h.Close("dl")
}

func toggleVals(contactID string, on bool) string {
	if contactID == "" {
		return fmt.Sprintf(`{"on": "%t"}`, on)
	}
	return fmt.Sprintf(`{"contact": %q, "on": "%t"}`, contactID, on)
}

func contactLabel(c backend.Contact) string {
	label := c.Name + " <" + c.Email + ">"
	if c.Organization != "" {
		label += " · " + c.Organization
	}
	return label
}
