package campaigns

import (
	"context"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
	"github.com/keyxmakerx/mailroom/internal/templates/ui"
)

type listView struct {
	Query     ListQuery
	Page      backend.Page[backend.Campaign]
	LoadError string
}

func (v listView) filters() url.Values {
	q := url.Values{}
	if v.Query.Status != "" {
		q.Set("status", string(v.Query.Status))
	}
	if v.Query.Search != "" {
		q.Set("search", v.Query.Search)
	}
	return q
}

// rowURL keeps the current page and filters on row actions so the
// follow-up redirect lands where the operator was.
func (v listView) rowURL(path string) string {
	q := v.filters()
	if v.Page.Page > 1 {
		q.Set("page", strconv.Itoa(v.Page.Page))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func statusOptions() []ui.Option {
	opts := []ui.Option{{Value: "", Label: "All statuses"}}
	for _, s := range backend.Statuses {
		opts = append(opts, ui.Option{Value: string(s), Label: string(s)})
	}
	return opts
}

// ListPage renders the paginated campaign table.
func ListPage(v listView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "id", "campaigns")
		h.Open("header", "class", "page-header")
		h.Elem("h1", "Campaigns")
		h.Elem("a", "Create campaign", "href", "/campaigns/new", "class", "btn btn-primary")
		h.Close("header")

		h.Open("form", "method", "get", "action", "/campaigns", "class", "filters",
			"hx-get", "/campaigns", "hx-target", "#campaigns", "hx-swap", "outerHTML", "hx-push-url", "true",
			"hx-trigger", "change, input changed delay:300ms from:find input, submit")
		ui.Select(h, "Status", "status", string(v.Query.Status), statusOptions(), nil)
		h.Void("input", "type", "search", "name", "search", "value", v.Query.Search,
			"placeholder", "Search campaigns", "aria-label", "Search campaigns")
		h.Close("form")

		switch {
		case v.LoadError != "":
			h.Render(ctx, ui.ErrorBox(v.LoadError, v.rowURL("/campaigns"), "#campaigns"))
		case len(v.Page.Items) == 0:
			h.Open("div", "class", "empty")
			h.Elem("h2", "No campaigns found")
			h.Elem("p", "You haven't created any campaigns yet. Start by creating your first campaign.")
			h.Elem("a", "Create campaign", "href", "/campaigns/new", "class", "btn")
			h.Close("div")
		default:
			campaignTable(ctx, h, v)
		}

		h.Render(ctx, ui.Pagination("#campaigns", "/campaigns", v.filters(), v.Page.Page, v.Page.TotalPages))
		h.Close("section")
	})
}

func campaignTable(ctx context.Context, h *markup.W, v listView) {
	h.Open("table", "class", "table")
	h.Raw("<thead><tr><th>Name</th><th>Template</th><th>Recipients</th><th>Status</th>" +
		"<th>Scheduled</th><th>Created</th><th>Last executed</th><th></th></tr></thead>")
	h.Open("tbody")
	for _, c := range v.Page.Items {
		h.Open("tr", "id", "campaign-"+c.ID)
		h.Elem("td", c.Name, "class", "strong")
		h.Elem("td", templateLabel(c.Template))
		h.Elem("td", strconv.Itoa(len(c.Recipients)))
		h.Open("td")
		h.Render(ctx, ui.StatusBadge(string(c.Status)))
		h.Close("td")
		if c.ScheduledDate != nil {
			h.Elem("td", c.ScheduledDate.String())
		} else {
			h.Elem("td", "-")
		}
		h.Elem("td", c.CreatedAt.Format("Jan 2, 2006"))
		if c.LastExecuted != nil {
			h.Elem("td", humanize.Time(*c.LastExecuted), "title", c.LastExecuted.Format("2006-01-02 15:04"))
		} else {
			h.Elem("td", "-")
		}
		h.Open("td", "class", "row-actions")
		rowActions(ctx, h, v, c)
		h.Close("td")
		h.Close("tr")
	}
	h.Close("tbody")
	h.Close("table")
}

func rowActions(ctx context.Context, h *markup.W, v listView, c backend.Campaign) {
	acts := ActionsFor(c)

	execURL := v.rowURL("/campaigns/" + c.ID + "/execute")
	h.Open("form", "method", "post", "action", execURL, "hx-post", execURL,
		"hx-confirm", "Execute \""+c.Name+"\" now?")
	ui.CSRFField(ctx, h)
	h.Void("input", "type", "hidden", "name", "name", "value", c.Name)
	h.Elem("button", "Execute", "type", "submit", "class", "btn", "title", "Execute campaign")
	h.Close("form")

	if acts.CanEdit {
		h.Elem("a", "Edit", "href", "/campaigns/"+c.ID+"/edit", "class", "btn", "title", "Update campaign")
	} else {
		h.Elem("button", "Edit", "type", "button", "class", "btn", "disabled", "true", "title", acts.Reason)
	}

	delURL := v.rowURL("/campaigns/" + c.ID)
	if acts.CanDelete {
		h.Open("form", "method", "post", "action", delURL, "hx-delete", delURL,
			"hx-confirm", "Are you sure you want to delete this campaign? This action cannot be undone.")
		ui.CSRFField(ctx, h)
		ui.MethodField(h, "DELETE")
		h.Void("input", "type", "hidden", "name", "name", "value", c.Name)
		h.Elem("button", "Delete", "type", "submit", "class", "btn btn-danger", "title", "Delete campaign")
		h.Close("form")
	} else {
		h.Elem("button", "Delete", "type", "button", "class", "btn btn-danger", "disabled", "true", "title", acts.Reason)
		h.Elem("small", acts.Reason, "class", "muted")
	}
}

func templateLabel(t backend.TemplateRef) string {
	switch {
	case t.Name != "":
		return t.Name
	case t.ID != "":
		return t.ID
	}
	return "-"
}

type editView struct {
	ID        string
	Form      EditForm
	Errors    apperror.FieldErrors
	Templates []backend.Template
	LoadError string
}

// EditPage renders the draft campaign editor.
func EditPage(v editView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		action := "/campaigns/" + v.ID
		h.Open("section", "id", "campaign-editor", "class", "editor")
		h.Elem("h1", "Update campaign")
		if v.LoadError != "" {
			h.Render(ctx, ui.ErrorBox(v.LoadError, action+"/edit", "#campaign-editor"))
		}
		ui.ValidationSummary(h, v.Errors)

		h.Open("form", "method", "post", "action", action, "hx-put", action,
			"hx-target", "#campaign-editor", "hx-swap", "outerHTML")
		ui.CSRFField(ctx, h)
		ui.MethodField(h, "PUT")

		ui.Input(h, "Campaign name", "name", "text", v.Form.Name, v.Errors, "required", "true", "minlength", "3")

		opts := []ui.Option{{Value: "", Label: "Select a template"}}
		for _, t := range v.Templates {
			opts = append(opts, ui.Option{Value: t.ID, Label: t.Name})
		}
		ui.Select(h, "Template", "templateId", v.Form.TemplateID, opts, v.Errors)

		ui.Input(h, "Recipient tags", "recipientTags", "text", v.Form.RecipientTags, v.Errors,
			"placeholder", "customers, newsletter")
		ui.Input(h, "Scheduled date", "scheduledDate", "date", v.Form.ScheduledDate, v.Errors)

		h.Open("div", "class", "form-actions")
		h.Elem("button", "Update campaign", "type", "submit", "class", "btn btn-primary")
		h.Elem("a", "Cancel", "href", "/campaigns", "class", "btn btn-link")
		h.Close("div")
		h.Close("form")
		h.Close("section")
	})
}
