package contacts

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
	"github.com/keyxmakerx/mailroom/internal/templates/ui"
)

type listView struct {
	Query     ListQuery
	Page      backend.Page[backend.Contact]
	LoadError string

	// Form and Errors belong to the create form when Adding, otherwise to
	// the row being edited.
	Form      ContactForm
	Errors    apperror.FieldErrors
	Adding    bool
	EditingID string
}

func (v listView) query() url.Values {
	q := url.Values{}
	if v.Query.Search != "" {
		q.Set("search", v.Query.Search)
	}
	if v.Page.Page > 1 {
		q.Set("page", strconv.Itoa(v.Page.Page))
	}
	return q
}

func (v listView) withQuery(path string) string {
	if q := v.query(); len(q) > 0 {
		return path + "?" + q.Encode()
	}
	return path
}

// ListPage renders the searchable, paginated contact table.
func ListPage(v listView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "id", "contacts")
		h.Open("header", "class", "page-header")
		h.Elem("h1", "Contacts")
		h.Elem("a", "Import CSV", "href", "/contacts/import", "class", "btn",
			"hx-get", "/contacts/import", "hx-target", "#import-panel", "hx-swap", "innerHTML")
		h.Close("header")
		h.Open("div", "id", "import-panel")
		h.Close("div")

		// Omitting page from the search request sends the operator back to
		// page 1 whenever the term changes.
		h.Open("form", "method", "get", "action", "/contacts", "class", "filters", "role", "search",
			"hx-get", "/contacts", "hx-target", "#contacts", "hx-swap", "outerHTML", "hx-push-url", "true",
			"hx-trigger", "input changed delay:300ms from:find input, search from:find input, submit")
		h.Void("input", "type", "search", "name", "search", "value", v.Query.Search,
			"placeholder", "Search by name, email or organization", "aria-label", "Search contacts")
		h.Close("form")

		addForm(ctx, h, v)

		switch {
		case v.LoadError != "":
			h.Render(ctx, ui.ErrorBox(v.LoadError, v.withQuery("/contacts"), "#contacts"))
		case len(v.Page.Items) == 0 && v.Query.Search != "":
			h.Render(ctx, ui.Empty("No contacts match \""+v.Query.Search+"\"."))
		case len(v.Page.Items) == 0:
			h.Render(ctx, ui.Empty("No contacts yet. Add one or import a CSV file."))
		default:
			contactTable(ctx, h, v)
		}

		q := url.Values{}
		if v.Query.Search != "" {
			q.Set("search", v.Query.Search)
		}
		h.Render(ctx, ui.Pagination("#contacts", "/contacts", q, v.Page.Page, v.Page.TotalPages))
		h.Close("section")
	})
}

func addForm(ctx context.Context, h *markup.W, v listView) {
	form, errs := ContactForm{}, apperror.FieldErrors(nil)
	if v.Adding {
		form, errs = v.Form, v.Errors
	}
	h.Open("details", "class", "inline-form", "open", markup.If(v.Adding, "open"))
	h.Elem("summary", "Add contact", "class", "btn btn-primary")
	action := v.withQuery("/contacts")
	h.Open("form", "method", "post", "action", action,
		"hx-post", action, "hx-target", "#contacts", "hx-swap", "outerHTML")
	ui.CSRFField(ctx, h)
	contactFields(h, form, errs)
	h.Elem("button", "Save contact", "type", "submit", "class", "btn btn-primary")
	h.Close("form")
	h.Close("details")
}

func contactFields(h *markup.W, f ContactForm, errs apperror.FieldErrors) {
	ui.Input(h, "Email", "email", "email", f.Email, errs, "required", "true")
	ui.Input(h, "Name", "name", "text", f.Name, errs, "required", "true", "minlength", "2")
	ui.Input(h, "Organization", "organization", "text", f.Organization, errs)
	ui.Input(h, "Tags", "tags", "text", f.Tags, errs, "placeholder", "customer, newsletter")
}

func contactTable(ctx context.Context, h *markup.W, v listView) {
	h.Open("table", "class", "table")
	h.Raw("<thead><tr><th>Name</th><th>Email</th><th>Organization</th><th>Tags</th><th>Added</th><th></th></tr></thead>")
	h.Open("tbody")
	for _, c := range v.Page.Items {
		h.Open("tr", "id", "contact-"+c.ID)
		h.Elem("td", c.Name)
		h.Elem("td", c.Email)
		h.Elem("td", c.Organization)
		h.Open("td")
		for _, t := range c.Tags {
			h.Elem("span", t, "class", "tag")
		}
		h.Close("td")
		if c.CreatedAt.IsZero() {
			h.Elem("td", "")
		} else {
			h.Elem("td", humanize.Time(c.CreatedAt), "class", "muted")
		}
		h.Open("td", "class", "row-actions")
		rowActions(ctx, h, v, c)
		h.Close("td")
		h.Close("tr")
	}
	h.Close("tbody")
	h.Close("table")
}

func rowActions(ctx context.Context, h *markup.W, v listView, c backend.Contact) {
	editing := v.EditingID == c.ID
	form, errs := FormFor(c), apperror.FieldErrors(nil)
	if editing {
		form, errs = v.Form, v.Errors
	}
	action := v.withQuery("/contacts/" + c.ID)

	h.Open("details", "class", "inline-form", "open", markup.If(editing, "open"))
	h.Elem("summary", "Edit", "class", "btn")
	h.Open("form", "method", "post", "action", action,
		"hx-put", action, "hx-target", "#contacts", "hx-swap", "outerHTML")
	ui.CSRFField(ctx, h)
	ui.MethodField(h, "PUT")
	contactFields(h, form, errs)
	h.Elem("button", "Update contact", "type", "submit", "class", "btn btn-primary")
	h.Close("form")
	h.Close("details")

	h.Open("form", "method", "post", "action", action, "hx-delete", action,
		"hx-confirm", "Delete "+c.Email+"?")
	ui.CSRFField(ctx, h)
	ui.MethodField(h, "DELETE")
	h.Void("input", "type", "hidden", "name", "email", "value", c.Email)
	h.Elem("button", "Delete", "type", "submit", "class", "btn btn-danger")
	h.Close("form")
}

type importView struct {
	Job        string
	Error      string
	MaxSize    int64
	Extensions []string
}

// ImportPanel renders the upload dialog. The progress bar subscribes to the
// job's event stream as soon as it is on the page.
func ImportPanel(v importView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "id", "import-dialog", "class", "dialog")
		h.Elem("h2", "Upload contacts")
		h.Elem("p", "Columns: email (required), name, organization, tags. Maximum "+
			humanize.IBytes(uint64(v.MaxSize))+".", "class", "muted")
		if v.Error != "" {
			h.Elem("p", v.Error, "class", "field-error", "role", "alert")
		}

		h.Open("form", "method", "post", "action", "/contacts/import", "enctype", "multipart/form-data",
			"hx-post", "/contacts/import", "hx-encoding", "multipart/form-data",
			"hx-target", "#import-dialog", "hx-swap", "outerHTML")
		ui.CSRFField(ctx, h)
		h.Void("input", "type", "hidden", "name", "job", "value", v.Job)
		h.Void("input", "type", "file", "name", "file", "required", "true",
			"accept", strings.Join(v.Extensions, ","),
			"data-max-size", strconv.FormatInt(v.MaxSize, 10),
			"data-max-label", humanize.IBytes(uint64(v.MaxSize)))
		h.Render(ctx, ui.ProgressBar("import-progress", "/contacts/import/"+v.Job+"/progress"))
		h.Open("div", "class", "form-actions")
		label := "Upload"
		if v.Error != "" {
			label = "Retry upload"
		}
		h.Elem("button", label, "type", "submit", "class", "btn btn-primary")
		h.Elem("a", "Close", "href", "/contacts", "class", "btn btn-link")
		h.Close("div")
		h.Close("form")
		h.Close("section")
	})
}
