package audit

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/keyxmakerx/mailroom/internal/templates/markup"
	"github.com/keyxmakerx/mailroom/internal/templates/ui"
)

type activityView struct {
	Enabled bool
	Entries []Entry
	Total   int
	Page    int
	Filter  ListFilter
}

func (v activityView) totalPages() int {
	if v.Total == 0 {
		return 1
	}
	return (v.Total + PerPage - 1) / PerPage
}

// ActivityPage renders the audit feed.
func ActivityPage(v activityView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "id", "activity")
		h.Elem("h1", "Activity")

		if !v.Enabled {
			h.Render(ctx, ui.Empty("Auditing is off. Configure DB_HOST or DATABASE_URL to record console activity."))
			h.Close("section")
			return
		}

		h.Open("form", "method", "get", "action", "/activity", "hx-get", "/activity",
			"hx-target", "#activity", "hx-swap", "outerHTML", "hx-trigger", "change", "class", "filters")
		opts := []ui.Option{{Value: "", Label: "All resources"}}
		for _, r := range Resources {
			opts = append(opts, ui.Option{Value: r, Label: r})
		}
		ui.Select(h, "Resource", "resource", v.Filter.ResourceType, opts, nil)
		h.Close("form")

		if len(v.Entries) == 0 {
			h.Render(ctx, ui.Empty("No activity yet."))
		} else {
			h.Open("table", "class", "table")
			h.Raw("<thead><tr><th>When</th><th>Operator</th><th>Action</th><th>Resource</th><th>Details</th></tr></thead>")
			h.Open("tbody")
			for _, e := range v.Entries {
				h.Open("tr")
				h.Elem("td", humanize.Time(e.CreatedAt), "title", e.CreatedAt.Format("2006-01-02 15:04:05 MST"))
				h.Elem("td", e.Operator)
				h.Elem("td", e.Action)
				h.Elem("td", resourceLabel(e))
				h.Elem("td", detailsText(e.Details), "class", "muted")
				h.Close("tr")
			}
			h.Close("tbody")
			h.Close("table")
		}

		q := url.Values{}
		if v.Filter.ResourceType != "" {
			q.Set("resource", v.Filter.ResourceType)
		}
		h.Render(ctx, ui.Pagination("#activity", "/activity", q, v.Page, v.totalPages()))
		h.Close("section")
	})
}

func resourceLabel(e Entry) string {
	switch {
	case e.ResourceName != "":
		return e.ResourceType + ": " + e.ResourceName
	case e.ResourceID != "":
		return e.ResourceType + " " + e.ResourceID
	default:
		return e.ResourceType
	}
}

// detailsText flattens details into "k=v" pairs in key order.
func detailsText(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%v", k, details[k])
	}
	return out
}
