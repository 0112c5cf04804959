package dashboard

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
	"github.com/keyxmakerx/mailroom/internal/templates/ui"
	"github.com/keyxmakerx/mailroom/internal/validate"
)

type pageView struct {
	Filter    Filter
	Summary   Summary
	LoadError string
}

func (v pageView) url() string {
	q := url.Values{}
	if v.Filter.Status != "" {
		q.Set("status", string(v.Filter.Status))
	}
	if v.Filter.Search != "" {
		q.Set("search", v.Filter.Search)
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// Page renders the dashboard with its filter bar.
func Page(v pageView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("section", "id", "dashboard")
		h.Open("header", "class", "page-header")
		h.Open("div")
		h.Elem("h1", "Dashboard")
		h.Elem("p", "Email Campaign Overview", "class", "muted")
		h.Close("div")
		h.Elem("a", "Create Campaign", "href", "/campaigns/new", "class", "btn btn-primary")
		h.Close("header")

		h.Open("form", "class", "filters", "method", "get", "action", "/",
			"hx-get", "/", "hx-target", "#dashboard-body", "hx-swap", "outerHTML", "hx-push-url", "true",
			"hx-trigger", "input changed delay:300ms from:input[name=search], change from:select[name=status]")
		h.Void("input", "type", "search", "name", "search", "value", v.Filter.Search,
			"placeholder", "Search campaigns...", "aria-label", "Search campaigns")
		opts := []ui.Option{{Value: "", Label: "All statuses"}}
		for _, s := range backend.Statuses {
			opts = append(opts, ui.Option{Value: string(s), Label: validate.Label(string(s))})
		}
		ui.Select(h, "Status", "status", string(v.Filter.Status), opts, nil)
		h.Close("form")

		h.Render(ctx, Body(v))
		h.Close("section")
	})
}

// Body renders the cards, charts and campaign table, or the load error with
// a Retry button.
func Body(v pageView) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Open("div", "id", "dashboard-body")
		defer h.Close("div")

		if v.LoadError != "" {
			h.Render(ctx, ui.ErrorBox(v.LoadError, v.url(), "#dashboard-body"))
			return
		}

		s := v.Summary
		h.Open("div", "class", "metrics")
		metricCard(h, "Total Recipients", humanize.Comma(int64(s.TotalRecipients)), "Across all campaigns")
		metricCard(h, "Active Campaigns", strconv.Itoa(s.ActiveCampaigns), "Currently sending")
		metricCard(h, "Average Open Rate", strconv.Itoa(s.AverageOpenRate)+"%", "All campaigns")
		metricCard(h, "Total Tags", strconv.Itoa(s.TotalTags), "Recipient categories")
		metricCard(h, "Contacts", humanize.Comma(int64(s.Contacts)), "In the address book")
		h.Close("div")

		h.Open("div", "class", "charts")
		barChart(h, "Campaign Status", s.Statuses, len(s.Campaigns))
		orgTotal := 0
		for _, o := range s.Organizations {
			orgTotal += o.Count
		}
		barChart(h, "Recipient Distribution", s.Organizations, orgTotal)
		h.Close("div")

		campaignTable(ctx, h, s.Campaigns)
	})
}

func metricCard(h *markup.W, title, value, description string) {
	h.Open("div", "class", "card metric")
	h.Elem("p", title, "class", "metric-title")
	h.Elem("h3", value, "class", "metric-value")
	h.Elem("p", description, "class", "muted")
	h.Close("div")
}

func barChart(h *markup.W, title string, slices []Slice, total int) {
	h.Open("div", "class", "card chart")
	h.Elem("h2", title)
	if total == 0 {
		h.Elem("p", "No data yet", "class", "empty")
		h.Close("div")
		return
	}
	h.Open("ul", "class", "bars")
	for _, s := range slices {
		pct := s.Percent(total)
		h.Open("li", "class", "bar-row")
		h.Elem("span", s.Label, "class", "bar-label")
		h.Open("span", "class", "bar-track")
		h.Open("span", "class", "bar-fill", "style", fmt.Sprintf("width: %d%%", pct))
		h.Close("span")
		h.Close("span")
		h.Elem("span", fmt.Sprintf("%d (%d%%)", s.Count, pct), "class", "bar-value")
		h.Close("li")
	}
	h.Close("ul")
	h.Close("div")
}

func campaignTable(ctx context.Context, h *markup.W, campaigns []backend.Campaign) {
	h.Open("div", "class", "card")
	h.Elem("h2", "Campaign Contacts Overview")
	h.Elem("p", "Detailed view of campaign contacts and stats", "class", "muted")
	if len(campaigns) == 0 {
		h.Render(ctx, ui.Empty("No campaigns match these filters."))
		h.Close("div")
		return
	}

	h.Open("table", "class", "table")
	h.Open("thead")
	h.Open("tr")
	for _, col := range []string{"Campaign", "Contacts", "Status", "Sent", "Opened", "Scheduled"} {
		h.Elem("th", col)
	}
	h.Close("tr")
	h.Close("thead")
	h.Open("tbody")
	for _, c := range campaigns {
		h.Open("tr")
		h.Elem("td", c.Name, "class", "strong")
		h.Elem("td", fmt.Sprintf("%d total", len(c.Recipients)))
		h.Open("td")
		h.Render(ctx, ui.StatusBadge(string(c.Status)))
		h.Close("td")
		h.Elem("td", strconv.Itoa(c.Stats.Sent))
		h.Elem("td", fmt.Sprintf("%d (%d%%)", c.Stats.Opened, int(math.Round(OpenRate(c.Stats)))))
		scheduled := "Not scheduled"
		if c.ScheduledDate != nil {
			scheduled = c.ScheduledDate.String()
		}
		h.Elem("td", scheduled)
		h.Close("tr")
	}
	h.Close("tbody")
	h.Close("table")
	h.Close("div")
}
