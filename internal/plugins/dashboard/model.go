package dashboard

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/keyxmakerx/mailroom/internal/backend"
)

// MsgLoadFailed is shown with the Retry button when campaigns fail to load.
const MsgLoadFailed = "Failed to load campaigns. Please try again."

// TopOrganizations is how many organizations the chart names before folding
// the rest into "Other".
const TopOrganizations = 4

// Filter narrows the campaigns the dashboard aggregates.
type Filter struct {
	Status backend.Status `query:"status"`
	Search string         `query:"search"`
}

// Normalize drops an unknown status and trims the search term.
func (f Filter) Normalize() Filter {
	if !slices.Contains(backend.Statuses, f.Status) {
		f.Status = ""
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Metrics are the headline cards.
type Metrics struct {
	TotalRecipients int
	ActiveCampaigns int
	AverageOpenRate int
	TotalTags       int
	Contacts        int
}

// Slice is one bar of a distribution chart.
type Slice struct {
	Label string
	Count int
}

// Percent is the slice's share of total, rounded.
func (s Slice) Percent(total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(s.Count) * 100 / float64(total)))
}

// Summary is everything the dashboard shows.
type Summary struct {
	Metrics
	Statuses      []Slice
	Organizations []Slice
	Campaigns     []backend.Campaign
}

// OpenRate is opened/sent as a percentage, or 0 when nothing was sent.
func OpenRate(stats backend.CampaignStats) float64 {
	if stats.Sent <= 0 {
		return 0
	}
	return float64(stats.Opened) * 100 / float64(stats.Sent)
}

// Summarize aggregates campaigns (with recipients populated) and the
// address book into the dashboard's cards and charts.
func Summarize(campaigns []backend.Campaign, contacts []backend.Contact) Summary {
	s := Summary{Campaigns: campaigns}
	s.Contacts = len(contacts)

	var rateSum float64
	tags := map[string]struct{}{}
	byStatus := map[backend.Status]int{}
	byOrg := map[string]int{}
	seen := map[string]struct{}{}

	for _, c := range campaigns {
		s.TotalRecipients += len(c.Recipients)
		if c.Status == backend.StatusSending {
			s.ActiveCampaigns++
		}
		rateSum += OpenRate(c.Stats)
		byStatus[c.Status]++

		for _, r := range c.Recipients {
			if !r.Populated {
				continue
			}
			for _, t := range r.Tags {
				if t = strings.TrimSpace(t); t != "" {
					tags[t] = struct{}{}
				}
			}
			key := r.ID
			if key == "" {
				key = r.Email
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			byOrg[organization(r.Organization)]++
		}
	}

	if len(campaigns) > 0 {
		s.AverageOpenRate = int(math.Round(rateSum / float64(len(campaigns))))
	}
	s.TotalTags = len(tags)

	for _, st := range backend.Statuses {
		s.Statuses = append(s.Statuses, Slice{Label: string(st), Count: byStatus[st]})
	}
	s.Organizations = topSlices(byOrg, TopOrganizations)
	return s
}

func organization(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "No organization"
	}
	return name
}

// topSlices returns the n largest counts, largest first with ties by label,
// and folds the remainder into "Other".
func topSlices(counts map[string]int, n int) []Slice {
	out := make([]Slice, 0, len(counts))
	for label, count := range counts {
		out = append(out, Slice{Label: label, Count: count})
	}
	slices.SortFunc(out, func(a, b Slice) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if len(out) <= n {
		return out
	}
	other := Slice{Label: "Other"}
	for _, s := range out[n:] {
		other.Count += s.Count
	}
	return append(out[:n:n], other)
}
