package dashboard

import (
	"reflect"
	"testing"

	"github.com/keyxmakerx/mailroom/internal/backend"
)

func recipient(id, org string, tags ...string) backend.ContactRef {
	return backend.ContactRef{
		Contact:   backend.Contact{ID: id, Email: id + "@example.com", Organization: org, Tags: tags},
		Populated: true,
	}
}

func TestSummarize_Metrics(t *testing.T) {
	campaigns := []backend.Campaign{
		{
			Status:     backend.StatusCompleted,
			Recipients: []backend.ContactRef{recipient("a", "Acme", "vip", "beta"), recipient("b", "Acme", "vip")},
			Stats:      backend.CampaignStats{Sent: 3, Opened: 2},
		},
		{
			Status:     backend.StatusSending,
			Recipients: []backend.ContactRef{recipient("a", "Acme", "vip"), {Contact: backend.Contact{ID: "c"}}},
			Stats:      backend.CampaignStats{Sent: 4, Opened: 1},
		},
		{Status: backend.StatusDraft},
	}

	s := Summarize(campaigns, make([]backend.Contact, 7))

	// (66.67 + 25 + 0) / 3 = 30.56
	want := Metrics{TotalRecipients: 4, ActiveCampaigns: 1, AverageOpenRate: 31, TotalTags: 2, Contacts: 7}
	if s.Metrics != want {
		t.Errorf("metrics = %+v, want %+v", s.Metrics, want)
	}
}

func TestSummarize_NoCampaigns(t *testing.T) {
	s := Summarize(nil, nil)
	if s.AverageOpenRate != 0 || s.TotalRecipients != 0 || len(s.Organizations) != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
	if len(s.Statuses) != len(backend.Statuses) {
		t.Errorf("every status should have a bar, got %v", s.Statuses)
	}
}

func TestSummarize_StatusDistribution(t *testing.T) {
	s := Summarize([]backend.Campaign{
		{Status: backend.StatusDraft}, {Status: backend.StatusDraft}, {Status: backend.StatusFailed},
	}, nil)
	want := []Slice{{"draft", 2}, {"scheduled", 0}, {"sending", 0}, {"completed", 0}, {"failed", 1}}
	if !reflect.DeepEqual(s.Statuses, want) {
		t.Errorf("statuses = %v", s.Statuses)
	}
}

func TestSummarize_TopOrganizations(t *testing.T) {
	var recipients []backend.ContactRef
	add := func(org string, n int) {
		for i := 0; i < n; i++ {
			recipients = append(recipients, recipient(org+string(rune('0'+i)), org))
		}
	}
	add("Acme", 5)
	add("Globex", 4)
	add("Initech", 3)
	add("Umbrella", 2)
	add("Hooli", 1)
	add("", 1)

	s := Summarize([]backend.Campaign{{Recipients: recipients}, {Recipients: recipients}}, nil)
	want := []Slice{{"Acme", 5}, {"Globex", 4}, {"Initech", 3}, {"Umbrella", 2}, {"Other", 2}}
	if !reflect.DeepEqual(s.Organizations, want) {
		t.Errorf("organizations = %v, want %v", s.Organizations, want)
	}
}

func TestOpenRate(t *testing.T) {
	if OpenRate(backend.CampaignStats{}) != 0 {
		t.Error("nothing sent should be 0")
	}
	if OpenRate(backend.CampaignStats{Sent: 4, Opened: 1}) != 25 {
		t.Error("expected 25")
	}
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{Status: "archived", Search: "  spring "}.Normalize()
	if f.Status != "" || f.Search != "spring" {
		t.Errorf("got %+v", f)
	}
	if f := (Filter{Status: backend.StatusSending}).Normalize(); f.Status != backend.StatusSending {
		t.Errorf("valid status dropped: %+v", f)
	}
}
