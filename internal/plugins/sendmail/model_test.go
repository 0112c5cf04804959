package sendmail

import (
	"reflect"
	"testing"

	"github.com/keyxmakerx/mailroom/internal/backend"
)

func TestCustomVariables_TrimsAndDropsBlanks(t *testing.T) {
	rows := Rows(
		[]string{" company ", "", "sender", "empty", "company"},
		[]string{"Acme", "orphan", " Alex ", "   "},
	)
	got := CustomVariables(rows)
	want := map[string]string{"company": "Acme", "sender": "Alex"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelection(t *testing.T) {
	contacts := []backend.Contact{
		{ID: "1", Email: "a@example.com"},
		{ID: "2", Email: "b@example.com"},
		{ID: "3", Email: "c@example.com"},
	}
	tests := []struct {
		name      string
		selected  []string
		selectAll bool
		want      []string
		wantAll   bool
	}{
		{"select all", nil, true, []string{"a@example.com", "b@example.com", "c@example.com"}, true},
		{"none", nil, false, []string{}, false},
		{"subset in contact order", []string{"c@example.com", "a@example.com"}, false, []string{"a@example.com", "c@example.com"}, false},
		{"every box ticked sets select all", []string{"a@example.com", "b@example.com", "c@example.com"}, false, []string{"a@example.com", "b@example.com", "c@example.com"}, true},
		{"duplicates and unknown addresses dropped", []string{"b@example.com", "b@example.com", "x@example.com"}, false, []string{"b@example.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, all := Selection(contacts, tt.selected, tt.selectAll)
			if !reflect.DeepEqual(got, tt.want) || all != tt.wantAll {
				t.Errorf("got %v all=%v, want %v all=%v", got, all, tt.want, tt.wantAll)
			}
		})
	}
}

func TestSelection_NoContacts(t *testing.T) {
	got, all := Selection(nil, []string{"a@example.com"}, true)
	if len(got) != 0 || all {
		t.Errorf("got %v all=%v", got, all)
	}
}

func TestBulkOutcome(t *testing.T) {
	var r backend.BulkSendResult
	r.Results.Successful = []backend.SendOutcome{{Email: "a@example.com"}, {Email: "b@example.com"}}

	o := BulkOutcome(&r)
	if o.Message != "Successfully sent to 2 recipient(s)" || o.Warning {
		t.Errorf("unexpected outcome %+v", o)
	}

	r.Results.Failed = []backend.SendOutcome{{Email: "c@example.com", Error: "bounced"}}
	o = BulkOutcome(&r)
	if o.Message != "Successfully sent to 2 recipient(s). Failed: 1" || !o.Warning {
		t.Errorf("unexpected outcome %+v", o)
	}
}
