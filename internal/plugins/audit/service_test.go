package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
)

// mockAuditRepo implements AuditRepository for testing.
type mockAuditRepo struct {
	logFn  func(ctx context.Context, entry *Entry) error
	listFn func(ctx context.Context, filter ListFilter, limit, offset int) ([]Entry, int, error)
}

func (m *mockAuditRepo) Log(ctx context.Context, entry *Entry) error {
	if m.logFn != nil {
		return m.logFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Entry, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, limit, offset)
	}
	return nil, 0, nil
}

func TestLog_Validates(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{})

	tests := []struct {
		name  string
		entry Entry
	}{
		{"missing operator", Entry{Action: ActionCampaignExecuted, ResourceType: ResourceCampaign}},
		{"missing action", Entry{Operator: "op@example.com", ResourceType: ResourceCampaign}},
		{"unknown resource", Entry{Operator: "op@example.com", Action: "x.y", ResourceType: "widget"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Log(context.Background(), &tt.entry)
			if apperror.SafeCode(err) != http.StatusBadRequest {
				t.Errorf("expected 400, got %v", err)
			}
		})
	}
}

func TestLog_RepoFailureIsInternal(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{
		logFn: func(ctx context.Context, entry *Entry) error { return errors.New("db down") },
	})

	err := svc.Log(context.Background(), &Entry{Operator: "op", Action: ActionTemplateCreated, ResourceType: ResourceTemplate})
	if apperror.SafeCode(err) != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err)
	}
}

func TestDisabledService(t *testing.T) {
	svc := NewAuditService(nil)
	if svc.Enabled() {
		t.Fatal("expected disabled service")
	}
	if err := svc.Log(context.Background(), &Entry{}); err != nil {
		t.Errorf("disabled Log should be a no-op, got %v", err)
	}
	entries, total, err := svc.Activity(context.Background(), ListFilter{}, 1)
	if err != nil || total != 0 || len(entries) != 0 {
		t.Errorf("disabled Activity: %v %d %v", entries, total, err)
	}
}

func TestActivity_Pagination(t *testing.T) {
	var gotLimit, gotOffset int
	svc := NewAuditService(&mockAuditRepo{
		listFn: func(ctx context.Context, filter ListFilter, limit, offset int) ([]Entry, int, error) {
			gotLimit, gotOffset = limit, offset
			return []Entry{{ID: 1}}, 120, nil
		},
	})

	_, total, err := svc.Activity(context.Background(), ListFilter{}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if total != 120 || gotLimit != PerPage || gotOffset != 2*PerPage {
		t.Errorf("got total=%d limit=%d offset=%d", total, gotLimit, gotOffset)
	}

	if _, _, err := svc.Activity(context.Background(), ListFilter{}, -4); err != nil {
		t.Fatal(err)
	}
	if gotOffset != 0 {
		t.Errorf("negative page should clamp to 1, offset=%d", gotOffset)
	}

	_, _, err = svc.Activity(context.Background(), ListFilter{ResourceType: "bogus"}, 1)
	if apperror.SafeCode(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown filter, got %v", err)
	}
}

func TestRecord_FillsRequestMetadata(t *testing.T) {
	var got *Entry
	svc := NewAuditService(&mockAuditRepo{
		logFn: func(ctx context.Context, entry *Entry) error { got = entry; return nil },
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/campaigns/c1/execute", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	req = req.WithContext(backend.WithOperator(req.Context(), "op@example.com"))
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("request_id", "req-1")

	Record(c, svc, ActionCampaignExecuted, ResourceCampaign, "c1", "Spring launch", map[string]any{"sent": 3})

	if got == nil {
		t.Fatal("expected an entry to be logged")
	}
	if got.Operator != "op@example.com" || got.RemoteIP != "198.51.100.7" || got.RequestID != "req-1" {
		t.Errorf("unexpected metadata: %+v", got)
	}
	if got.ResourceName != "Spring launch" || got.Details["sent"] != 3 {
		t.Errorf("unexpected entry: %+v", got)
	}
}

func TestDetailsText(t *testing.T) {
	got := detailsText(map[string]any{"imported": 4, "duplicates": 1})
	if got != "duplicates=1, imported=4" {
		t.Errorf("got %q", got)
	}
}
