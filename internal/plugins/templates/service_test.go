package templates

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/cache"
)

// mockTemplateStore implements TemplateStore for testing.
type mockTemplateStore struct {
	listFn   func(ctx context.Context) ([]backend.Template, error)
	getFn    func(ctx context.Context, id string) (*backend.Template, error)
	createFn func(ctx context.Context, in backend.TemplateInput) (*backend.Template, error)
	updateFn func(ctx context.Context, id string, in backend.TemplateInput) (*backend.Template, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockTemplateStore) List(ctx context.Context) ([]backend.Template, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockTemplateStore) Get(ctx context.Context, id string) (*backend.Template, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &backend.Template{ID: id}, nil
}

func (m *mockTemplateStore) Create(ctx context.Context, in backend.TemplateInput) (*backend.Template, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &backend.Template{ID: "t1", Name: in.Name}, nil
}

func (m *mockTemplateStore) Update(ctx context.Context, id string, in backend.TemplateInput) (*backend.Template, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &backend.Template{ID: id, Name: in.Name}, nil
}

func (m *mockTemplateStore) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func validForm() TemplateForm {
	return TemplateForm{
		Name:      "Welcome",
		Subject:   "Hello {{recipientName}}",
		Content:   "Dear {{recipientName}}, welcome aboard.",
		Category:  backend.CategoryGeneral,
		Variables: "recipientName",
	}
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.New(rdb, time.Minute)
}

func TestCreate_ValidationMessages(t *testing.T) {
	called := false
	svc := NewTemplateService(&mockTemplateStore{
		createFn: func(ctx context.Context, in backend.TemplateInput) (*backend.Template, error) {
			called = true
			return nil, nil
		},
	}, nil)

	_, err := svc.Create(context.Background(), TemplateForm{
		Name:     "  ab ",
		Subject:  "Hi",
		Content:  "short",
		Category: "spam",
	})
	if !apperror.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Error("backend must not be called for invalid input")
	}

	want := apperror.FieldErrors{
		"name":     "Name must be at least 3 characters",
		"subject":  "Subject must be at least 3 characters",
		"content":  "Content must be at least 10 characters",
		"category": "Please select a category",
	}
	got := apperror.FieldsOf(err)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("field errors = %v, want %v", got, want)
	}
}

func TestCreate_NormalizesPayload(t *testing.T) {
	var sent backend.TemplateInput
	svc := NewTemplateService(&mockTemplateStore{
		createFn: func(ctx context.Context, in backend.TemplateInput) (*backend.Template, error) {
			sent = in
			return &backend.Template{ID: "t1", Name: in.Name}, nil
		},
	}, nil)

	form := TemplateForm{
		Name:      "  Welcome  ",
		Subject:   "Hi ${ recipientName }",
		Content:   "Dear ${recipientName}, from {{organization}}.",
		Category:  backend.CategoryNewsletter,
		Variables: " recipientName, {{organization}},, recipientName ,${senderName}",
	}
	if _, err := svc.Create(context.Background(), form); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if sent.Name != "Welcome" {
		t.Errorf("name not trimmed: %q", sent.Name)
	}
	if sent.Subject != "Hi {{recipientName}}" {
		t.Errorf("subject = %q", sent.Subject)
	}
	if sent.Content != "Dear {{recipientName}}, from {{organization}}." {
		t.Errorf("content = %q", sent.Content)
	}
	wantVars := []string{"recipientName", "organization", "senderName"}
	if !reflect.DeepEqual(sent.Variables, wantVars) {
		t.Errorf("variables = %v, want %v", sent.Variables, wantVars)
	}
}

func TestFormFor_RoundTripsVariables(t *testing.T) {
	tpl := &backend.Template{
		Name:      "Welcome",
		Subject:   "Hello",
		Content:   DefaultContent,
		Category:  backend.CategoryGeneral,
		Variables: []string{"a", "b", "c"},
	}
	form := FormFor(tpl)
	in, err := toInput(form)
	if err != nil {
		t.Fatalf("toInput: %v", err)
	}
	if !reflect.DeepEqual(in.Variables, tpl.Variables) {
		t.Errorf("variables = %v, want %v", in.Variables, tpl.Variables)
	}
	if in.Content != tpl.Content {
		t.Error("content changed on round trip")
	}
}

func TestNewForm_Defaults(t *testing.T) {
	form := NewForm()
	if form.Category != backend.CategoryGeneral {
		t.Errorf("category = %q", form.Category)
	}
	if got := ParseVariables(form.Variables); !reflect.DeepEqual(got, DefaultVariables) {
		t.Errorf("variables = %v", got)
	}
	if !strings.HasPrefix(form.Content, "Dear {{recipientName}},") {
		t.Errorf("unexpected default body %q", form.Content)
	}
}

func TestList_CachedUntilMutation(t *testing.T) {
	calls := 0
	svc := NewTemplateService(&mockTemplateStore{
		listFn: func(ctx context.Context) ([]backend.Template, error) {
			calls++
			return []backend.Template{{ID: "t1", Name: "Welcome"}}, nil
		},
	}, newTestCache(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.List(ctx); err != nil {
			t.Fatalf("List: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 backend list, got %d", calls)
	}

	if err := svc.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected refetch after delete, got %d lists", calls)
	}
}

func TestList_BackendFailureIsBadGateway(t *testing.T) {
	svc := NewTemplateService(&mockTemplateStore{
		listFn: func(ctx context.Context) ([]backend.Template, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}, nil)

	_, err := svc.List(context.Background())
	if apperror.SafeCode(err) != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
	if apperror.SafeMessage(err) != "Failed to load templates" {
		t.Errorf("message = %q", apperror.SafeMessage(err))
	}
}

func TestPreview_SampleValuesAndOverrides(t *testing.T) {
	svc := NewTemplateService(&mockTemplateStore{}, nil)

	got := svc.Preview("Hi {{recipientName}} of {{organization}} {{unknown}}", map[string]string{
		"organization":  "Globex",
		"recipientName": "",
	})
	if !strings.Contains(got, "Hi Jane Doe of Globex {{unknown}}") {
		t.Errorf("preview = %q", got)
	}
}

func TestPreview_Sanitizes(t *testing.T) {
	svc := NewTemplateService(&mockTemplateStore{}, nil)
	got := svc.Preview(`<p>Hi {{recipientName}}</p><script>alert(1)</script>`, nil)
	if strings.Contains(got, "<script") {
		t.Errorf("script survived: %q", got)
	}
	if !strings.Contains(got, "Jane Doe") {
		t.Errorf("missing substitution: %q", got)
	}
}
