package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/config"
	"github.com/keyxmakerx/mailroom/internal/flash"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
)

func newTestApp(t *testing.T) (*App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	client, err := backend.New("http://127.0.0.1:1/api")
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}

	cfg := &config.Config{
		Env:     "development",
		Backend: config.BackendConfig{PageSize: 10},
		Auth: config.AuthConfig{
			SecretKey:     "test-secret",
			OperatorEmail: "op@example.com",
			OperatorName:  "Op",
			SessionTTL:    time.Hour,
		},
		Upload: config.UploadConfig{MaxSize: 1 << 20, AllowedExtensions: []string{".csv"}},
		Wizard: config.WizardConfig{DraftTTL: time.Hour, ScheduleDays: 31},
	}
	return New(cfg, nil, rdb, client, false), mr
}

func TestHealthz(t *testing.T) {
	a, mr := newTestApp(t)

	rec := httptest.NewRecorder()
	c := a.Echo.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	if err := a.healthz(c); err != nil {
		t.Fatalf("healthz: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["database"]; ok {
		t.Error("database reported without a configured pool")
	}

	mr.Close()
	rec = httptest.NewRecorder()
	c = a.Echo.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	a.healthz(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status with Redis down = %d, want 503", rec.Code)
	}
}

func TestErrorHandler(t *testing.T) {
	a, _ := newTestApp(t)

	tests := []struct {
		name       string
		err        error
		headers    map[string]string
		wantCode   int
		wantHeader [2]string
		wantBody   string
	}{
		{
			name:     "app error renders page",
			err:      apperror.NewNotFound("Campaign not found"),
			wantCode: http.StatusNotFound,
			wantBody: "Campaign not found",
		},
		{
			name:     "echo error uses default message",
			err:      echo.NewHTTPError(http.StatusForbidden),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "unknown error hides details",
			err:      errors.New("dial tcp 10.0.0.1: refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: "An unexpected error occurred",
		},
		{
			name:       "htmx unauthorized redirects",
			err:        apperror.NewUnauthorized("sign in"),
			headers:    map[string]string{"HX-Request": "true"},
			wantCode:   http.StatusNoContent,
			wantHeader: [2]string{"HX-Redirect", "/login"},
		},
		{
			name:       "htmx error retargets body",
			err:        apperror.NewBadGateway("Failed to fetch campaigns", nil),
			headers:    map[string]string{"HX-Request": "true"},
			wantCode:   http.StatusBadGateway,
			wantHeader: [2]string{"HX-Retarget", "body"},
		},
		{
			name:       "browser unauthorized redirects",
			err:        apperror.NewUnauthorized("sign in"),
			wantCode:   http.StatusSeeOther,
			wantHeader: [2]string{"Location", "/login"},
		},
		{
			name:     "json caller gets json",
			err:      apperror.NewConflict("Only draft campaigns can be deleted"),
			headers:  map[string]string{"Accept": "application/json"},
			wantCode: http.StatusConflict,
			wantBody: `"message":"Only draft campaigns can be deleted"`,
		},
		{
			name:     "event stream gets bare status",
			err:      apperror.NewNotFound("gone"),
			headers:  map[string]string{"Accept": "text/event-stream"},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/campaigns/x", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			a.errorHandler(tt.err, a.Echo.NewContext(req, rec))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantHeader[0] != "" && rec.Header().Get(tt.wantHeader[0]) != tt.wantHeader[1] {
				t.Errorf("%s = %q, want %q", tt.wantHeader[0], rec.Header().Get(tt.wantHeader[0]), tt.wantHeader[1])
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
			if strings.Contains(rec.Body.String(), "10.0.0.1") {
				t.Error("internal error detail leaked")
			}
		})
	}
}

func TestRoutes_RequireSession(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.RegisterRoutes(); err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}

	for _, path := range []string{"/", "/campaigns", "/campaigns/new", "/templates", "/contacts", "/send", "/activity"} {
		rec := httptest.NewRecorder()
		a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Errorf("GET %s = %d %q, want redirect to /login", path, rec.Code, rec.Header().Get("Location"))
		}
	}

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /login = %d, want 200", rec.Code)
	}
}

func TestFlasher_FallsBackWithoutSession(t *testing.T) {
	newTestApp(t)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/logout", nil), httptest.NewRecorder())
	layouts.Flash(c, flash.Success, "Signed out")

	got := layouts.Notices(c)
	if len(got) != 1 || got[0].Message != "Signed out" {
		t.Errorf("notices = %+v, want the notice on this response", got)
	}
}

func TestIsImportUpload(t *testing.T) {
	e := echo.New()
	tests := []struct {
		method, path string
		want         bool
	}{
		{http.MethodPost, "/contacts/import", true},
		{http.MethodGet, "/contacts/import", false},
		{http.MethodPost, "/contacts", false},
		{http.MethodPost, "/templates", false},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(tt.method, tt.path, nil), httptest.NewRecorder())
		c.SetPath(tt.path)
		if got := isImportUpload(c); got != tt.want {
			t.Errorf("%s %s: got %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}
