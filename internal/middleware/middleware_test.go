package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testCSRFKey = []byte("0123456789abcdef0123456789abcdef")

func newCSRFServer() *echo.Echo {
	e := echo.New()
	e.Use(CSRF(CSRFConfig{Key: testCSRFKey}))
	e.GET("/form", func(c echo.Context) error {
		return c.String(http.StatusOK, GetCSRFToken(c))
	})
	e.POST("/form", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	e := newCSRFServer()

	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestCSRF_AcceptsHeaderToken(t *testing.T) {
	e := newCSRFServer()

	getReq := httptest.NewRequest(http.MethodGet, "/form", nil)
	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", getRec.Code)
	}
	token := getRec.Body.String()
	if token == "" {
		t.Fatal("expected a token in the Echo context")
	}

	postReq := httptest.NewRequest(http.MethodPost, "/form", nil)
	postReq.Header.Set("X-CSRF-Token", token)
	for _, ck := range getRec.Result().Cookies() {
		postReq.AddCookie(ck)
	}
	postRec := httptest.NewRecorder()
	e.ServeHTTP(postRec, postReq)

	if postRec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", postRec.Code, postRec.Body.String())
	}
}

func TestCSRF_AcceptsFormField(t *testing.T) {
	e := newCSRFServer()

	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/form", nil))
	token := getRec.Body.String()

	body := strings.NewReader("csrf_token=" + url.QueryEscape(token))
	postReq := httptest.NewRequest(http.MethodPost, "/form", body)
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range getRec.Result().Cookies() {
		postReq.AddCookie(ck)
	}
	postRec := httptest.NewRecorder()
	e.ServeHTTP(postRec, postReq)

	if postRec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", postRec.Code)
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("third request within the window should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("a different IP has its own bucket")
	}

	// One token refills every window/maxRequests.
	fixed = fixed.Add(30 * time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Error("expected a token after the refill interval")
	}
}

func TestRateLimiter_SweepDropsIdle(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	rl.Allow("1.1.1.1")
	fixed = fixed.Add(3 * time.Minute)
	rl.Allow("2.2.2.2")
	rl.sweep()

	if _, ok := rl.visitors["1.1.1.1"]; ok {
		t.Error("idle visitor should have been swept")
	}
	if _, ok := rl.visitors["2.2.2.2"]; !ok {
		t.Error("active visitor should be kept")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, rl.Middleware())

	codes := make([]int, 0, 2)
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("expected [200 429], got %v", codes)
	}
}

type ctxKey struct{}

func TestRequestID(t *testing.T) {
	var seen string
	inject := func(ctx context.Context, id string) context.Context {
		return context.WithValue(ctx, ctxKey{}, id)
	}

	e := echo.New()
	e.Use(RequestID(inject))
	e.GET("/", func(c echo.Context) error {
		seen, _ = c.Request().Context().Value(ctxKey{}).(string)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if seen != "abc-123" {
		t.Errorf("expected inbound id in context, got %q", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected id echoed, got %q", got)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("expected a generated UUID, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestIPExtractor(t *testing.T) {
	extract := buildIPExtractor([]string{"10.0.0.0/8", "not-a-cidr"})

	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"untrusted peer ignores headers", "198.51.100.1:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "198.51.100.1"},
		{"trusted peer uses X-Real-IP", "10.1.2.3:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted peer uses leftmost XFF", "10.1.2.3:1234", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "5.6.7.8"},
		{"trusted peer without headers", "10.1.2.3:1234", nil, "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := extract(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedirect(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	if err := Redirect(e.NewContext(req, rec), "/campaigns"); err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get("HX-Redirect") != "/campaigns" || rec.Code != http.StatusNoContent {
		t.Errorf("HTMX redirect: got %d %q", rec.Code, rec.Header().Get("HX-Redirect"))
	}

	rec = httptest.NewRecorder()
	if err := Redirect(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec), "/campaigns"); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/campaigns" {
		t.Errorf("plain redirect: got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestUploadLimit(t *testing.T) {
	e := echo.New()
	e.Use(UploadLimit(16, func(c echo.Context) bool { return c.Path() == "/upload" }))
	handler := func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		if Oversized(c, err) {
			return c.String(http.StatusOK, "too large")
		}
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, "ok")
	}
	e.POST("/upload", handler)
	e.POST("/other", handler)

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"within limit", "/upload", "small", "ok"},
		{"declared length over limit", "/upload", strings.Repeat("x", 64), "too large"},
		{"unmatched route untouched", "/other", strings.Repeat("x", 64), "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK || rec.Body.String() != tt.want {
				t.Errorf("got %d %q, want 200 %q", rec.Code, rec.Body.String(), tt.want)
			}
		})
	}

	t.Run("unknown length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", io.NopCloser(strings.NewReader(strings.Repeat("x", 64))))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Body.String() != "too large" {
			t.Errorf("got %q, want %q", rec.Body.String(), "too large")
		}
	})
}
