package contacts

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/sse"
)

func newImportRequest(t *testing.T, job, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("job", job); err != nil {
		t.Fatal(err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(part, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/contacts/import", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set("HX-Request", "true")
	return req
}

func serveImport(t *testing.T, store ContactStore, hub *sse.Hub, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(newTestService(store), nil, hub, testLimits)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if err := h.Import(c); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return rec
}

func TestImportHandler_RejectsWrongTypeWithoutUpload(t *testing.T) {
	uploads := 0
	store := &mockContactStore{
		uploadFn: func(ctx context.Context, filename string, file io.Reader, progress backend.ProgressFunc) (*backend.ImportResult, error) {
			uploads++
			return &backend.ImportResult{}, nil
		},
	}

	rec := serveImport(t, store, sse.New(), newImportRequest(t, uuid.NewString(), "people.txt", "email\n"))

	if uploads != 0 {
		t.Errorf("expected no upload, got %d", uploads)
	}
	if rec.Header().Get("HX-Redirect") != "" {
		t.Error("rejected file must not refresh the list")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid file type") || !strings.Contains(body, "Retry upload") {
		t.Errorf("expected retry form with error, got %s", body)
	}
}

func TestImportHandler_OversizedBodyKeepsDialog(t *testing.T) {
	uploads := 0
	store := &mockContactStore{
		uploadFn: func(ctx context.Context, filename string, file io.Reader, progress backend.ProgressFunc) (*backend.ImportResult, error) {
			uploads++
			return &backend.ImportResult{}, nil
		},
	}

	limits := ImportLimits{MaxSize: 64, Extensions: testLimits.Extensions}
	h := NewHandler(NewContactService(store, nil, 10, limits), nil, sse.New(), limits)
	e := echo.New()
	e.POST("/contacts/import", h.Import, middleware.UploadLimit(limits.MaxSize+32, func(echo.Context) bool { return true }))

	req := newImportRequest(t, uuid.NewString(), "people.csv", "email\n"+strings.Repeat("a@x.io\n", 100))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if uploads != 0 {
		t.Errorf("expected no upload, got %d", uploads)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "File too large") || !strings.Contains(body, "Retry upload") {
		t.Errorf("expected retry form with size error, got %s", body)
	}
}

func TestImportHandler_PartialSuccessRefreshes(t *testing.T) {
	store := &mockContactStore{
		uploadFn: func(ctx context.Context, filename string, file io.Reader, progress backend.ProgressFunc) (*backend.ImportResult, error) {
			data, _ := io.ReadAll(file)
			progress(int64(len(data)), int64(len(data)))
			return &backend.ImportResult{Imported: 2, Errors: []backend.ImportError{{Message: "bad row"}}}, nil
		},
	}
	hub := sse.New()
	job := uuid.NewString()
	events, unsub := hub.Subscribe(importTopic(job))
	defer unsub()

	rec := serveImport(t, store, hub, newImportRequest(t, job, "people.csv", "email\na@b.co\nc@d.co\n"))

	if got := rec.Header().Get("HX-Redirect"); got != "/contacts" {
		t.Errorf("HX-Redirect = %q, want /contacts", got)
	}

	var types []string
	var last string
	for len(events) > 0 {
		evt := <-events
		types = append(types, evt.Type)
		last = evt.Data
	}
	if len(types) < 2 || types[len(types)-1] != "done" {
		t.Fatalf("expected stream to end with done, got %v", types)
	}
	if last != `{"percent":100}` {
		t.Errorf("final event data = %s", last)
	}
}

func TestImportHandler_TotalFailureKeepsDialog(t *testing.T) {
	store := &mockContactStore{
		uploadFn: func(ctx context.Context, filename string, file io.Reader, progress backend.ProgressFunc) (*backend.ImportResult, error) {
			return &backend.ImportResult{Errors: []backend.ImportError{{Message: "x"}, {Message: "y"}}}, nil
		},
	}

	rec := serveImport(t, store, sse.New(), newImportRequest(t, uuid.NewString(), "people.csv", "email\n"))

	if rec.Header().Get("HX-Redirect") != "" {
		t.Error("total failure must not refresh the list")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Imported: 0, Errors: 2") {
		t.Errorf("expected summary in response, got %s", body)
	}
	if !strings.Contains(body, `hx-swap-oob="beforeend"`) {
		t.Error("expected the notice as an out-of-band toast")
	}
}

func TestIndex_SearchResetsToFirstPage(t *testing.T) {
	var got backend.ContactListOptions
	store := &mockContactStore{
		listFn: func(ctx context.Context, opts backend.ContactListOptions) (backend.Page[backend.Contact], error) {
			got = opts
			return backend.Page[backend.Contact]{Page: opts.Page, TotalPages: 3}, nil
		},
	}
	h := NewHandler(newTestService(store), nil, sse.New(), testLimits)

	req := httptest.NewRequest(http.MethodGet, "/contacts?search=acme", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	if err := h.Index(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("Index: %v", err)
	}

	if got.Page != 1 || got.Search != "acme" {
		t.Errorf("expected page=1&search=acme, got %+v", got)
	}
	if !strings.Contains(rec.Body.String(), "search=acme") {
		t.Error("pagination links should keep the search term")
	}
}
