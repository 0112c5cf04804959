package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// newTestClient starts an httptest server with handler and returns a client
// pointed at its /api root.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)
	c, err := New(srv.URL+"/api", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	if _, err := New("/api"); err == nil {
		t.Fatal("expected error for relative base URL")
	}
}

func TestCampaignsCreate_MapsTemplateID(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/campaigns" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"_id":"k1","name":"Q1 Launch","template":"t1","recipients":["c1","c2"],"status":"draft","scheduledDate":"2024-03-01T00:00:00.000Z"}`)
	})

	campaign, err := c.Campaigns.Create(context.Background(), CreateCampaignInput{
		Name:          "Q1 Launch",
		TemplateID:    "t1",
		Recipients:    []string{"c1", "c2"},
		ScheduledDate: "2024-03-01",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got["template"] != "t1" {
		t.Errorf("expected template=t1, got %v", got["template"])
	}
	if _, ok := got["templateId"]; ok {
		t.Error("templateId must not be sent on create")
	}
	if got["name"] != "Q1 Launch" || got["scheduledDate"] != "2024-03-01" {
		t.Errorf("unexpected payload %v", got)
	}
	recipients, _ := got["recipients"].([]any)
	if len(recipients) != 2 || recipients[0] != "c1" || recipients[1] != "c2" {
		t.Errorf("unexpected recipients %v", got["recipients"])
	}

	if campaign.ID != "k1" || campaign.Template.ID != "t1" || campaign.Template.Populated {
		t.Errorf("unexpected campaign %+v", campaign)
	}
	if campaign.ScheduledDate == nil || campaign.ScheduledDate.String() != "2024-03-01" {
		t.Errorf("unexpected scheduled date %v", campaign.ScheduledDate)
	}
}

func TestCampaignsCreate_NullDateWhenUnscheduled(t *testing.T) {
	var raw map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		io.WriteString(w, `{"campaign":{"_id":"k2","status":"draft"}}`)
	})

	campaign, err := c.Campaigns.Create(context.Background(), CreateCampaignInput{
		Name: "Later", TemplateID: "t1", Recipients: []string{"c1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if string(raw["scheduledDate"]) != "null" {
		t.Errorf("expected scheduledDate null, got %s", raw["scheduledDate"])
	}
	if campaign.ID != "k2" {
		t.Errorf("expected envelope to be unwrapped, got %+v", campaign)
	}
}

func TestCampaignsUpdate_Payload(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/campaigns/k1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"_id":"k1","status":"draft"}`)
	})

	_, err := c.Campaigns.Update(context.Background(), "k1", UpdateCampaignInput{
		Name: "Renamed", TemplateID: "t2", RecipientTags: []string{"vip"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got["templateId"] != "t2" || got["name"] != "Renamed" {
		t.Errorf("unexpected payload %v", got)
	}
	if _, ok := got["scheduledDate"]; ok {
		t.Error("empty scheduledDate should be omitted on update")
	}
}

func TestNoContentReplyIsSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	campaign, err := c.Campaigns.Update(context.Background(), "k1", UpdateCampaignInput{Name: "x", TemplateID: "t1"})
	if err != nil {
		t.Fatalf("Campaigns.Update: %v", err)
	}
	if campaign == nil {
		t.Error("Campaigns.Update returned nil campaign")
	}

	contact, err := c.Contacts.Create(context.Background(), ContactInput{Email: "a@x.io", Name: "A"})
	if err != nil {
		t.Fatalf("Contacts.Create: %v", err)
	}
	if contact == nil {
		t.Error("Contacts.Create returned nil contact")
	}
}

func TestCampaignsUpdate_NonDraftIsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"Can only update draft campaigns"}`)
	})

	_, err := c.Campaigns.Update(context.Background(), "k1", UpdateCampaignInput{Name: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Can only update draft campaigns" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if !IsStatus(err, http.StatusBadRequest) {
		t.Error("IsStatus should match 400")
	}
}

func TestAPIError_FallsBackToErrorField(t *testing.T) {
	e := newAPIError(http.StatusNotFound, []byte(`{"error":"Template not found"}`))
	if e.UserMessage() != "Template not found" {
		t.Errorf("unexpected message %q", e.UserMessage())
	}
	e = newAPIError(http.StatusBadGateway, []byte(`<html>bad gateway</html>`))
	if e.UserMessage() != "" {
		t.Errorf("expected empty message for non-JSON body, got %q", e.UserMessage())
	}
	if !strings.Contains(e.Error(), "502") {
		t.Errorf("expected status in error string, got %q", e.Error())
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url + "/api")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Templates.List(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("transport failure must not be reported as an API error")
	}
}

func TestContextCancellationAbortsCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Campaigns.List(ctx, CampaignListOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestContactsList_QueryAndNormalisation(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{"contacts":[{"_id":"c1","email":"a@acme.io","name":"Ann","tags":["vip"]}],"totalPages":1,"currentPage":1,"total":1}`)
	})

	page, err := c.Contacts.List(context.Background(), ContactListOptions{Page: 1, Limit: 10, Search: "acme"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotQuery != "limit=10&page=1&search=acme" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(page.Items) != 1 || page.Items[0].Email != "a@acme.io" {
		t.Errorf("unexpected items %+v", page.Items)
	}
	if page.Page != 1 || page.TotalPages != 1 || page.Total != 1 {
		t.Errorf("unexpected counters %+v", page)
	}
}

func TestCampaignsList_IncludeRecipients(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{"campaigns":[{"_id":"k1","status":"sending","template":{"_id":"t1","name":"Welcome"},
			"recipients":[{"_id":"c1","email":"a@x.io","organization":"Acme","tags":["a"]},"c2"],
			"stats":{"sent":10,"opened":4}}],"pagination":{"page":1,"pages":3,"total":21}}`)
	})

	page, err := c.Campaigns.List(context.Background(), CampaignListOptions{Status: StatusSending, IncludeRecipients: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotQuery != "include=recipients&status=sending" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if page.TotalPages != 3 || page.Total != 21 {
		t.Errorf("unexpected counters %+v", page)
	}
	k := page.Items[0]
	if !k.Template.Populated || k.Template.Name != "Welcome" {
		t.Errorf("expected populated template, got %+v", k.Template)
	}
	if len(k.Recipients) != 2 || !k.Recipients[0].Populated || k.Recipients[0].Organization != "Acme" {
		t.Errorf("unexpected recipients %+v", k.Recipients)
	}
	if k.Recipients[1].Populated || k.Recipients[1].ID != "c2" {
		t.Errorf("expected bare id reference, got %+v", k.Recipients[1])
	}
}

func TestHeaders_RequestIDAndBearer(t *testing.T) {
	const secret = "shared-secret"
	var gotID, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `[]`)
	}, WithJWTSecret(secret))

	ctx := WithOperator(WithRequestID(context.Background(), "req-123"), "op@example.com")
	if _, err := c.Templates.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}

	if gotID != "req-123" {
		t.Errorf("expected inbound request id, got %q", gotID)
	}
	if !strings.HasPrefix(gotAuth, "Bearer ") {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(gotAuth, "Bearer "), claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parsing token: %v", err)
	}
	if claims.Subject != "op@example.com" {
		t.Errorf("unexpected subject %q", claims.Subject)
	}
}

func TestHeaders_GeneratesRequestID(t *testing.T) {
	var gotID, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `[]`)
	})

	if _, err := c.Templates.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(gotID) != 36 {
		t.Errorf("expected a generated UUID, got %q", gotID)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header without a secret, got %q", gotAuth)
	}
}

func TestContactsUpload_MultipartAndProgress(t *testing.T) {
	var gotName, gotContent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/contacts/upload" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("reading form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName, gotContent = header.Filename, string(data)
		io.WriteString(w, `{"imported":2,"duplicates":1,"errors":["row 4: invalid email",{"row":5,"error":"missing name"}]}`)
	})

	var mu sync.Mutex
	var last, total int64
	progress := func(sent, t int64) {
		mu.Lock()
		defer mu.Unlock()
		last, total = sent, t
	}

	result, err := c.Contacts.Upload(context.Background(), "people.csv",
		strings.NewReader("email,name\na@x.io,A\nb@x.io,B\n"), progress)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotName != "people.csv" || !strings.HasPrefix(gotContent, "email,name") {
		t.Errorf("unexpected upload %q %q", gotName, gotContent)
	}
	if result.Imported != 2 || result.Duplicates != 1 || len(result.Errors) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Errors[0].Message != "row 4: invalid email" || result.Errors[1].Row != 5 || result.Errors[1].Message != "missing name" {
		t.Errorf("unexpected row errors %+v", result.Errors)
	}

	mu.Lock()
	defer mu.Unlock()
	if total == 0 || last != total {
		t.Errorf("expected progress to reach total, got %d/%d", last, total)
	}
}

func TestEmailsSendBulk(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/emails/send-bulk" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"results":{"successful":["a@x.io",{"email":"b@x.io"}],"failed":[{"recipient":"c@x.io","error":"bounced"}]}}`)
	})

	res, err := c.Emails.SendBulk(context.Background(), BulkSendInput{
		TemplateID: "t1",
		Recipients: []string{"a@x.io", "b@x.io", "c@x.io"},
	})
	if err != nil {
		t.Fatalf("SendBulk: %v", err)
	}
	if _, ok := got["customVariables"].(map[string]any); !ok {
		t.Errorf("expected customVariables object, got %v", got["customVariables"])
	}
	if len(res.Results.Successful) != 2 || len(res.Results.Failed) != 1 {
		t.Fatalf("unexpected results %+v", res.Results)
	}
	if res.Results.Failed[0].Email != "c@x.io" || res.Results.Failed[0].Error != "bounced" {
		t.Errorf("unexpected failure %+v", res.Results.Failed[0])
	}
}

// fakeTemplateStore is a tiny in-memory /templates backend.
type fakeTemplateStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

func (f *fakeTemplateStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/templates":
		var doc map[string]any
		json.NewDecoder(r.Body).Decode(&doc)
		doc["_id"] = "t-new"
		data, _ := json.Marshal(doc)
		f.docs["t-new"] = data
		w.WriteHeader(http.StatusCreated)
		w.Write(data)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/templates/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/templates/")
		data, ok := f.docs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"Template not found"}`)
			return
		}
		io.WriteString(w, `{"template":`)
		w.Write(data)
		io.WriteString(w, `}`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestTemplates_RoundTripKeepsVariablesAndBody(t *testing.T) {
	store := &fakeTemplateStore{docs: map[string]json.RawMessage{}}
	c := newTestClient(t, store.ServeHTTP)

	body := "Dear {{recipientName}},\n\nWelcome from {{organization}}."
	created, err := c.Templates.Create(context.Background(), TemplateInput{
		Name:      "Welcome",
		Subject:   "Hello there",
		Content:   body,
		Category:  CategoryGeneral,
		Variables: []string{"recipientName", "organization"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	fetched, err := c.Templates.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Content != body {
		t.Errorf("body changed: %q", fetched.Content)
	}
	if len(fetched.Variables) != 2 || fetched.Variables[0] != "recipientName" || fetched.Variables[1] != "organization" {
		t.Errorf("variables changed: %v", fetched.Variables)
	}

	_, err = c.Templates.Get(context.Background(), "missing")
	if !IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected 404 APIError, got %v", err)
	}
}
