package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestPublish_DeliversToTopicOnly(t *testing.T) {
	h := New()
	a, unsubA := h.Subscribe("send:1")
	defer unsubA()
	b, unsubB := h.Subscribe("send:2")
	defer unsubB()

	h.Publish("send:1", Event{Type: "progress", Data: `{"percent":2}`})

	select {
	case evt := <-a:
		if evt.Data != `{"percent":2}` {
			t.Errorf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}
	select {
	case evt := <-b:
		t.Errorf("other topic received %+v", evt)
	default:
	}
}

func TestPublish_SkipsFullSubscriber(t *testing.T) {
	h := New()
	_, unsub := h.Subscribe("t")
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish("t", Event{Type: "progress"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestUnsubscribe_RemovesTopic(t *testing.T) {
	h := New()
	_, unsub := h.Subscribe("t")
	if h.Subscribers("t") != 1 {
		t.Fatal("expected one subscriber")
	}
	unsub()
	unsub()
	if h.Subscribers("t") != 0 {
		t.Error("expected topic to be removed")
	}
}

func TestJSONEvent(t *testing.T) {
	evt := JSONEvent("progress", map[string]int{"percent": 42})
	if evt.Type != "progress" || evt.Data != `{"percent":42}` {
		t.Errorf("unexpected event %+v", evt)
	}
}

func TestStream_WritesUntilDone(t *testing.T) {
	h := New()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	go func() {
		for h.Subscribers("job") == 0 {
			time.Sleep(time.Millisecond)
		}
		h.Publish("job", JSONEvent("progress", map[string]int{"percent": 50}))
		h.Publish("job", JSONEvent("done", map[string]int{"percent": 100}))
	}()

	if err := h.Stream(c, "job"); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: progress\ndata: {\"percent\":50}\n\n") {
		t.Errorf("missing progress event in %q", body)
	}
	if !strings.Contains(body, "event: done") {
		t.Errorf("missing done event in %q", body)
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}
