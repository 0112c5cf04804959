// Package sse is an in-memory pub/sub hub for server-sent progress events.
// Publishers never block: a subscriber whose buffer is full misses events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// Event is one server-sent event.
type Event struct {
	Type string // "progress", "done", ...
	Data string // JSON payload
}

// JSONEvent builds an event whose data is v encoded as JSON.
func JSONEvent(typ string, v any) Event {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte("{}")
	}
	return Event{Type: typ, Data: string(data)}
}

// Hub fans events out to the subscribers of a topic.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[chan Event]struct{}
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{clients: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a listener on topic. The returned function removes it.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[chan Event]struct{})
	}
	h.clients[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients[topic], ch)
			if len(h.clients[topic]) == 0 {
				delete(h.clients, topic)
			}
			h.mu.Unlock()
		})
	}
	return ch, unsub
}

// Publish sends event to every subscriber of topic without blocking.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.Lock()
	subs := h.clients[topic]
	channels := make([]chan Event, 0, len(subs))
	for ch := range subs {
		channels = append(channels, ch)
	}
	h.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers returns how many listeners topic has.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[topic])
}

// Stream writes events for topic to the response until the client goes
// away or an event of type "done" has been written.
func (h *Hub) Stream(c echo.Context, topic string) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, unsub := h.Subscribe(topic)
	defer unsub()

	fmt.Fprint(w, ": connected\n\n")
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			w.Flush()
			if evt.Type == "done" {
				return nil
			}
		}
	}
}
