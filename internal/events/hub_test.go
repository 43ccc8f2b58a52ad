package events

import (
	"encoding/json"
	"testing"
)

func TestHubPublish(t *testing.T) {
	h := NewHub()
	a, b := h.Subscribe(), h.Subscribe()
	if h.Subscribers() != 2 {
		t.Fatalf("subscribers = %d", h.Subscribers())
	}

	h.Publish("x")
	if got := <-a; got != "x" {
		t.Errorf("a got %q", got)
	}
	if got := <-b; got != "x" {
		t.Errorf("b got %q", got)
	}

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Error("unsubscribed channel should be closed")
	}
	h.Publish("y")
	if got := <-b; got != "y" {
		t.Errorf("b got %q", got)
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	for i := 0; i < cap(ch)+5; i++ {
		h.Publish("e")
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered %d, want %d", len(ch), cap(ch))
	}
}

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", TypeRunState, 1, map[string]string{"state": "merging"})
	var e Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.Type != TypeRunState || e.RequestID != "req-1" || string(e.Data) != `{"state":"merging"}` {
		t.Errorf("event = %+v", e)
	}

	// channels cannot be marshaled; the envelope still goes out
	raw = MakeEvent("", TypeLeadsUpdated, 1, make(chan int))
	var bad Event
	if err := json.Unmarshal([]byte(raw), &bad); err != nil || bad.Data != nil {
		t.Errorf("bad data should be dropped: %s", raw)
	}
}
