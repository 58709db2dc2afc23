package server

import (
	"sync"

	"github.com/jonathan/job-autopilot/internal/pipeline"
)

// Hub fans run progress events out to SSE subscribers. Subscriptions are
// keyed by run id; events published before a client subscribes are not
// replayed.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan pipeline.ProgressEvent]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan pipeline.ProgressEvent]struct{})}
}

// Publish delivers an event to every subscriber of its run. Slow
// subscribers drop events rather than block the pipeline.
func (h *Hub) Publish(event pipeline.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for ch := range h.subs[event.RunID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener for one run's events. The returned cancel
// function must be called when the listener goes away.
func (h *Hub) Subscribe(runID string) (<-chan pipeline.ProgressEvent, func()) {
	ch := make(chan pipeline.ProgressEvent, 16)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[chan pipeline.ProgressEvent]struct{})
	}
	h.subs[runID][ch] = struct{}{}

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[runID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, runID)
				}
			}
		}
	}
	return ch, cancel
}

// Close shuts the hub down and closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for ch := range set {
			close(ch)
		}
	}
	h.subs = nil
}
