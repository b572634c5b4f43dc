package httpapi

import (
	"sync"

	"github.com/hperssn/workplay/internal/storage"
)

const (
	EventSessionCreated = "created"
	EventSessionUpdated = "updated"
	EventSessionDeleted = "deleted"
)

// SessionEvent is one store mutation, pushed to stream subscribers.
// Session is nil for deleted events.
type SessionEvent struct {
	Type    string                 `json:"type"`
	Session *storage.SessionRecord `json:"session,omitempty"`
}

// Hub fans store mutations out to per-user SSE subscribers. Slow
// subscribers drop events rather than block the writer.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan SessionEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan SessionEvent]struct{}),
	}
}

// Subscribe registers a listener for one user's events. The returned
// cancel func must be called when the subscriber goes away.
func (h *Hub) Subscribe(userID string) (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, 8)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan SessionEvent]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if set, ok := h.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
	}

	return ch, cancel
}

func (h *Hub) Publish(userID string, ev SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
