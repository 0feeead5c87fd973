package events

import (
	"context"
	"log/slog"
	"sync"
)

const defaultSubscriberBuffer = 64

// Hub delivers events to in-process subscribers. Slow subscribers lose
// events rather than blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]chan Event
	next   int64
	buffer int
}

var _ Publisher = (*Hub)(nil)

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{subs: make(map[int64]chan Event), buffer: buffer}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish implements Publisher.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			slog.Debug("Dropping event for slow subscriber", "subscriber", id, "type", e.Type)
		}
	}
	return nil
}
