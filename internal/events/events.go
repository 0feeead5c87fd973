// Package events fans honeypot activity out to live observers.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeTurnProcessed      = "turn.processed"
	TypeCallbackDispatched = "callback.dispatched"
)

// Event is a single notification about a session.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	Turn      int       `json:"turn,omitempty"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

// New creates an event stamped with a fresh ID and the current time.
func New(typ, sessionID string, turn int, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		SessionID: sessionID,
		Turn:      turn,
		Data:      data,
		At:        time.Now().UTC(),
	}
}

// Publisher accepts events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Bus forwards every event to all sinks. A failing sink is logged and
// does not stop the others.
type Bus struct {
	sinks []Publisher
}

var _ Publisher = (*Bus)(nil)

// NewBus creates a bus over the non-nil sinks.
func NewBus(sinks ...Publisher) *Bus {
	b := &Bus{}
	for _, s := range sinks {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
	return b
}

// Publish implements Publisher. It always returns nil.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	for _, s := range b.sinks {
		if err := s.Publish(ctx, e); err != nil {
			slog.Warn("Event sink publish failed", "type", e.Type, "session_id", e.SessionID, "error", err)
		}
	}
	return nil
}
