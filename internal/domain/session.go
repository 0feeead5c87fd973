package domain

import (
	"time"
)

// SessionState is the lifecycle stage of a honeypot conversation.
type SessionState string

// Session states.
const (
	StateNew          SessionState = "NEW"
	StateActive       SessionState = "ACTIVE"
	StateCallbackSent SessionState = "CALLBACK_SENT"
)

// Trigger identifies the condition that caused a final-result callback.
type Trigger string

// Callback triggers.
const (
	TriggerTurnLimit    Trigger = "turn_limit"
	TriggerIntelHarvest Trigger = "intel_harvest"
)

// Session holds per-conversation state.
type Session struct {
	ID           string                `json:"sessionId"`
	State        SessionState          `json:"state"`
	Turns        int                   `json:"turns"`
	ScamDetected bool                  `json:"scamDetected"`
	Confidence   float64               `json:"confidence"`
	Intel        IntelligenceRecord    `json:"extractedIntelligence"`
	Fired        map[Trigger]time.Time `json:"firedTriggers"`
	CreatedAt    time.Time             `json:"createdAt"`
	LastSeenAt   time.Time             `json:"lastSeenAt"`
}

// NewSession returns a session in the NEW state.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		State:      StateNew,
		Intel:      NewIntelligenceRecord(),
		Fired:      make(map[Trigger]time.Time),
		CreatedAt:  now,
		LastSeenAt: now,
	}
}

// HasFired reports whether a callback was already sent for the trigger.
func (s *Session) HasFired(t Trigger) bool {
	_, ok := s.Fired[t]
	return ok
}

// IdleFor returns how long the session has been idle at now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastSeenAt)
}

// Snapshot returns a deep copy safe to use without holding the session lock.
func (s *Session) Snapshot() Session {
	cp := *s
	cp.Intel = s.Intel.Clone()
	cp.Fired = make(map[Trigger]time.Time, len(s.Fired))
	for k, v := range s.Fired {
		cp.Fired[k] = v
	}
	return cp
}
