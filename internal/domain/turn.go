package domain

import (
	"time"
)

// Turn roles recorded in the audit log.
const (
	RoleScammer  = "scammer"
	RoleHoneypot = "honeypot"
)

// Turn is one logged interaction of a session.
type Turn struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Turn      int            `json:"turn"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// CallbackRecord is the outcome of one callback delivery attempt.
type CallbackRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Triggers   []Trigger `json:"triggers"`
	Payload    string    `json:"payload"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// Delivered reports whether the backend accepted the callback.
func (c *CallbackRecord) Delivered() bool {
	return c.Error == "" && c.StatusCode >= 200 && c.StatusCode < 300
}
