package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ashureev/scamsafe/internal/domain"
	"github.com/go-chi/chi/v5"
)

// SessionReader looks up live sessions.
type SessionReader interface {
	Session(id string) (domain.Session, bool)
}

// AuditReader reads the persisted audit trail.
type AuditReader interface {
	ListTurns(ctx context.Context, sessionID string) ([]*domain.Turn, error)
	ListCallbacks(ctx context.Context, sessionID string) ([]*domain.CallbackRecord, error)
}

// SessionHandler exposes session state for operators.
type SessionHandler struct {
	sessions SessionReader
	audit    AuditReader
}

// NewSessionHandler creates a session handler. audit may be nil.
func NewSessionHandler(sessions SessionReader, audit AuditReader) *SessionHandler {
	return &SessionHandler{sessions: sessions, audit: audit}
}

// RegisterRoutes mounts the session routes behind the given middleware.
func (h *SessionHandler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Use(mw...)
		r.Get("/{sessionID}", h.GetSession)
		r.Get("/{sessionID}/turns", h.ListTurns)
		r.Get("/{sessionID}/callbacks", h.ListCallbacks)
	})
}

// GetSession returns the live snapshot of a session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	snap, ok := h.sessions.Session(id)
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, snap)
}

// ListTurns returns the audited turns of a session.
func (h *SessionHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		Error(w, http.StatusServiceUnavailable, "audit log disabled")
		return
	}
	id := chi.URLParam(r, "sessionID")
	turns, err := h.audit.ListTurns(r.Context(), id)
	if err != nil {
		slog.Error("Failed to list turns", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list turns")
		return
	}
	if turns == nil {
		turns = []*domain.Turn{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"sessionId": id, "turns": turns})
}

// ListCallbacks returns the callback deliveries of a session.
func (h *SessionHandler) ListCallbacks(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		Error(w, http.StatusServiceUnavailable, "audit log disabled")
		return
	}
	id := chi.URLParam(r, "sessionID")
	recs, err := h.audit.ListCallbacks(r.Context(), id)
	if err != nil {
		slog.Error("Failed to list callbacks", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list callbacks")
		return
	}
	if recs == nil {
		recs = []*domain.CallbackRecord{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"sessionId": id, "callbacks": recs})
}
