package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/scamsafe/internal/domain"
)

// ErrEmptyID is returned when a session id is blank.
var ErrEmptyID = errors.New("session id cannot be empty")

// Options configures a Store.
type Options struct {
	// IdleTTL evicts sessions that saw no message for this long. Zero disables eviction.
	IdleTTL time.Duration
	// MaxSessions bounds the number of live sessions. Zero means unbounded.
	MaxSessions int
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

type entry struct {
	mu      sync.Mutex
	sess    *domain.Session
	evicted bool
}

// Store is an in-memory keyed session store. Updates to one session are
// serialised by a per-session lock; different sessions proceed in parallel.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	opts     Options
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sessions: make(map[string]*entry),
		opts:     opts,
	}
}

// Update runs fn with exclusive access to the session, creating it if the
// id is new. The session's LastSeenAt is refreshed afterwards and a
// snapshot of the result is returned. If fn fails, the error is returned
// but any changes fn made are kept.
func (s *Store) Update(ctx context.Context, id string, fn func(*domain.Session) error) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, ErrEmptyID
	}
	for {
		if err := ctx.Err(); err != nil {
			return domain.Session{}, err
		}

		e := s.acquire(id)
		e.mu.Lock()
		if e.evicted {
			// Lost a race with the sweeper; retry against a fresh entry.
			e.mu.Unlock()
			continue
		}

		err := fn(e.sess)
		e.sess.LastSeenAt = s.opts.Now()
		snap := e.sess.Snapshot()
		e.mu.Unlock()
		return snap, err
	}
}

// Get returns a snapshot of the session, if present.
func (s *Store) Get(id string) (domain.Session, bool) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return domain.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return domain.Session{}, false
	}
	return e.sess.Snapshot(), true
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		e.mu.Lock()
		e.evicted = true
		e.mu.Unlock()
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) acquire(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		return e
	}
	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		s.evictOldestLocked()
	}
	e := &entry{sess: domain.NewSession(id, s.opts.Now())}
	s.sessions[id] = e
	return e
}

// evictOldestLocked drops the least recently seen session that is not in
// use. Caller must hold s.mu.
func (s *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   *entry
		seen     time.Time
	)
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		last := e.sess.LastSeenAt
		e.mu.Unlock()
		if oldest == nil || last.Before(seen) {
			oldestID, oldest, seen = id, e, last
		}
	}
	if oldest == nil {
		return
	}
	if !oldest.mu.TryLock() {
		return
	}
	oldest.evicted = true
	oldest.mu.Unlock()
	delete(s.sessions, oldestID)
	slog.Info("Session evicted at capacity", "session_id", oldestID, "max_sessions", s.opts.MaxSessions)
}

// Sweep removes sessions idle for longer than IdleTTL and returns how many
// were evicted. Sessions being updated are skipped until the next sweep.
func (s *Store) Sweep() int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	now := s.opts.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.sess.IdleFor(now) > s.opts.IdleTTL {
			e.evicted = true
			delete(s.sessions, id)
			evicted++
		}
		e.mu.Unlock()
	}
	return evicted
}
