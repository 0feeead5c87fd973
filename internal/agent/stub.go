package agent

import (
	"context"
	"sync"
)

// Stub is a deterministic Generator for tests and offline runs.
type Stub struct {
	Reply      string
	Confidence *float64
	Err        error

	mu       sync.Mutex
	requests []Request
}

// GenerateReply records req and returns the configured reply or error.
func (s *Stub) GenerateReply(ctx context.Context, req Request) (Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if s.Err != nil {
		return Response{}, s.Err
	}
	if s.Reply == "" {
		return Response{}, ErrEmptyReply
	}
	return Response{Text: s.Reply, Confidence: s.Confidence, Raw: s.Reply}, nil
}

// Requests returns the requests seen so far.
func (s *Stub) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}
