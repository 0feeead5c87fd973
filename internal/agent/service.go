package agent

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Service wraps a Generator with a per-call deadline, logging and counters.
type Service struct {
	generator Generator
	timeout   time.Duration

	calls    atomic.Int64
	failures atomic.Int64
}

// Stats contains agent call statistics.
type Stats struct {
	Calls    int64 `json:"calls"`
	Failures int64 `json:"failures"`
}

// NewService creates a service around generator. A non-positive timeout
// leaves the caller's deadline in charge.
func NewService(generator Generator, timeout time.Duration) *Service {
	return &Service{generator: generator, timeout: timeout}
}

// GenerateReply delegates to the wrapped generator.
func (s *Service) GenerateReply(ctx context.Context, req Request) (Response, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.calls.Add(1)
	start := time.Now()
	resp, err := s.generator.GenerateReply(ctx, req)
	if err != nil {
		s.failures.Add(1)
		slog.Warn("Agent reply failed", "session_id", req.SessionID, "turn", req.Turn, "error", err)
		return Response{}, err
	}
	slog.Debug("Agent reply generated", "session_id", req.SessionID, "turn", req.Turn, "duration", time.Since(start))
	return resp, nil
}

// GetStats returns agent statistics.
func (s *Service) GetStats() Stats {
	return Stats{Calls: s.calls.Load(), Failures: s.failures.Load()}
}
