package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often idle sessions are checked.
const DefaultSweepInterval = 5 * time.Minute

// StartSweeper runs a background goroutine that periodically evicts idle
// sessions from the store until ctx is cancelled.
func StartSweeper(ctx context.Context, store *Store, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval, "idle_ttl", store.opts.IdleTTL)

		for {
			select {
			case <-ticker.C:
				if n := store.Sweep(); n > 0 {
					slog.Info("Session sweeper evicted idle sessions", "count", n, "remaining", store.Len())
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
