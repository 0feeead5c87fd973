package store

import (
	"context"
	"log/slog"
	"time"
)

const retentionInterval = time.Hour

// StartRetentionWorker periodically deletes audit rows older than retention
// until ctx is cancelled. A non-positive retention keeps everything.
func StartRetentionWorker(ctx context.Context, repo Repository, retention time.Duration) {
	if retention <= 0 {
		slog.Info("Audit retention disabled")
		return
	}
	ticker := time.NewTicker(retentionInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Audit retention worker started", "interval", retentionInterval, "retention", retention)

		for {
			select {
			case <-ticker.C:
				deleted, err := repo.CleanupOlderThan(ctx, retention)
				if err != nil {
					slog.Error("Audit retention cleanup failed", "error", err)
				} else if deleted > 0 {
					slog.Info("Audit retention cleaned up rows", "count", deleted)
				}
			case <-ctx.Done():
				slog.Info("Audit retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
