// Package store provides the audit trail for honeypot conversations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/scamsafe/internal/domain"
)

// Repository persists the append-only audit log. Live session state is
// kept in memory and never rebuilt from here.
type Repository interface {
	// AppendTurn records one inbound or outbound message.
	AppendTurn(ctx context.Context, turn *domain.Turn) error

	// ListTurns returns a session's turns in the order they were written.
	ListTurns(ctx context.Context, sessionID string) ([]*domain.Turn, error)

	// RecordCallback stores the outcome of a callback delivery.
	RecordCallback(ctx context.Context, rec *domain.CallbackRecord) error

	// ListCallbacks returns a session's callback deliveries, oldest first.
	ListCallbacks(ctx context.Context, sessionID string) ([]*domain.CallbackRecord, error)

	// CleanupOlderThan removes audit rows older than the retention window.
	CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
