package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/scamsafe/internal/domain"
	"github.com/ashureev/scamsafe/internal/shared"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata_json TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, created_at);

	CREATE TABLE IF NOT EXISTS callbacks (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		triggers TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		sent_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_callbacks_session ON callbacks(session_id, sent_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendTurn records one message. An empty ID is filled with a new UUID.
func (s *SQLiteStore) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	var metadata interface{}
	if len(turn.Metadata) > 0 {
		data, err := json.Marshal(turn.Metadata)
		if err != nil {
			return fmt.Errorf("marshal turn metadata: %w", err)
		}
		metadata = string(data)
	}

	query := `
	INSERT INTO turns (id, session_id, turn, role, content, metadata_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	return withRetry(ctx, "append turn", func() error {
		_, err := s.db.ExecContext(ctx, query,
			turn.ID, turn.SessionID, turn.Turn, turn.Role, turn.Content,
			metadata, turn.CreatedAt.UnixNano(),
		)
		return err
	})
}

// ListTurns returns a session's turns in write order.
func (s *SQLiteStore) ListTurns(ctx context.Context, sessionID string) ([]*domain.Turn, error) {
	query := `
		SELECT id, session_id, turn, role, content, metadata_json, created_at
		FROM turns WHERE session_id = ?
		ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("Failed to close turn rows", "error", closeErr)
		}
	}()

	var turns []*domain.Turn
	for rows.Next() {
		var (
			t         domain.Turn
			metadata  sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Turn, &t.Role, &t.Content, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &t.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal turn metadata: %w", err)
			}
		}
		t.CreatedAt = time.Unix(0, createdAt)
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return turns, nil
}

// RecordCallback stores a callback delivery outcome.
func (s *SQLiteStore) RecordCallback(ctx context.Context, rec *domain.CallbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}

	triggers := make([]string, len(rec.Triggers))
	for i, t := range rec.Triggers {
		triggers[i] = string(t)
	}

	var callbackErr interface{}
	if rec.Error != "" {
		callbackErr = rec.Error
	}

	query := `
	INSERT INTO callbacks (id, session_id, triggers, payload_json, status_code, error, sent_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	return withRetry(ctx, "record callback", func() error {
		_, err := s.db.ExecContext(ctx, query,
			rec.ID, rec.SessionID, strings.Join(triggers, ","), rec.Payload,
			rec.StatusCode, callbackErr, rec.SentAt.UnixNano(),
		)
		return err
	})
}

// ListCallbacks returns a session's callback deliveries, oldest first.
func (s *SQLiteStore) ListCallbacks(ctx context.Context, sessionID string) ([]*domain.CallbackRecord, error) {
	query := `
		SELECT id, session_id, triggers, payload_json, status_code, error, sent_at
		FROM callbacks WHERE session_id = ?
		ORDER BY sent_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query callbacks: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("Failed to close callback rows", "error", closeErr)
		}
	}()

	var out []*domain.CallbackRecord
	for rows.Next() {
		var (
			rec      domain.CallbackRecord
			triggers string
			errText  sql.NullString
			sentAt   int64
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &triggers, &rec.Payload, &rec.StatusCode, &errText, &sentAt); err != nil {
			return nil, fmt.Errorf("scan callback row: %w", err)
		}
		for _, t := range strings.Split(triggers, ",") {
			if t != "" {
				rec.Triggers = append(rec.Triggers, domain.Trigger(t))
			}
		}
		rec.Error = errText.String
		rec.SentAt = time.Unix(0, sentAt)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate callbacks: %w", err)
	}
	return out, nil
}

// CleanupOlderThan removes audit rows older than retention.
func (s *SQLiteStore) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	threshold := time.Now().Add(-retention).UnixNano()

	var total int64
	for _, q := range []string{
		`DELETE FROM turns WHERE created_at < ?`,
		`DELETE FROM callbacks WHERE sent_at < ?`,
	} {
		result, err := s.db.ExecContext(ctx, q, threshold)
		if err != nil {
			return total, fmt.Errorf("cleanup audit rows: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("cleanup rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}

// withRetry runs op with exponential backoff on SQLite busy/locked errors.
func withRetry(ctx context.Context, what string, op func() error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		if err = op(); err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("SQLite busy, retrying", "op", what, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
