package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/scamsafe/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestAppendAndListTurns(t *testing.T) {
	t.Parallel()
	repo := newTestStore(t)
	ctx := context.Background()
	base := time.Now()

	inbound := &domain.Turn{
		SessionID: "s1",
		Turn:      1,
		Role:      domain.RoleScammer,
		Content:   "Your account is blocked",
		Metadata:  map[string]any{"channel": "SMS"},
		CreatedAt: base,
	}
	outbound := &domain.Turn{
		SessionID: "s1",
		Turn:      1,
		Role:      domain.RoleHoneypot,
		Content:   "Aiyoh sir",
		CreatedAt: base.Add(time.Millisecond),
	}
	other := &domain.Turn{SessionID: "s2", Turn: 1, Role: domain.RoleScammer, Content: "hi"}

	for _, turn := range []*domain.Turn{inbound, outbound, other} {
		if err := repo.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("append turn: %v", err)
		}
	}
	if inbound.ID == "" {
		t.Error("expected generated turn ID")
	}

	turns, err := repo.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != domain.RoleScammer || turns[1].Role != domain.RoleHoneypot {
		t.Errorf("expected write order, got %s then %s", turns[0].Role, turns[1].Role)
	}
	if turns[0].Metadata["channel"] != "SMS" {
		t.Errorf("expected metadata to round-trip, got %v", turns[0].Metadata)
	}
	if turns[1].Metadata != nil {
		t.Errorf("expected no metadata, got %v", turns[1].Metadata)
	}
}

func TestRecordAndListCallbacks(t *testing.T) {
	t.Parallel()
	repo := newTestStore(t)
	ctx := context.Background()

	ok := &domain.CallbackRecord{
		SessionID:  "s1",
		Triggers:   []domain.Trigger{domain.TriggerTurnLimit, domain.TriggerIntelHarvest},
		Payload:    `{"sessionId":"s1"}`,
		StatusCode: 200,
	}
	failed := &domain.CallbackRecord{
		SessionID: "s1",
		Triggers:  []domain.Trigger{domain.TriggerIntelHarvest},
		Payload:   `{}`,
		Error:     "connection refused",
		SentAt:    time.Now().Add(time.Second),
	}
	for _, rec := range []*domain.CallbackRecord{ok, failed} {
		if err := repo.RecordCallback(ctx, rec); err != nil {
			t.Fatalf("record callback: %v", err)
		}
	}

	recs, err := repo.ListCallbacks(ctx, "s1")
	if err != nil {
		t.Fatalf("list callbacks: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(recs))
	}
	if !recs[0].Delivered() || len(recs[0].Triggers) != 2 {
		t.Errorf("unexpected first record %+v", recs[0])
	}
	if recs[1].Delivered() || recs[1].Error != "connection refused" {
		t.Errorf("unexpected second record %+v", recs[1])
	}
}

func TestCleanupOlderThan(t *testing.T) {
	t.Parallel()
	repo := newTestStore(t)
	ctx := context.Background()

	old := &domain.Turn{SessionID: "s1", Turn: 1, Role: domain.RoleScammer, Content: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &domain.Turn{SessionID: "s1", Turn: 2, Role: domain.RoleScammer, Content: "fresh"}
	for _, turn := range []*domain.Turn{old, fresh} {
		if err := repo.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	deleted, err := repo.CleanupOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted row, got %d", deleted)
	}
	turns, _ := repo.ListTurns(ctx, "s1")
	if len(turns) != 1 || turns[0].Content != "fresh" {
		t.Errorf("expected only the fresh turn, got %+v", turns)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	repo := newTestStore(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}

func TestWithRetryRetriesConflicts(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := withRetry(context.Background(), "op", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}

	attempts = 0
	err = withRetry(context.Background(), "op", func() error {
		attempts++
		return errors.New("constraint failed")
	})
	if err == nil || attempts != 1 {
		t.Errorf("expected a single attempt for non-retryable error, got %d (%v)", attempts, err)
	}
}
