package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"classroom-quiz-service/internal/domain"
)

func TestSessionRegistryLifecycle(t *testing.T) {
	registry := NewSessionRegistry()
	ctx := context.Background()
	started := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	if _, err := registry.Get(ctx, "game_1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := registry.Started(ctx, domain.SessionRecord{
		SessionID:      "game_1",
		Status:         domain.SessionStatusStarted,
		TotalQuestions: 3,
		StartedAt:      started,
	}); err != nil {
		t.Fatalf("started: %v", err)
	}

	ended := started.Add(2 * time.Minute)
	if err := registry.Finished(ctx, "game_1", domain.SessionStatusCompleted, ended); err != nil {
		t.Fatalf("finished: %v", err)
	}
	// a later reset does not overwrite the completion
	if err := registry.Finished(ctx, "game_1", domain.SessionStatusReset, ended.Add(time.Minute)); err != nil {
		t.Fatalf("finished twice: %v", err)
	}

	record, err := registry.Get(ctx, "game_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != domain.SessionStatusCompleted || record.EndedAt == nil || !record.EndedAt.Equal(ended) {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.TotalQuestions != 3 {
		t.Fatalf("expected 3 questions, got %d", record.TotalQuestions)
	}

	if err := registry.Finished(ctx, "missing", domain.SessionStatusReset, ended); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found for missing session, got %v", err)
	}
}
