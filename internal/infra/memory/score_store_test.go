package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"classroom-quiz-service/internal/domain"
)

func TestScoreStoreRejectsDuplicateAttempt(t *testing.T) {
	store := NewScoreStore()
	ctx := context.Background()
	attempt := domain.Attempt{UserID: "u1", QuestionID: "1", SessionID: "s1", Correct: true, Points: 10}

	if err := store.RecordAttempt(ctx, attempt); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.RecordAttempt(ctx, attempt); !errors.Is(err, domain.ErrDuplicateAttempt) {
		t.Fatalf("expected duplicate attempt, got %v", err)
	}

	// Same user and question in another session is a separate attempt.
	attempt.SessionID = "s2"
	if err := store.RecordAttempt(ctx, attempt); err != nil {
		t.Fatalf("record in new session: %v", err)
	}
}

func TestScoreStoreConcurrentWritesApplyOnce(t *testing.T) {
	store := NewScoreStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.RecordAttempt(ctx, domain.Attempt{UserID: "u1", QuestionID: "1", SessionID: "s1", Correct: true, Points: 10})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one write, got %d", successes)
	}
	board, _ := store.Leaderboard(ctx, 10)
	if len(board) != 1 || board[0].Score != 10 {
		t.Fatalf("expected single 10 point entry, got %+v", board)
	}
}

func TestScoreStoreLeaderboardAndSessionResults(t *testing.T) {
	store := NewScoreStore()
	ctx := context.Background()
	writes := []domain.Attempt{
		{UserID: "u1", DisplayName: "Alice", QuestionID: "1", SessionID: "s1", Correct: true, Points: 15},
		{UserID: "u2", DisplayName: "Bob", QuestionID: "1", SessionID: "s1", Correct: true, Points: 10},
		{UserID: "u2", QuestionID: "2", SessionID: "s1", Correct: false, Points: 0},
		{UserID: "u3", DisplayName: "Cara", QuestionID: "1", SessionID: "s2", Correct: true, Points: 10},
	}
	for _, w := range writes {
		if err := store.RecordAttempt(ctx, w); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	board, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 3 || board[0].UserID != "u1" {
		t.Fatalf("expected Alice leading 3 entries, got %+v", board)
	}
	// Cara and Bob tie on score; Cara wins on accuracy.
	if board[1].UserID != "u3" || board[2].Accuracy != 50 {
		t.Fatalf("unexpected tie-break order: %+v", board)
	}
	if board[2].DisplayName != "Bob" {
		t.Fatalf("expected display name kept from first write, got %q", board[2].DisplayName)
	}

	results, err := store.SessionResults(ctx, "s1", 20)
	if err != nil {
		t.Fatalf("session results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 session results, got %+v", results)
	}
	if results[1].QuestionsAnswered != 2 || results[1].CorrectAnswers != 1 {
		t.Fatalf("unexpected aggregate for Bob: %+v", results[1])
	}

	top, _ := store.Leaderboard(ctx, 1)
	if len(top) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(top))
	}
}

func TestScoreStoreUserStats(t *testing.T) {
	store := NewScoreStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	writes := []domain.Attempt{
		{UserID: "u1", DisplayName: "Alice", QuestionID: "1", SessionID: "s1", Difficulty: "Easy", Correct: true, Points: 15, AnsweredAt: base},
		{UserID: "u1", QuestionID: "2", SessionID: "s1", Difficulty: "Hard", Correct: false, Points: 0, AnsweredAt: base.Add(time.Minute)},
		{UserID: "u1", QuestionID: "1", SessionID: "s2", Difficulty: "Easy", Correct: true, Points: 10, AnsweredAt: base.Add(time.Hour)},
		{UserID: "u2", QuestionID: "1", SessionID: "s2", Difficulty: "Easy", Correct: true, Points: 15, AnsweredAt: base.Add(time.Hour)},
	}
	for _, w := range writes {
		if err := store.RecordAttempt(ctx, w); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	stats, err := store.UserStats(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if stats.DisplayName != "Alice" || stats.Score != 25 || stats.Attempts != 3 || stats.CorrectAnswers != 2 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if easy := stats.ByDifficulty["easy"]; easy.Answered != 2 || easy.Score != 25 {
		t.Fatalf("unexpected easy breakdown: %+v", stats.ByDifficulty)
	}
	if hard := stats.ByDifficulty["hard"]; hard.Answered != 1 || hard.Correct != 0 {
		t.Fatalf("unexpected hard breakdown: %+v", stats.ByDifficulty)
	}
	if len(stats.RecentSessions) != 2 || stats.RecentSessions[0].SessionID != "s2" {
		t.Fatalf("expected latest session first, got %+v", stats.RecentSessions)
	}
	if s1 := stats.RecentSessions[1]; s1.QuestionsAnswered != 2 || s1.SessionScore != 15 || !s1.LastAnswered.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected s1 summary: %+v", s1)
	}

	if _, err := store.UserStats(ctx, "nobody", 10); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}
