package memory

import (
	"context"
	"sync"

	"classroom-quiz-service/internal/domain"
)

type attemptKey struct {
	userID     string
	questionID string
	sessionID  string
}

type tally struct {
	score    int
	attempts int
	correct  int
}

func (t *tally) add(a domain.Attempt) {
	t.score += a.Points
	t.attempts++
	if a.Correct {
		t.correct++
	}
}

// ScoreStore is an in-process implementation of app.ScoreStore.
type ScoreStore struct {
	mu       sync.RWMutex
	attempts map[attemptKey]domain.Attempt
	names    map[string]string
	totals   map[string]*tally
	sessions map[string]map[string]*tally
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		attempts: make(map[attemptKey]domain.Attempt),
		names:    make(map[string]string),
		totals:   make(map[string]*tally),
		sessions: make(map[string]map[string]*tally),
	}
}

func (s *ScoreStore) RecordAttempt(_ context.Context, a domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attemptKey{userID: a.UserID, questionID: a.QuestionID, sessionID: a.SessionID}
	if _, ok := s.attempts[key]; ok {
		return domain.ErrDuplicateAttempt
	}
	s.attempts[key] = a

	if a.DisplayName != "" {
		s.names[a.UserID] = a.DisplayName
	}
	total, ok := s.totals[a.UserID]
	if !ok {
		total = &tally{}
		s.totals[a.UserID] = total
	}
	total.add(a)

	perUser, ok := s.sessions[a.SessionID]
	if !ok {
		perUser = make(map[string]*tally)
		s.sessions[a.SessionID] = perUser
	}
	session, ok := perUser[a.UserID]
	if !ok {
		session = &tally{}
		perUser[a.UserID] = session
	}
	session.add(a)
	return nil
}

func (s *ScoreStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.LeaderboardEntry, 0, len(s.totals))
	for userID, t := range s.totals {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:         userID,
			DisplayName:    s.displayName(userID),
			Score:          t.score,
			Accuracy:       domain.Accuracy(t.correct, t.attempts),
			CorrectAnswers: t.correct,
			Attempts:       t.attempts,
		})
	}
	domain.SortLeaderboard(entries)
	return domain.Truncate(entries, limit), nil
}

func (s *ScoreStore) SessionResults(_ context.Context, sessionID string, limit int) ([]domain.SessionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perUser := s.sessions[sessionID]
	results := make([]domain.SessionResult, 0, len(perUser))
	for userID, t := range perUser {
		results = append(results, domain.SessionResult{
			UserID:            userID,
			DisplayName:       s.displayName(userID),
			SessionScore:      t.score,
			QuestionsAnswered: t.attempts,
			CorrectAnswers:    t.correct,
			Accuracy:          domain.Accuracy(t.correct, t.attempts),
		})
	}
	domain.SortResults(results)
	return domain.Truncate(results, limit), nil
}

func (s *ScoreStore) UserStats(_ context.Context, userID string, recentSessions int) (domain.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.totals[userID]; !ok {
		return domain.UserStats{}, domain.ErrUserNotFound
	}
	stats := domain.NewUserStats(userID, s.displayName(userID))
	sessions := make(map[string]*domain.SessionSummary)
	for key, a := range s.attempts {
		if key.userID != userID {
			continue
		}
		correct := 0
		if a.Correct {
			correct = 1
		}
		stats.AddDifficulty(a.Difficulty, 1, correct, a.Points)

		sum, ok := sessions[a.SessionID]
		if !ok {
			sum = &domain.SessionSummary{SessionID: a.SessionID}
			sessions[a.SessionID] = sum
		}
		sum.SessionScore += a.Points
		sum.QuestionsAnswered++
		sum.CorrectAnswers += correct
		if a.AnsweredAt.After(sum.LastAnswered) {
			sum.LastAnswered = a.AnsweredAt
		}
	}

	list := make([]domain.SessionSummary, 0, len(sessions))
	for _, sum := range sessions {
		list = append(list, *sum)
	}
	stats.SetSessions(list, recentSessions)
	return stats, nil
}

func (s *ScoreStore) displayName(userID string) string {
	if name, ok := s.names[userID]; ok {
		return name
	}
	return userID
}
