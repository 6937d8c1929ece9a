package postgres

import (
	"context"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreStore persists attempts in the answers table. The unique
// (user_id, question_id, session_id) constraint enforces one attempt per triple.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) RecordAttempt(ctx context.Context, a domain.Attempt) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO players (user_id, display_name) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), players.display_name),
		    updated_at = now()`,
		a.UserID, a.DisplayName)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO answers (user_id, question_id, session_id, difficulty, selected_answer, raw_answer, is_correct, points_earned, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, question_id, session_id) DO NOTHING`,
		a.UserID, a.QuestionID, a.SessionID, a.Difficulty, string(a.Selected), a.RawAnswer, a.Correct, a.Points, a.AnsweredAt)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateAttempt
	}
	return tx.Commit(ctx)
}

const leaderboardSQL = `
SELECT a.user_id,
       COALESCE(NULLIF(p.display_name, ''), a.user_id),
       SUM(a.points_earned)::int AS score,
       COUNT(*)::int AS attempts,
       COUNT(*) FILTER (WHERE a.is_correct)::int AS correct
FROM answers a
LEFT JOIN players p ON p.user_id = a.user_id
%s
GROUP BY a.user_id, p.display_name
ORDER BY score DESC,
         ROUND(COUNT(*) FILTER (WHERE a.is_correct) * 100.0 / COUNT(*), 2) DESC,
         a.user_id
LIMIT $1`

func (s *ScoreStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(leaderboardSQL, ""), limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Score, &e.Attempts, &e.CorrectAnswers); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.Accuracy = domain.Accuracy(e.CorrectAnswers, e.Attempts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *ScoreStore) SessionResults(ctx context.Context, sessionID string, limit int) ([]domain.SessionResult, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(leaderboardSQL, "WHERE a.session_id = $2"), limit, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session results: %w", err)
	}
	defer rows.Close()

	results := []domain.SessionResult{}
	for rows.Next() {
		var r domain.SessionResult
		if err := rows.Scan(&r.UserID, &r.DisplayName, &r.SessionScore, &r.QuestionsAnswered, &r.CorrectAnswers); err != nil {
			return nil, fmt.Errorf("scan session results: %w", err)
		}
		r.Accuracy = domain.Accuracy(r.CorrectAnswers, r.QuestionsAnswered)
		results = append(results, r)
	}
	return results, rows.Err()
}

const userDifficultySQL = `
SELECT difficulty,
       COUNT(*)::int,
       COUNT(*) FILTER (WHERE is_correct)::int,
       SUM(points_earned)::int
FROM answers
WHERE user_id = $1
GROUP BY difficulty`

const userSessionsSQL = `
SELECT session_id,
       SUM(points_earned)::int,
       COUNT(*)::int,
       COUNT(*) FILTER (WHERE is_correct)::int,
       MAX(answered_at)
FROM answers
WHERE user_id = $1
GROUP BY session_id
ORDER BY MAX(answered_at) DESC, session_id
LIMIT $2`

func (s *ScoreStore) UserStats(ctx context.Context, userID string, recentSessions int) (domain.UserStats, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(NULLIF(display_name, ''), user_id) FROM players WHERE user_id = $1`, userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserStats{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	stats := domain.NewUserStats(userID, name)

	rows, err := s.pool.Query(ctx, userDifficultySQL, userID)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user difficulty stats: %w", err)
	}
	for rows.Next() {
		var difficulty string
		var answered, correct, score int
		if err := rows.Scan(&difficulty, &answered, &correct, &score); err != nil {
			rows.Close()
			return domain.UserStats{}, fmt.Errorf("scan difficulty stats: %w", err)
		}
		stats.AddDifficulty(difficulty, answered, correct, score)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.UserStats{}, fmt.Errorf("user difficulty stats: %w", err)
	}
	if stats.Attempts == 0 {
		return domain.UserStats{}, domain.ErrUserNotFound
	}

	var limit *int
	if recentSessions > 0 {
		limit = &recentSessions
	}
	rows, err = s.pool.Query(ctx, userSessionsSQL, userID, limit)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.SessionSummary{}
	for rows.Next() {
		var sum domain.SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.SessionScore, &sum.QuestionsAnswered, &sum.CorrectAnswers, &sum.LastAnswered); err != nil {
			return domain.UserStats{}, fmt.Errorf("scan user sessions: %w", err)
		}
		sessions = append(sessions, sum)
	}
	if err := rows.Err(); err != nil {
		return domain.UserStats{}, fmt.Errorf("user sessions: %w", err)
	}
	stats.SetSessions(sessions, recentSessions)
	return stats, nil
}
