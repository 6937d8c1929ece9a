package postgres

import (
	"context"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads the ordered question bank from Postgres.
type QuestionLoader struct {
	pool  *pgxpool.Pool
	limit int
}

// NewQuestionLoader returns a loader that reads at most limit questions.
func NewQuestionLoader(pool *pgxpool.Pool, limit int) *QuestionLoader {
	if limit <= 0 {
		limit = 30
	}
	return &QuestionLoader{pool: pool, limit: limit}
}

// Easy questions come first, then Medium, then Hard, then anything unlabelled.
const loadQuestionsSQL = `
SELECT id::text, text, option_a, option_b, option_c, option_d, correct, COALESCE(difficulty, '')
FROM questions
WHERE text IS NOT NULL
  AND option_a IS NOT NULL AND option_b IS NOT NULL
  AND option_c IS NOT NULL AND option_d IS NOT NULL
  AND correct IS NOT NULL
ORDER BY
  CASE difficulty WHEN 'Easy' THEN 1 WHEN 'Medium' THEN 2 WHEN 'Hard' THEN 3 ELSE 4 END,
  id
LIMIT $1`

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, loadQuestionsSQL, l.limit)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			correct string
		)
		if err := rows.Scan(&q.ID, &q.Text, &q.Options.A, &q.Options.B, &q.Options.C, &q.Options.D, &correct, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Correct, _ = domain.ParseSlot(correct)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// InsertQuestion adds q to the bank and returns its id.
func (l *QuestionLoader) InsertQuestion(ctx context.Context, q domain.Question) (string, error) {
	var id string
	err := l.pool.QueryRow(ctx,
		`INSERT INTO questions (text, option_a, option_b, option_c, option_d, correct, difficulty)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id::text`,
		q.Text, q.Options.A, q.Options.B, q.Options.C, q.Options.D, string(q.Correct), q.DifficultyOrDefault(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert question: %w", err)
	}
	return id, nil
}
