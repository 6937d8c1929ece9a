package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed add_answer_difficulty.sql
var addAnswerDifficultySQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, addAnswerDifficultySQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
				DROP INDEX IF EXISTS answers_user_answered_at;
				ALTER TABLE answers DROP COLUMN IF EXISTS difficulty`)
			return err
		},
	)
}
