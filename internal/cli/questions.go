package cli

import "classroom-quiz-service/internal/domain"

// sampleQuestions is the demo bank used when no Postgres is configured, and
// the seed data for `migrate --seed`.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:         "1",
			Text:       "What is 2 + 2?",
			Options:    domain.Options{A: "3", B: "4", C: "5", D: "22"},
			Correct:    domain.SlotB,
			Difficulty: "Easy",
		},
		{
			ID:         "2",
			Text:       "Which planet is known as the Red Planet?",
			Options:    domain.Options{A: "Venus", B: "Jupiter", C: "Mars", D: "Mercury"},
			Correct:    domain.SlotC,
			Difficulty: "Easy",
		},
		{
			ID:         "3",
			Text:       "What is the capital of Australia?",
			Options:    domain.Options{A: "Sydney", B: "Melbourne", C: "Perth", D: "Canberra"},
			Correct:    domain.SlotD,
			Difficulty: "Medium",
		},
		{
			ID:         "4",
			Text:       "Which data structure uses FIFO ordering?",
			Options:    domain.Options{A: "Queue", B: "Stack", C: "Tree", D: "Graph"},
			Correct:    domain.SlotA,
			Difficulty: "Medium",
		},
		{
			ID:         "5",
			Text:       "What is the time complexity of binary search?",
			Options:    domain.Options{A: "O(n)", B: "O(log n)", C: "O(n log n)", D: "O(1)"},
			Correct:    domain.SlotB,
			Difficulty: "Hard",
		},
	}
}
