package domain

import (
	"fmt"
	"testing"
)

func TestParseSlotAcceptsEquivalentForms(t *testing.T) {
	for _, raw := range []string{"b", "B", "option_b", "OPTION_B", " Option B ", "optionb", "option-b"} {
		slot, ok := ParseSlot(raw)
		if !ok || slot != SlotB {
			t.Fatalf("expected %q to parse as B, got %q ok=%v", raw, slot, ok)
		}
	}
}

func TestParseSlotFailsClosed(t *testing.T) {
	for _, raw := range []string{"", "E", "option", "option_e", "AB", "42", "the second one"} {
		if slot, ok := ParseSlot(raw); ok || slot != SlotNone {
			t.Fatalf("expected %q to be rejected, got %q", raw, slot)
		}
	}
}

func TestCorrectTextFollowsSlot(t *testing.T) {
	q := Question{
		ID:      "q1",
		Text:    "Pick y",
		Options: Options{A: "x", B: "y", C: "z", D: "w"},
		Correct: SlotB,
	}
	if got := q.CorrectText(); got != "y" {
		t.Fatalf("expected y, got %s", got)
	}
	if got := q.DifficultyOrDefault(); got != "Medium" {
		t.Fatalf("expected default difficulty Medium, got %s", got)
	}
	q.Correct = SlotNone
	if got := q.CorrectText(); got != "Unknown" {
		t.Fatalf("expected Unknown for missing marker, got %s", got)
	}
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("%w: connection refused", ErrStoreWrite)
	cases := map[error]string{
		ErrNoActiveQuestion:     "no_active_question",
		ErrDuplicateAnswer:      "duplicate_answer",
		ErrDuplicateAttempt:     "duplicate_answer",
		wrapped:                 "store_failure",
		ErrNoQuestionsAvailable: "no_questions_available",
		fmt.Errorf("boom"):      "internal",
	}
	for err, want := range cases {
		if got := ErrorCode(err); got != want {
			t.Fatalf("ErrorCode(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestAccuracyRounds(t *testing.T) {
	if got := Accuracy(1, 3); got != 33.33 {
		t.Fatalf("expected 33.33, got %v", got)
	}
	if got := Accuracy(0, 0); got != 0 {
		t.Fatalf("expected 0 for no attempts, got %v", got)
	}
}
