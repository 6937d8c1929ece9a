package app

import (
	"errors"
	"testing"
	"time"

	"classroom-quiz-service/internal/domain"
)

func twoQuestions() []domain.Question {
	return []domain.Question{
		{ID: "1", Text: "2 + 2?", Options: domain.Options{A: "3", B: "4", C: "5", D: "6"}, Correct: domain.SlotB},
		{ID: "2", Text: "Capital of France?", Options: domain.Options{A: "Paris", B: "Rome", C: "Oslo", D: "Bern"}, Correct: domain.SlotA},
	}
}

func TestSessionStartRejectsEmptyBank(t *testing.T) {
	s := newSession()
	if err := s.start("game_1", nil); !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected no questions error, got %v", err)
	}
	if s.active {
		t.Fatalf("session should stay inactive")
	}
}

func TestSessionOpenNextIsIdempotentPastEnd(t *testing.T) {
	s := newSession()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	if err := s.start("game_1", twoQuestions()); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 2; i++ {
		q, done := s.openNext(now)
		if done {
			t.Fatalf("unexpected done at question %d", i+1)
		}
		if q.ID != twoQuestions()[i].ID || s.index != i {
			t.Fatalf("expected question %d, got %s at index %d", i+1, q.ID, s.index)
		}
	}
	for i := 0; i < 3; i++ {
		if _, done := s.openNext(now); !done {
			t.Fatalf("expected done past the end")
		}
	}
	if s.index != 2 || s.active || s.accepting {
		t.Fatalf("unexpected state after end: index=%d active=%v accepting=%v", s.index, s.active, s.accepting)
	}
	if _, ok := s.current(); ok {
		t.Fatalf("no current question expected past the end")
	}
}

func TestSessionAnsweredSetClearsPerQuestion(t *testing.T) {
	s := newSession()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	_ = s.start("game_1", twoQuestions())
	s.openNext(now)

	if !s.recordAttempt("u1", "1") {
		t.Fatalf("first attempt should be recorded")
	}
	if s.recordAttempt("u1", "1") {
		t.Fatalf("second attempt should be rejected")
	}

	s.openNext(now)
	if s.answeredCount() != 0 {
		t.Fatalf("answered set should be empty for a new question")
	}
	if !s.recordAttempt("u1", "2") {
		t.Fatalf("attempt on next question should be recorded")
	}

	// A new session starts with a clean slate for the same ids.
	_ = s.start("game_2", twoQuestions())
	s.openNext(now)
	if !s.recordAttempt("u1", "1") {
		t.Fatalf("replay in a new session should be accepted")
	}
}

func TestSessionClaimFirstCorrect(t *testing.T) {
	s := newSession()
	opened := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	_ = s.start("game_1", twoQuestions())
	s.openNext(opened)

	if !s.claimFirstCorrect(opened.Add(2*time.Second), 5*time.Second) {
		t.Fatalf("first claim inside window should win")
	}
	if s.claimFirstCorrect(opened.Add(3*time.Second), 5*time.Second) {
		t.Fatalf("bonus should be claimed only once")
	}

	s.openNext(opened.Add(40 * time.Second))
	if s.claimFirstCorrect(opened.Add(45*time.Second), 5*time.Second) {
		t.Fatalf("claim at the window edge should lose")
	}
}

func TestSessionCloseAndDeactivate(t *testing.T) {
	s := newSession()
	_ = s.start("game_1", twoQuestions())
	s.openNext(time.Now())

	if !s.closeCurrent() {
		t.Fatalf("close should report a change")
	}
	if s.closeCurrent() {
		t.Fatalf("second close should be a no-op")
	}

	s.deactivate()
	if s.active || s.index != -1 {
		t.Fatalf("expected inert session, got active=%v index=%d", s.active, s.index)
	}
	if s.id != "game_1" {
		t.Fatalf("deactivate should keep the last session id")
	}
}

func TestSessionClosedEvent(t *testing.T) {
	s := newSession()
	_ = s.start("game_1", twoQuestions())
	q, _ := s.openNext(time.Now())

	ev := s.closedEvent(q)
	if ev.CorrectAnswerSlot != domain.SlotB || ev.CorrectAnswerText != "4" {
		t.Fatalf("unexpected reveal: %+v", ev)
	}
	if ev.QuestionNumber != 1 || ev.TotalQuestions != 2 {
		t.Fatalf("unexpected numbering: %+v", ev)
	}
	if ev.Explanation != "Question completed! Correct answer was: 4" {
		t.Fatalf("unexpected explanation %q", ev.Explanation)
	}
}
