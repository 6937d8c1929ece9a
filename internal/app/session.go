package app

import (
	"time"

	"classroom-quiz-service/internal/domain"
)

type answerKey struct {
	userID     string
	questionID string
	sessionID  string
}

// Session is the mutable record of one game run. It has no lock of its own:
// every access happens under GameService.mu so that the answered set and the
// bonus flag change together.
type Session struct {
	id                  string
	questions           []domain.Question
	index               int
	accepting           bool
	active              bool
	answered            map[answerKey]struct{}
	firstCorrectClaimed bool
	openedAt            time.Time
}

func newSession() *Session {
	return &Session{index: -1, answered: make(map[answerKey]struct{})}
}

// start resets the record for a fresh run over bank under a new id.
func (s *Session) start(id string, bank []domain.Question) error {
	if len(bank) == 0 {
		return domain.ErrNoQuestionsAvailable
	}
	s.id = id
	s.questions = bank
	s.index = -1
	s.accepting = false
	s.active = true
	s.firstCorrectClaimed = false
	s.openedAt = time.Time{}
	clear(s.answered)
	return nil
}

// openNext advances to the next question. Past the end of the bank it marks the
// session inactive and reports done; repeated calls keep reporting done.
func (s *Session) openNext(now time.Time) (domain.Question, bool) {
	if s.index < len(s.questions) {
		s.index++
	}
	clear(s.answered)
	s.firstCorrectClaimed = false
	if s.index >= len(s.questions) {
		s.accepting = false
		s.active = false
		return domain.Question{}, true
	}
	s.accepting = true
	s.openedAt = now
	return s.questions[s.index], false
}

// closeCurrent stops accepting answers. It reports whether anything changed.
func (s *Session) closeCurrent() bool {
	if !s.accepting {
		return false
	}
	s.accepting = false
	return true
}

// deactivate makes the record inert without forgetting the bank.
func (s *Session) deactivate() {
	s.index = -1
	s.accepting = false
	s.active = false
	s.firstCorrectClaimed = false
	clear(s.answered)
}

// current returns the question under the index when one is in range.
func (s *Session) current() (domain.Question, bool) {
	if s.index < 0 || s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// recordAttempt inserts the user into the answered set of the current question
// and reports whether this was the first attempt.
func (s *Session) recordAttempt(userID, questionID string) bool {
	key := answerKey{userID: userID, questionID: questionID, sessionID: s.id}
	if _, ok := s.answered[key]; ok {
		return false
	}
	s.answered[key] = struct{}{}
	return true
}

// claimFirstCorrect claims the bonus for the current question when it is still
// unclaimed and the answer arrived inside window.
func (s *Session) claimFirstCorrect(now time.Time, window time.Duration) bool {
	if s.firstCorrectClaimed || now.Sub(s.openedAt) >= window {
		return false
	}
	s.firstCorrectClaimed = true
	return true
}

func (s *Session) answeredCount() int {
	return len(s.answered)
}

func (s *Session) view(q domain.Question, seconds int) domain.QuestionView {
	return domain.QuestionView{
		ID:             q.ID,
		Text:           q.Text,
		Options:        q.Options,
		Difficulty:     q.DifficultyOrDefault(),
		Time:           seconds,
		QuestionNumber: s.index + 1,
		TotalQuestions: len(s.questions),
		SessionID:      s.id,
	}
}

func (s *Session) closedEvent(q domain.Question) domain.QuestionClosed {
	text := q.CorrectText()
	return domain.QuestionClosed{
		CorrectAnswerSlot: q.Correct,
		CorrectAnswerText: text,
		Explanation:       "Question completed! Correct answer was: " + text,
		QuestionNumber:    s.index + 1,
		TotalQuestions:    len(s.questions),
	}
}
