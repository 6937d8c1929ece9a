package domain

import "errors"

var (
	// ErrNoQuestionsAvailable is returned when a session cannot start on an empty bank.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrNoActiveQuestion is returned when an answer arrives outside an open question window.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrDuplicateAnswer is returned when a user answers the current question a second time.
	ErrDuplicateAnswer = errors.New("already answered this question")
	// ErrDuplicateAttempt is returned by score stores when the attempt was already recorded.
	ErrDuplicateAttempt = errors.New("attempt already recorded")
	// ErrStoreWrite wraps score store failures surfaced to the submitting client.
	ErrStoreWrite = errors.New("error recording answer")
	// ErrQuestionLoad wraps failures of the question bank loader.
	ErrQuestionLoad = errors.New("failed to load questions")
	// ErrSessionNotFound is returned by session registries for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound is returned by score stores for users without recorded attempts.
	ErrUserNotFound = errors.New("user not found")
	// ErrMissingUser is returned when a submission carries no user id.
	ErrMissingUser = errors.New("missing user id")
)

// ErrorCode maps an error to a short machine-checkable reason.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoActiveQuestion):
		return "no_active_question"
	case errors.Is(err, ErrDuplicateAnswer), errors.Is(err, ErrDuplicateAttempt):
		return "duplicate_answer"
	case errors.Is(err, ErrStoreWrite):
		return "store_failure"
	case errors.Is(err, ErrNoQuestionsAvailable):
		return "no_questions_available"
	case errors.Is(err, ErrQuestionLoad):
		return "question_load_failure"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrMissingUser):
		return "invalid_request"
	}
	return "internal"
}
