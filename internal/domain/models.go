package domain

import "time"

// Options holds the four answer texts of a question, one per slot.
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Text returns the option text stored in slot s.
func (o Options) Text(s Slot) string {
	switch s {
	case SlotA:
		return o.A
	case SlotB:
		return o.B
	case SlotC:
		return o.C
	case SlotD:
		return o.D
	}
	return ""
}

// Complete reports whether every slot carries text.
func (o Options) Complete() bool {
	for _, slot := range Slots {
		if o.Text(slot) == "" {
			return false
		}
	}
	return true
}

// Question models a four-option MCQ question. It is immutable once loaded into a session.
type Question struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Options    Options `json:"options"`
	Correct    Slot    `json:"correct"`
	Difficulty string  `json:"difficulty"`
}

// DifficultyOrDefault returns the difficulty label, "Medium" when unset.
func (q Question) DifficultyOrDefault() string {
	if q.Difficulty == "" {
		return "Medium"
	}
	return q.Difficulty
}

// CorrectText returns the human-readable text of the correct option.
func (q Question) CorrectText() string {
	if text := q.Options.Text(q.Correct); text != "" {
		return text
	}
	return "Unknown"
}

// QuestionView is the newQuestion payload. It never carries the correct slot.
type QuestionView struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	Options        Options `json:"options"`
	Difficulty     string  `json:"difficulty"`
	Time           int     `json:"time"`
	QuestionNumber int     `json:"questionNumber"`
	TotalQuestions int     `json:"totalQuestions"`
	SessionID      string  `json:"sessionId"`
}

// QuestionClosed is broadcast when the answer window ends and reveals the correct answer.
type QuestionClosed struct {
	CorrectAnswerSlot Slot   `json:"correctAnswerSlot"`
	CorrectAnswerText string `json:"correctAnswerText"`
	Explanation       string `json:"explanation"`
	QuestionNumber    int    `json:"questionNumber"`
	TotalQuestions    int    `json:"totalQuestions"`
}

// GameStarted is broadcast when a new session begins its lead-in.
type GameStarted struct {
	SessionID      string `json:"sessionId"`
	TotalQuestions int    `json:"totalQuestions"`
}

// GameStatus is the full state snapshot sent on request and to late joiners.
type GameStatus struct {
	QuestionsLoaded  int           `json:"questionsLoaded"`
	CurrentIndex     int           `json:"currentIndex"`
	AcceptingAnswers bool          `json:"acceptingAnswers"`
	SessionID        string        `json:"sessionId"`
	IsActive         bool          `json:"isActive"`
	Phase            string        `json:"phase"`
	CurrentQuestion  *QuestionView `json:"currentQuestion"`
}

// LeaderboardEntry is one row of the cross-session leaderboard.
type LeaderboardEntry struct {
	UserID         string  `json:"userId"`
	DisplayName    string  `json:"displayName"`
	Score          int     `json:"score"`
	Accuracy       float64 `json:"accuracy"`
	CorrectAnswers int     `json:"correctAnswers"`
	Attempts       int     `json:"attempts"`
}

// LeaderboardUpdate carries a full leaderboard snapshot; clients replace, never merge.
type LeaderboardUpdate struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// SessionResult aggregates one user's answers within a single session.
type SessionResult struct {
	UserID            string  `json:"userId"`
	DisplayName       string  `json:"displayName"`
	SessionScore      int     `json:"sessionScore"`
	QuestionsAnswered int     `json:"questionsAnswered"`
	CorrectAnswers    int     `json:"correctAnswers"`
	Accuracy          float64 `json:"accuracy"`
}

// GameCompleted is broadcast once the bank is exhausted.
type GameCompleted struct {
	TotalQuestions int             `json:"totalQuestions"`
	SessionID      string          `json:"sessionId"`
	FinalResults   []SessionResult `json:"finalResults"`
}

// Attempt is a scored answer written through to the score store.
type Attempt struct {
	UserID      string
	DisplayName string
	QuestionID  string
	SessionID   string
	Difficulty  string
	Selected    Slot
	RawAnswer   string
	Correct     bool
	Points      int
	AnsweredAt  time.Time
}

// AnswerResult is the personalized outcome returned to the answering user.
type AnswerResult struct {
	QuestionID        string             `json:"questionId"`
	SelectedSlot      Slot               `json:"selectedSlot"`
	Correct           bool               `json:"correct"`
	Points            int                `json:"points"`
	Bonus             bool               `json:"bonus"`
	CorrectAnswerText string             `json:"correctAnswer"`
	Message           string             `json:"message"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard"`
}

// Session lifecycle states recorded by a session registry.
const (
	SessionStatusStarted   = "started"
	SessionStatusCompleted = "completed"
	SessionStatusReset     = "reset"
)

// SessionRecord is the registry view of a session run.
type SessionRecord struct {
	SessionID      string     `json:"sessionId"`
	Status         string     `json:"status"`
	TotalQuestions int        `json:"totalQuestions"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
}

// Accuracy returns correct/attempts as a percentage rounded to two decimals.
func Accuracy(correct, attempts int) float64 {
	if attempts <= 0 {
		return 0
	}
	pct := float64(correct) * 100 / float64(attempts)
	return float64(int(pct*100+0.5)) / 100
}
