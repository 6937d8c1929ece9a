package domain

import (
	"sort"
	"strings"
	"time"
)

// DifficultyStats aggregates a user's answers to questions of one difficulty.
type DifficultyStats struct {
	Answered int `json:"total"`
	Correct  int `json:"correct"`
	Score    int `json:"score"`
}

// SessionSummary is one session in a user's history.
type SessionSummary struct {
	SessionID         string    `json:"sessionId"`
	SessionScore      int       `json:"sessionScore"`
	QuestionsAnswered int       `json:"questionsAnswered"`
	CorrectAnswers    int       `json:"correctAnswers"`
	Accuracy          float64   `json:"accuracy"`
	LastAnswered      time.Time `json:"lastAnswered"`
}

// UserStats is the per-user report. ByDifficulty is keyed by the lower-cased
// difficulty; RecentSessions lists the latest sessions first.
type UserStats struct {
	UserID         string                     `json:"userId"`
	DisplayName    string                     `json:"displayName"`
	Score          int                        `json:"score"`
	Attempts       int                        `json:"attempts"`
	CorrectAnswers int                        `json:"correctAnswers"`
	Accuracy       float64                    `json:"accuracy"`
	ByDifficulty   map[string]DifficultyStats `json:"byDifficulty"`
	RecentSessions []SessionSummary           `json:"recentSessions"`
}

// NewUserStats starts an empty report. A blank name reads as the user id.
func NewUserStats(userID, displayName string) UserStats {
	if displayName == "" {
		displayName = userID
	}
	return UserStats{
		UserID:         userID,
		DisplayName:    displayName,
		ByDifficulty:   map[string]DifficultyStats{},
		RecentSessions: []SessionSummary{},
	}
}

// AddDifficulty folds answers of one difficulty into the breakdown and the totals.
func (u *UserStats) AddDifficulty(difficulty string, answered, correct, score int) {
	key := strings.ToLower(strings.TrimSpace(difficulty))
	if key == "" {
		key = "medium"
	}
	d := u.ByDifficulty[key]
	d.Answered += answered
	d.Correct += correct
	d.Score += score
	u.ByDifficulty[key] = d

	u.Attempts += answered
	u.CorrectAnswers += correct
	u.Score += score
	u.Accuracy = Accuracy(u.CorrectAnswers, u.Attempts)
}

// SetSessions sorts sessions latest first and keeps at most limit of them.
func (u *UserStats) SetSessions(sessions []SessionSummary, limit int) {
	for i := range sessions {
		sessions[i].Accuracy = Accuracy(sessions[i].CorrectAnswers, sessions[i].QuestionsAnswered)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].LastAnswered.Equal(sessions[j].LastAnswered) {
			return sessions[i].LastAnswered.After(sessions[j].LastAnswered)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})
	u.RecentSessions = Truncate(sessions, limit)
	if u.RecentSessions == nil {
		u.RecentSessions = []SessionSummary{}
	}
}
