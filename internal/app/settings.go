package app

import "time"

// Settings holds the timing and scoring constants of the question loop.
type Settings struct {
	QuestionDuration time.Duration
	GraceDelay       time.Duration
	LeadIn           time.Duration
	// BonusWindow is measured from the moment the question opens.
	BonusWindow            time.Duration
	BasePoints             int
	BonusPoints            int
	LeaderboardLimit       int
	ResultsLimit           int
	RecentSessions         int
	StoreTimeout           time.Duration
	AdvanceWhenAllAnswered bool
}

// DefaultSettings returns the classroom defaults.
func DefaultSettings() Settings {
	return Settings{
		QuestionDuration: 30 * time.Second,
		GraceDelay:       time.Second,
		LeadIn:           3 * time.Second,
		BonusWindow:      5 * time.Second,
		BasePoints:       10,
		BonusPoints:      5,
		LeaderboardLimit: 10,
		ResultsLimit:     20,
		RecentSessions:   10,
		StoreTimeout:     5 * time.Second,
	}
}

// withDefaults fills zero values from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.QuestionDuration <= 0 {
		s.QuestionDuration = d.QuestionDuration
	}
	if s.GraceDelay <= 0 {
		s.GraceDelay = d.GraceDelay
	}
	if s.LeadIn < 0 {
		s.LeadIn = d.LeadIn
	}
	if s.BonusWindow <= 0 {
		s.BonusWindow = d.BonusWindow
	}
	if s.BasePoints <= 0 {
		s.BasePoints = d.BasePoints
	}
	if s.BonusPoints < 0 {
		s.BonusPoints = d.BonusPoints
	}
	if s.LeaderboardLimit <= 0 {
		s.LeaderboardLimit = d.LeaderboardLimit
	}
	if s.ResultsLimit <= 0 {
		s.ResultsLimit = d.ResultsLimit
	}
	if s.RecentSessions <= 0 {
		s.RecentSessions = d.RecentSessions
	}
	if s.StoreTimeout <= 0 {
		s.StoreTimeout = d.StoreTimeout
	}
	return s
}
