package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string `yaml:"port"`
		ClientQueue int    `yaml:"client_queue"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Quiz struct {
		TTL   string `yaml:"ttl"`
		Limit int    `yaml:"limit"`
	} `yaml:"quiz"`
	Scores struct {
		// Driver is one of memory, redis, postgres or mongo.
		Driver string `yaml:"driver"`
	} `yaml:"scores"`
	Game Game `yaml:"game"`
}

// Game holds the question loop timing and scoring. Durations use time.ParseDuration syntax.
type Game struct {
	QuestionDuration       string `yaml:"question_duration"`
	GraceDelay             string `yaml:"grace_delay"`
	LeadIn                 string `yaml:"lead_in"`
	BonusWindow            string `yaml:"bonus_window"`
	BasePoints             int    `yaml:"base_points"`
	// BonusPoints is a pointer so an explicit 0 turns the bonus off.
	BonusPoints            *int   `yaml:"bonus_points"`
	LeaderboardLimit       int    `yaml:"leaderboard_limit"`
	ResultsLimit           int    `yaml:"results_limit"`
	StoreTimeout           string `yaml:"store_timeout"`
	AdvanceWhenAllAnswered bool   `yaml:"advance_when_all_answered"`
}

// Load reads YAML config from path, expanding ${VAR} references from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
