package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ScoreStore keeps scores in Redis.
//
//	SET   quiz:attempt:{session}:{question}:{user} 1 NX   (one attempt per triple)
//	ZSET  quiz:leaderboard                               (score per user, all sessions)
//	HASH  quiz:player:{user}                             (name, score, attempts, correct)
//	ZSET  quiz:session:{session}:scores                  (score per user, one session)
//	HASH  quiz:session:{session}:player:{user}           (score, attempts, correct)
//	HASH  quiz:player:{user}:difficulty                  ({difficulty}:answered|correct|score)
//	ZSET  quiz:player:{user}:sessions                    (session id by last answer, unix ms)
type ScoreStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreStore keeps per-session keys for ttl. Global totals never expire.
func NewScoreStore(client *redis.Client, ttl time.Duration) *ScoreStore {
	return &ScoreStore{client: client, ttl: ttl}
}

const leaderboardKey = "quiz:leaderboard"

func (s *ScoreStore) RecordAttempt(ctx context.Context, a domain.Attempt) error {
	marker := s.attemptKey(a)
	ok, err := s.client.SetNX(ctx, marker, "1", s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrDuplicateAttempt
	}

	correct := 0
	if a.Correct {
		correct = 1
	}
	player := s.playerKey(a.UserID)
	sessionScores := s.sessionKey(a.SessionID)
	sessionPlayer := s.sessionPlayerKey(a.SessionID, a.UserID)

	pipe := s.client.TxPipeline()
	pipe.ZIncrBy(ctx, leaderboardKey, float64(a.Points), a.UserID)
	pipe.HIncrBy(ctx, player, "score", int64(a.Points))
	pipe.HIncrBy(ctx, player, "attempts", 1)
	pipe.HIncrBy(ctx, player, "correct", int64(correct))
	if a.DisplayName != "" {
		pipe.HSet(ctx, player, "name", a.DisplayName)
	}
	difficulty := s.difficultyKey(a.UserID)
	pipe.HIncrBy(ctx, difficulty, a.Difficulty+":answered", 1)
	pipe.HIncrBy(ctx, difficulty, a.Difficulty+":correct", int64(correct))
	pipe.HIncrBy(ctx, difficulty, a.Difficulty+":score", int64(a.Points))
	pipe.ZAdd(ctx, s.playerSessionsKey(a.UserID), redis.Z{Score: float64(a.AnsweredAt.UnixMilli()), Member: a.SessionID})
	pipe.ZIncrBy(ctx, sessionScores, float64(a.Points), a.UserID)
	pipe.HIncrBy(ctx, sessionPlayer, "score", int64(a.Points))
	pipe.HIncrBy(ctx, sessionPlayer, "attempts", 1)
	pipe.HIncrBy(ctx, sessionPlayer, "correct", int64(correct))
	if s.ttl > 0 {
		pipe.Expire(ctx, sessionScores, s.ttl)
		pipe.Expire(ctx, sessionPlayer, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// release the marker so the stored state matches what was applied
		if delErr := s.client.Del(ctx, marker).Err(); delErr != nil {
			log.Printf("release attempt marker %s: %v", marker, delErr)
		}
		return err
	}
	return nil
}

func (s *ScoreStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	members, err := s.client.ZRevRange(ctx, leaderboardKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	stats, err := s.hashes(ctx, members, s.playerKey)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for i, userID := range members {
		h := stats[i]
		name := h["name"]
		if name == "" {
			name = userID
		}
		attempts, correct := atoi(h["attempts"]), atoi(h["correct"])
		entries = append(entries, domain.LeaderboardEntry{
			UserID:         userID,
			DisplayName:    name,
			Score:          atoi(h["score"]),
			Accuracy:       domain.Accuracy(correct, attempts),
			CorrectAnswers: correct,
			Attempts:       attempts,
		})
	}
	domain.SortLeaderboard(entries)
	return domain.Truncate(entries, limit), nil
}

func (s *ScoreStore) SessionResults(ctx context.Context, sessionID string, limit int) ([]domain.SessionResult, error) {
	members, err := s.client.ZRevRange(ctx, s.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	stats, err := s.hashes(ctx, members, func(userID string) string {
		return s.sessionPlayerKey(sessionID, userID)
	})
	if err != nil {
		return nil, err
	}
	names, err := s.names(ctx, members)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SessionResult, 0, len(members))
	for i, userID := range members {
		h := stats[i]
		attempts, correct := atoi(h["attempts"]), atoi(h["correct"])
		results = append(results, domain.SessionResult{
			UserID:            userID,
			DisplayName:       names[i],
			SessionScore:      atoi(h["score"]),
			QuestionsAnswered: attempts,
			CorrectAnswers:    correct,
			Accuracy:          domain.Accuracy(correct, attempts),
		})
	}
	domain.SortResults(results)
	return domain.Truncate(results, limit), nil
}

// UserStats reads the per-user hashes. Session details follow the session
// key ttl; sessions whose details expired are left out.
func (s *ScoreStore) UserStats(ctx context.Context, userID string, recentSessions int) (domain.UserStats, error) {
	pipe := s.client.Pipeline()
	playerCmd := pipe.HGetAll(ctx, s.playerKey(userID))
	difficultyCmd := pipe.HGetAll(ctx, s.difficultyKey(userID))
	sessionsCmd := pipe.ZRevRangeWithScores(ctx, s.playerSessionsKey(userID), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.UserStats{}, err
	}
	player := playerCmd.Val()
	if len(player) == 0 {
		return domain.UserStats{}, domain.ErrUserNotFound
	}

	stats := domain.NewUserStats(userID, player["name"])
	perDifficulty := map[string]map[string]int{}
	for field, v := range difficultyCmd.Val() {
		i := strings.LastIndex(field, ":")
		if i < 0 {
			continue
		}
		name := field[:i]
		if perDifficulty[name] == nil {
			perDifficulty[name] = map[string]int{}
		}
		perDifficulty[name][field[i+1:]] = atoi(v)
	}
	for name, f := range perDifficulty {
		stats.AddDifficulty(name, f["answered"], f["correct"], f["score"])
	}

	zs := sessionsCmd.Val()
	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i], _ = z.Member.(string)
	}
	details, err := s.hashes(ctx, ids, func(sessionID string) string {
		return s.sessionPlayerKey(sessionID, userID)
	})
	if err != nil {
		return domain.UserStats{}, err
	}
	sessions := make([]domain.SessionSummary, 0, len(zs))
	for i, z := range zs {
		h := details[i]
		if len(h) == 0 {
			continue
		}
		sessions = append(sessions, domain.SessionSummary{
			SessionID:         ids[i],
			SessionScore:      atoi(h["score"]),
			QuestionsAnswered: atoi(h["attempts"]),
			CorrectAnswers:    atoi(h["correct"]),
			LastAnswered:      time.UnixMilli(int64(z.Score)).UTC(),
		})
	}
	stats.SetSessions(sessions, recentSessions)
	return stats, nil
}

func (s *ScoreStore) hashes(ctx context.Context, members []string, key func(string) string) ([]map[string]string, error) {
	if len(members) == 0 {
		return nil, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))
	for i, m := range members {
		cmds[i] = pipe.HGetAll(ctx, key(m))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make([]map[string]string, len(members))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}

func (s *ScoreStore) names(ctx context.Context, members []string) ([]string, error) {
	if len(members) == 0 {
		return nil, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(members))
	for i, m := range members {
		cmds[i] = pipe.HGet(ctx, s.playerKey(m), "name")
	}
	// redis.Nil for players without a name is expected
	_, _ = pipe.Exec(ctx)
	out := make([]string, len(members))
	for i, cmd := range cmds {
		name, err := cmd.Result()
		if err != nil && err != redis.Nil {
			return nil, err
		}
		if name == "" {
			name = members[i]
		}
		out[i] = name
	}
	return out, nil
}

func (s *ScoreStore) attemptKey(a domain.Attempt) string {
	return fmt.Sprintf("quiz:attempt:%s:%s:%s", a.SessionID, a.QuestionID, a.UserID)
}

func (s *ScoreStore) playerKey(userID string) string {
	return "quiz:player:" + userID
}

func (s *ScoreStore) difficultyKey(userID string) string {
	return "quiz:player:" + userID + ":difficulty"
}

func (s *ScoreStore) playerSessionsKey(userID string) string {
	return "quiz:player:" + userID + ":sessions"
}

func (s *ScoreStore) sessionKey(sessionID string) string {
	return "quiz:session:" + sessionID + ":scores"
}

func (s *ScoreStore) sessionPlayerKey(sessionID, userID string) string {
	return "quiz:session:" + sessionID + ":player:" + userID
}

func atoi(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}
