package redis

import (
	"context"
	"strconv"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const activeSessionKey = "quiz:session:active"

// SessionRegistry records session runs in Redis.
// Each run is a hash at quiz:session:{id}; quiz:session:active names the
// running session while it is live.
type SessionRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{client: client, ttl: ttl}
}

func (r *SessionRegistry) Started(ctx context.Context, record domain.SessionRecord) error {
	key := r.key(record.SessionID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key,
		"status", record.Status,
		"totalQuestions", record.TotalQuestions,
		"startedAt", record.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	// best-effort liveness marker
	pipe.Set(ctx, activeSessionKey, record.SessionID, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *SessionRegistry) Finished(ctx context.Context, sessionID, status string, at time.Time) error {
	key := r.key(sessionID)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	// first terminal status wins
	first, err := r.client.HSetNX(ctx, key, "endedAt", at.UTC().Format(time.RFC3339Nano)).Result()
	if err != nil || !first {
		return err
	}
	if err := r.client.HSet(ctx, key, "status", status).Err(); err != nil {
		return err
	}
	active, err := r.client.Get(ctx, activeSessionKey).Result()
	if err == nil && active == sessionID {
		return r.client.Del(ctx, activeSessionKey).Err()
	}
	return nil
}

func (r *SessionRegistry) Get(ctx context.Context, sessionID string) (domain.SessionRecord, error) {
	h, err := r.client.HGetAll(ctx, r.key(sessionID)).Result()
	if err != nil {
		return domain.SessionRecord{}, err
	}
	if len(h) == 0 {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}

	record := domain.SessionRecord{SessionID: sessionID, Status: h["status"]}
	record.TotalQuestions, _ = strconv.Atoi(h["totalQuestions"])
	if ts, err := time.Parse(time.RFC3339Nano, h["startedAt"]); err == nil {
		record.StartedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, h["endedAt"]); err == nil {
		record.EndedAt = &ts
	}
	return record, nil
}

// Active returns the id of the running session, if any.
func (r *SessionRegistry) Active(ctx context.Context) (string, bool) {
	id, err := r.client.Get(ctx, activeSessionKey).Result()
	if err != nil {
		return "", false
	}
	return id, true
}

func (r *SessionRegistry) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
