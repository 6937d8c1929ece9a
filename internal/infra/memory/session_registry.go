package memory

import (
	"context"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
)

// SessionRegistry is an in-memory implementation of app.SessionRegistry.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionRecord
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]domain.SessionRecord),
	}
}

func (r *SessionRegistry) Started(_ context.Context, record domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[record.SessionID] = record
	return nil
}

func (r *SessionRegistry) Finished(_ context.Context, sessionID, status string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	// first terminal status wins
	if record.EndedAt != nil {
		return nil
	}
	record.Status = status
	record.EndedAt = &at
	r.sessions[sessionID] = record
	return nil
}

func (r *SessionRegistry) Get(_ context.Context, sessionID string) (domain.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.sessions[sessionID]
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return record, nil
}
