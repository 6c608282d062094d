package session

import (
	"context"
	"sync"
	"time"

	"github.com/guillermop/sellerauth/internal/apperrors"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process Store implementation
// Sessions do not survive restarts, which is fine for the broker: an interrupted
// authorization attempt is simply restarted by the front-end
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]entry

	// now is replaceable in tests
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]entry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Set(ctx context.Context, sessionID string, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.sessions[sessionID]
	if !ok {
		values = make(map[string]entry)
		s.sessions[sessionID] = values
	}

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	values[key] = e

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string, key string) (string, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID][key]
	s.mu.RUnlock()

	if !ok {
		return "", apperrors.ErrSessionValueNotFound
	}

	if !e.expiresAt.IsZero() && e.expiresAt.Before(s.now()) {
		// Prune lazily, expired value must read as absent
		_ = s.Delete(ctx, sessionID, key)
		return "", apperrors.ErrSessionValueNotFound
	}

	return e.value, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	delete(values, key)
	if len(values) == 0 {
		delete(s.sessions, sessionID)
	}

	return nil
}
