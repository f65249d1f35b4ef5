package store

import (
	"context"
	"sync"
	"time"

	constants "vortdiveno/internal/constants"
	models "vortdiveno/internal/models"
)

// MemoryStore is a map-backed GameStore for tests and development.
// Expiry is tracked per key and checked lazily on read.
type MemoryStore struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]memoryEntry
}

type memoryEntry struct {
	state     *models.GameState
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl == 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &MemoryStore{ttl: ttl, data: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.GameState, error) {
	s.mu.RLock()
	entry, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.data, sessionID)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return entry.state.Clone(), nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID string, state *models.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = memoryEntry{
		state:     state.Clone(),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.Get(ctx, sessionID)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
