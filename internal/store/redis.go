package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	constants "vortdiveno/internal/constants"
	models "vortdiveno/internal/models"
	util "vortdiveno/internal/util"
)

// RedisStore persists sessions as JSON under a namespaced key.
// SET with EX writes the value and the refreshed TTL in one command,
// so every write slides the expiry atomically.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return constants.SessionKeyPrefix + sessionID
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.GameState, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", sessionID, err)
	}

	var state models.GameState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		// Malformed records are repaired by replacement rather than
		// propagated to every caller.
		util.LogWarn("Discarding malformed state for session %s: %v", sessionID, err)
		return nil, ErrNotFound
	}
	return &state, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID string, state *models.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state for %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", sessionID, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
