package overrides

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keys for operator-supplied instruction overrides
const (
	KeyAnalysis = "instructions:analysis-override"
	KeyQA       = "instructions:qa-override"
)

// Store - Redis-backed store for system instruction overrides
// An empty value means the built-in instruction is used.
type Store struct {
	rdb *redis.Client
}

// NewStore - create an override store
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Get - read an override, empty string when unset
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read override %s: %w", key, err)
	}
	return val, nil
}

// Set - write an override; an empty value clears it
func (s *Store) Set(ctx context.Context, key, value string) error {
	if value == "" {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear override %s: %w", key, err)
		}
		return nil
	}
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to store override %s: %w", key, err)
	}
	return nil
}
