// Package redisstore implements the store.KV interface on Redis.
// Records and blobs are plain string values; JSON encoding happens at
// this layer so the scheduler sees the same contract as the Postgres
// backend.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/scribehq/scribe-api/internal/store"
)

// Store is a Redis-backed store.KV.
type Store struct {
	client *redis.Client
}

// New creates a Store connected to the given address and logical
// database.
func New(addr string, db int) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Ping verifies connectivity. Called once at startup.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying client connections.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get reads the JSON record stored under key into v.
func (s *Store) Get(ctx context.Context, key string, v any) error {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to read record %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode record %s: %w", key, err)
	}
	return nil
}

// Put writes v as a JSON record under key.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

// GetBlob reads the text blob stored under key.
func (s *Store) GetBlob(ctx context.Context, key string) (string, error) {
	blob, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return blob, nil
}

// PutBlob writes a text blob under key.
func (s *Store) PutBlob(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

// Delete removes the value under key; unknown keys are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

var _ store.KV = (*Store)(nil)
