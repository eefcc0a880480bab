package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryKV is an in-process KV implementation. State does not survive
// restarts; it exists for tests and for running the service with
// store.driver=memory during development. Values round-trip through
// JSON so callers observe the same copy semantics as the durable
// backends.
type MemoryKV struct {
	mu      sync.RWMutex
	records map[string][]byte
	blobs   map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		records: make(map[string][]byte),
		blobs:   make(map[string]string),
	}
}

// Get reads the JSON record stored under key into v.
func (s *MemoryKV) Get(ctx context.Context, key string, v any) error {
	s.mu.RLock()
	raw, ok := s.records[key]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return json.Unmarshal(raw, v)
}

// Put writes v as a JSON record under key.
func (s *MemoryKV) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	s.mu.Lock()
	s.records[key] = raw
	s.mu.Unlock()
	return nil
}

// GetBlob reads the text blob stored under key.
func (s *MemoryKV) GetBlob(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return blob, nil
}

// PutBlob writes a text blob under key.
func (s *MemoryKV) PutBlob(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.blobs[key] = value
	s.mu.Unlock()
	return nil
}

// Delete removes the record or blob under key; unknown keys are a no-op.
func (s *MemoryKV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

var _ KV = (*MemoryKV)(nil)
