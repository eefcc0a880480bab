package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scribehq/scribe-api/internal/platform/logger"
	"github.com/scribehq/scribe-api/internal/store"
)

// KVStore implements the store.KV interface using PostgreSQL.
type KVStore struct {
	db store.DBTX
}

// NewKVStore creates a new KVStore backed by the given connection or
// transaction.
func NewKVStore(db store.DBTX) *KVStore {
	return &KVStore{
		db: db,
	}
}

// Get reads the JSON record stored under key into v.
func (s *KVStore) Get(ctx context.Context, key string, v any) error {
	query := `SELECT doc FROM kv_records WHERE key = $1`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to read record %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode record %s: %w", key, err)
	}
	return nil
}

// Put writes v as a JSON record under key, replacing any previous value.
func (s *KVStore) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}

	query := `
		INSERT INTO kv_records (key, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`

	if _, err := s.db.ExecContext(ctx, query, key, raw); err != nil {
		log := logger.FromContext(ctx)
		log.Error("failed to write record", "key", key, "error", err)
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

// GetBlob reads the text blob stored under key.
func (s *KVStore) GetBlob(ctx context.Context, key string) (string, error) {
	query := `SELECT blob FROM kv_blobs WHERE key = $1`

	var blob string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return blob, nil
}

// PutBlob writes an opaque text blob under key, replacing any previous
// value.
func (s *KVStore) PutBlob(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_blobs (key, blob, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()
	`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		log := logger.FromContext(ctx)
		log.Error("failed to write blob", "key", key, "error", err)
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

// Delete removes the record and blob under key. Unknown keys are a
// no-op.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_blobs WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

var _ store.KV = (*KVStore)(nil)
