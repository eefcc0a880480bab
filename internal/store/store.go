package store

import "context"

// Well-known keys used by the scheduler. Result blobs are addressed per
// task id so the bucket index record stays small.
const (
	// TasksStateKey holds the serialized TaskBuckets JSON record.
	TasksStateKey = "tasks:state"

	// BadgeKey holds the current badge counter text, readable by a
	// polling UI.
	BadgeKey = "badge:text"

	// resultKeyPrefix namespaces per-task result blobs.
	resultKeyPrefix = "tasks:result:"
)

// ResultKey returns the blob key holding the generated article text for
// the given task id.
func ResultKey(taskID string) string {
	return resultKeyPrefix + taskID
}

// KV is a durable key-value blob store that survives process restarts.
// Implementations must return ErrNotFound (possibly wrapped) when a key
// does not exist.
type KV interface {
	// Get reads the JSON record stored under key into v.
	Get(ctx context.Context, key string, v any) error

	// Put writes v as a JSON record under key, replacing any previous value.
	Put(ctx context.Context, key string, v any) error

	// GetBlob reads the opaque text blob stored under key.
	GetBlob(ctx context.Context, key string) (string, error)

	// PutBlob writes an opaque text blob under key, replacing any
	// previous value.
	PutBlob(ctx context.Context, key, value string) error

	// Delete removes the record or blob under key. Deleting an unknown
	// key is not an error.
	Delete(ctx context.Context, key string) error
}
