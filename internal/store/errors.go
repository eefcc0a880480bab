package store

import "errors"

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested key does not exist in
	// the store.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable is returned when the backing store cannot be
	// reached. The scheduler logs this and proceeds with in-memory
	// state only.
	ErrUnavailable = errors.New("store unavailable")
)

// IsNotFound reports whether err is any kind of "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
