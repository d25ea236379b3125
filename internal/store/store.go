// ABOUTME: Store interface and well-known keys for the shared viewer state
// ABOUTME: Backs the admission lock, bearer credential, and avatar selection

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("not found")

// ErrReadFailed is returned when the storage medium cannot be read at all.
// Callers that gate on stored state treat it as "state absent" (fail open).
var ErrReadFailed = errors.New("store read failed")

// ErrWriteFailed is returned when the storage medium cannot be written.
var ErrWriteFailed = errors.New("store write failed")

// Well-known keys in the shared store. Every viewer process on the machine
// reads and writes the same keys, which is what makes cross-process
// admission control possible.
const (
	// KeyConnectionLock holds the JSON-serialized admission lock record.
	KeyConnectionLock = "avatar_connection_lock"

	// KeyAuthToken holds the bearer credential for backend requests.
	KeyAuthToken = "auth_token"

	// KeySelectedAvatar holds the user's chosen avatar identifier.
	KeySelectedAvatar = "selected_avatar"
)

// Store defines the interface for the shared key-value state visible to
// every viewer process. Implementations must tolerate concurrent access
// from multiple processes; they are NOT required to provide atomic
// read-modify-write, and callers must not assume it.
type Store interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the value at key, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the value at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store
	Close() error
}
