// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailReads makes every Get return ErrReadFailed, simulating an
	// unavailable storage medium.
	FailReads bool

	// FailWrites makes every Set return ErrWriteFailed.
	FailWrites bool
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		values: make(map[string][]byte),
	}
}

// Get returns the value stored at key, or ErrNotFound.
func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return nil, ErrReadFailed
	}

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to avoid external modification
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set writes the value at key.
func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrWriteFailed
	}

	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	return nil
}

// Delete removes the value at key.
func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// Len returns the number of stored keys.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
