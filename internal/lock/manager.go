// ABOUTME: Cross-process admission lock over the shared key-value store
// ABOUTME: Grants one viewer exclusive right to hold the live video channel

package lock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2389/avatar-link/internal/store"
)

// DefaultTTL is how long a lock record stays valid without a refresh.
// A holder that stops heartbeating loses the lock to the next acquirer
// after this much time.
const DefaultTTL = 12 * time.Second

// Record is the unit of mutual exclusion stored at the lock key.
type Record struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Manager mediates access to a single named lock in the shared store.
//
// The underlying store has no atomic read-modify-write, so Acquire is a
// best-effort compare-and-set: two processes racing through the same
// read-then-write window can both be granted. That window is accepted;
// the store medium does not offer anything stronger.
type Manager struct {
	store store.Store
	key   string
	ttl   time.Duration
	owner string
}

// NewManager creates a Manager for the given owner id. The owner id must be
// unique per process instance (one uuid generated at startup).
func NewManager(s store.Store, owner string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store: s,
		key:   store.KeyConnectionLock,
		ttl:   ttl,
		owner: owner,
	}
}

// Owner returns the owner id this manager acquires with.
func (m *Manager) Owner() string {
	return m.owner
}

// Acquire attempts to take the lock. It is granted when no record exists,
// when the existing record is stale, or when this owner already holds it
// (re-acquire refreshes the timestamp). A live record held by a different
// owner denies the acquire.
func (m *Manager) Acquire(ctx context.Context) bool {
	existing := m.read(ctx)
	if existing != nil && !m.stale(existing) && existing.Owner != m.owner {
		return false
	}
	m.write(ctx)
	return true
}

// Refresh rewrites the record with a fresh timestamp, but only while this
// owner still holds it. If the lock was lost (stolen after staleness, or
// released), Refresh is a no-op.
func (m *Manager) Refresh(ctx context.Context) {
	existing := m.read(ctx)
	if existing != nil && existing.Owner == m.owner {
		m.write(ctx)
	}
}

// Release deletes the record, but only while this owner holds it. Releasing
// a lock owned by someone else is a no-op.
func (m *Manager) Release(ctx context.Context) {
	existing := m.read(ctx)
	if existing != nil && existing.Owner == m.owner {
		_ = m.store.Delete(ctx, m.key)
	}
}

// Holder returns the current record and whether it is stale. A nil record
// means no lock is held (or the store could not be read, which callers
// treat the same way).
func (m *Manager) Holder(ctx context.Context) (*Record, bool) {
	rec := m.read(ctx)
	if rec == nil {
		return nil, false
	}
	return rec, m.stale(rec)
}

// read returns the current record, or nil when absent, unreadable, or
// malformed. Fail open: a broken store must not wedge every viewer.
func (m *Manager) read(ctx context.Context) *Record {
	raw, err := m.store.Get(ctx, m.key)
	if err != nil {
		return nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return &rec
}

func (m *Manager) write(ctx context.Context) {
	raw, err := json.Marshal(Record{Owner: m.owner, AcquiredAt: time.Now()})
	if err != nil {
		return
	}
	_ = m.store.Set(ctx, m.key, raw)
}

func (m *Manager) stale(rec *Record) bool {
	if rec.AcquiredAt.IsZero() {
		return true
	}
	return time.Since(rec.AcquiredAt) > m.ttl
}
