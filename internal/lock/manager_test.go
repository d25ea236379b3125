// ABOUTME: Tests for the cross-process admission lock
// ABOUTME: Validates mutual exclusion, staleness recovery, owner scoping, and fail-open reads

package lock

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/avatar-link/internal/store"
)

func TestManager_AcquireWhenAbsent(t *testing.T) {
	s := store.NewMockStore()
	m := NewManager(s, "owner-a", time.Minute)

	assert.True(t, m.Acquire(context.Background()))

	rec, stale := m.Holder(context.Background())
	require.NotNil(t, rec)
	assert.Equal(t, "owner-a", rec.Owner)
	assert.False(t, stale)
}

func TestManager_MutualExclusion(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	a := NewManager(s, "owner-a", time.Minute)
	b := NewManager(s, "owner-b", time.Minute)

	assert.True(t, a.Acquire(ctx))
	assert.False(t, b.Acquire(ctx), "second owner must be denied while the lock is live")

	// The record must still belong to A
	rec, _ := a.Holder(ctx)
	require.NotNil(t, rec)
	assert.Equal(t, "owner-a", rec.Owner)
}

func TestManager_ReacquireOwnLock(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	a := NewManager(s, "owner-a", time.Minute)

	assert.True(t, a.Acquire(ctx))
	assert.True(t, a.Acquire(ctx), "re-acquire by the same owner is granted")
}

func TestManager_StalenessRecovery(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	a := NewManager(s, "owner-a", 30*time.Millisecond)
	b := NewManager(s, "owner-b", 30*time.Millisecond)

	require.True(t, a.Acquire(ctx))
	assert.False(t, b.Acquire(ctx))

	// Let A's record go stale without a refresh
	time.Sleep(50 * time.Millisecond)

	assert.True(t, b.Acquire(ctx), "stale lock must be reclaimable regardless of owner")
	rec, stale := b.Holder(ctx)
	require.NotNil(t, rec)
	assert.Equal(t, "owner-b", rec.Owner)
	assert.False(t, stale)
}

func TestManager_RefreshIsOwnerScoped(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	a := NewManager(s, "owner-a", time.Minute)
	b := NewManager(s, "owner-b", time.Minute)

	require.True(t, a.Acquire(ctx))
	before, _ := a.Holder(ctx)

	b.Refresh(ctx)

	after, _ := a.Holder(ctx)
	require.NotNil(t, after)
	assert.Equal(t, "owner-a", after.Owner)
	assert.Equal(t, before.AcquiredAt, after.AcquiredAt, "foreign refresh must not touch the record")
}

func TestManager_RefreshExtendsOwnLock(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	a := NewManager(s, "owner-a", time.Minute)

	require.True(t, a.Acquire(ctx))
	before, _ := a.Holder(ctx)

	time.Sleep(5 * time.Millisecond)
	a.Refresh(ctx)

	after, _ := a.Holder(ctx)
	require.NotNil(t, after)
	assert.True(t, after.AcquiredAt.After(before.AcquiredAt))
}

func TestManager_ReleaseIsOwnerScoped(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	a := NewManager(s, "owner-a", time.Minute)
	b := NewManager(s, "owner-b", time.Minute)

	require.True(t, a.Acquire(ctx))

	b.Release(ctx)
	rec, _ := a.Holder(ctx)
	require.NotNil(t, rec, "foreign release must not delete the record")
	assert.Equal(t, "owner-a", rec.Owner)

	a.Release(ctx)
	rec, _ = a.Holder(ctx)
	assert.Nil(t, rec)
}

func TestManager_HeartbeatKeepsLockAlive(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	// TTL 60ms, refresh every 20ms: the record must never go stale
	a := NewManager(s, "owner-a", 60*time.Millisecond)
	b := NewManager(s, "owner-b", 60*time.Millisecond)

	require.True(t, a.Acquire(ctx))
	for i := 0; i < 6; i++ {
		time.Sleep(20 * time.Millisecond)
		a.Refresh(ctx)
		assert.False(t, b.Acquire(ctx), "refreshed lock must stay unclaimable")
	}
}

func TestManager_MalformedRecordFailsOpen(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, store.KeyConnectionLock, []byte("{not json")))

	b := NewManager(s, "owner-b", time.Minute)
	assert.True(t, b.Acquire(ctx), "malformed record is treated as no lock held")
}

func TestManager_UnreadableStoreFailsOpen(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	s.FailReads = true

	b := NewManager(s, "owner-b", time.Minute)
	assert.True(t, b.Acquire(ctx), "unreadable store is treated as no lock held")
}

func TestManager_ZeroTimestampIsStale(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	raw, err := json.Marshal(Record{Owner: "owner-a"})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, store.KeyConnectionLock, raw))

	b := NewManager(s, "owner-b", time.Minute)
	assert.True(t, b.Acquire(ctx))
}
