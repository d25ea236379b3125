// ABOUTME: Tests for the shared key-value store implementations
// ABOUTME: Covers both the in-memory mock and the SQLite-backed store

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_GetMissing(t *testing.T) {
	s := NewMockStore()
	defer s.Close()

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_SetGetDelete(t *testing.T) {
	s := NewMockStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyAuthToken, []byte("secret")))

	v, err := s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), v)

	require.NoError(t, s.Delete(ctx, KeyAuthToken))
	_, err = s.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_DeleteMissingIsNoError(t *testing.T) {
	s := NewMockStore()
	defer s.Close()

	assert.NoError(t, s.Delete(context.Background(), "never-set"))
}

func TestMockStore_GetReturnsCopy(t *testing.T) {
	s := NewMockStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("abc")))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	v[0] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMockStore_FailReads(t *testing.T) {
	s := NewMockStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("abc")))

	s.FailReads = true
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Get(ctx, KeyConnectionLock)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyConnectionLock, []byte(`{"owner":"a"}`)))

	v, err := s.Get(ctx, KeyConnectionLock)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"a"}`, string(v))

	// Overwrite in place
	require.NoError(t, s.Set(ctx, KeyConnectionLock, []byte(`{"owner":"b"}`)))
	v, err = s.Get(ctx, KeyConnectionLock)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"b"}`, string(v))

	require.NoError(t, s.Delete(ctx, KeyConnectionLock))
	_, err = s.Get(ctx, KeyConnectionLock)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SharedBetweenOpens(t *testing.T) {
	// Two opens of the same path model two viewer processes sharing state.
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	a, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer a.Close()

	b, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set(ctx, KeySelectedAvatar, []byte("tutor_amy")))

	v, err := b.Get(ctx, KeySelectedAvatar)
	require.NoError(t, err)
	assert.Equal(t, "tutor_amy", string(v))
}
