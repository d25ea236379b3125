// ABOUTME: Tests for the avatar-switch protocol over the control surface seam
// ABOUTME: Verifies operation ordering, failure policy, and selection persistence

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/avatar-link/internal/backend"
	"github.com/2389/avatar-link/internal/store"
)

// fakeSurface records controller commands in order.
type fakeSurface struct {
	connected bool
	ops       *[]string
	connErr   error
}

func (f *fakeSurface) Connect(ctx context.Context) error {
	*f.ops = append(*f.ops, "connect")
	if f.connErr != nil {
		return f.connErr
	}
	f.connected = true
	return nil
}

func (f *fakeSurface) Disconnect() {
	*f.ops = append(*f.ops, "disconnect")
	f.connected = false
}

func (f *fakeSurface) IsConnected() bool { return f.connected }

// fakeStarter records start calls and can be scripted to fail.
type fakeStarter struct {
	ops      *[]string
	names    []string
	startErr error
}

func (f *fakeStarter) StartAvatar(ctx context.Context, name string) (*backend.StartResult, error) {
	*f.ops = append(*f.ops, "start")
	f.names = append(f.names, name)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &backend.StartResult{IsNewInstance: true}, nil
}

func newSwitchFixture(connected bool) (*Switcher, *fakeSurface, *fakeStarter, *store.MockStore, *[]string) {
	ops := &[]string{}
	surface := &fakeSurface{connected: connected, ops: ops}
	starter := &fakeStarter{ops: ops}
	st := store.NewMockStore()
	cfg := Config{DisconnectSettle: time.Millisecond, ReconnectSettle: time.Millisecond}
	return NewSwitcher(surface, starter, st, cfg), surface, starter, st, ops
}

func TestSwitcher_LiveSessionFollowsProtocolOrder(t *testing.T) {
	sw, surface, starter, st, ops := newSwitchFixture(true)

	require.NoError(t, sw.Switch(context.Background(), "tutor_ben"))

	assert.Equal(t, []string{"disconnect", "start", "connect"}, *ops)
	assert.Equal(t, []string{"tutor_ben"}, starter.names)
	assert.True(t, surface.IsConnected())

	raw, err := st.Get(context.Background(), store.KeySelectedAvatar)
	require.NoError(t, err)
	assert.Equal(t, "tutor_ben", string(raw))
}

func TestSwitcher_IdleSessionOnlyStartsWorker(t *testing.T) {
	sw, surface, _, st, ops := newSwitchFixture(false)

	require.NoError(t, sw.Switch(context.Background(), "tutor_ben"))

	assert.Equal(t, []string{"start"}, *ops, "no disconnect and no reconnect when nothing was live")
	assert.False(t, surface.IsConnected())

	raw, err := st.Get(context.Background(), store.KeySelectedAvatar)
	require.NoError(t, err)
	assert.Equal(t, "tutor_ben", string(raw))
}

func TestSwitcher_StartFailureSkipsReconnect(t *testing.T) {
	sw, surface, starter, st, ops := newSwitchFixture(true)
	starter.startErr = errors.New("worker pool exhausted")

	err := sw.Switch(context.Background(), "tutor_ben")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker pool exhausted")

	assert.Equal(t, []string{"disconnect", "start"}, *ops, "failure must not reconnect")
	assert.False(t, surface.IsConnected())

	_, getErr := st.Get(context.Background(), store.KeySelectedAvatar)
	assert.ErrorIs(t, getErr, store.ErrNotFound, "failed switch must not persist the selection")
}

func TestSwitcher_ReconnectErrorSurfaces(t *testing.T) {
	sw, surface, _, _, ops := newSwitchFixture(true)
	surface.connErr = ErrChannelBusy

	err := sw.Switch(context.Background(), "tutor_ben")
	assert.ErrorIs(t, err, ErrChannelBusy)
	assert.Equal(t, []string{"disconnect", "start", "connect"}, *ops)
}

func TestSwitcher_PersistFailureIsNotFatal(t *testing.T) {
	ops := &[]string{}
	surface := &fakeSurface{connected: false, ops: ops}
	starter := &fakeStarter{ops: ops}
	st := store.NewMockStore()
	st.FailWrites = true
	sw := NewSwitcher(surface, starter, st, Config{})

	assert.NoError(t, sw.Switch(context.Background(), "tutor_ben"), "selection persistence is best effort")
}
