// ABOUTME: Connection lifecycle controller tying lock, gate, negotiation, and heartbeat together
// ABOUTME: Exposes the Connect/Disconnect/IsConnected seam to the embedding UI

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/avatar-link/internal/backend"
	"github.com/2389/avatar-link/internal/lock"
	"github.com/2389/avatar-link/internal/rtc"
	"github.com/2389/avatar-link/internal/store"
)

// Config holds the lifecycle timing knobs. Zero values fall back to the
// defaults the original deployment shipped with.
type Config struct {
	// DefaultAvatar is used when no selection is stored.
	DefaultAvatar string

	// ColdStartSettle is the wait after the backend reports a freshly
	// started worker, before negotiation proceeds.
	ColdStartSettle time.Duration

	// DisconnectSettle is the wait after tearing down during an avatar
	// switch, before the new worker is started.
	DisconnectSettle time.Duration

	// ReconnectSettle is the wait after starting the new worker during a
	// switch, before reconnecting.
	ReconnectSettle time.Duration

	// HeartbeatInterval is how often the admission lock is refreshed while
	// connected. Must be shorter than the lock TTL.
	HeartbeatInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultAvatar == "" {
		c.DefaultAvatar = "test_yongen"
	}
	if c.ColdStartSettle <= 0 {
		c.ColdStartSettle = 2 * time.Second
	}
	if c.DisconnectSettle <= 0 {
		c.DisconnectSettle = 500 * time.Millisecond
	}
	if c.ReconnectSettle <= 0 {
		c.ReconnectSettle = time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 5 * time.Second
	}
	return c
}

// Controller is the connection lifecycle state machine. One Controller
// manages at most one live media transport at a time; the admission lock
// is what keeps two viewer processes from both reaching Connected.
//
// All exported methods are safe for concurrent use.
type Controller struct {
	lock    *lock.Manager
	backend *backend.Client
	engine  *rtc.Engine
	store   store.Store
	cfg     Config
	logger  *slog.Logger

	mu            sync.Mutex
	state         State
	hidden        bool
	transport     rtc.PeerTransport
	heartbeatStop chan struct{}
	attemptCancel context.CancelFunc
}

// NewController wires a Controller from its collaborators.
func NewController(lk *lock.Manager, client *backend.Client, engine *rtc.Engine, s store.Store, cfg Config) *Controller {
	return &Controller{
		lock:    lk,
		backend: client,
		engine:  engine,
		store:   s,
		cfg:     cfg.withDefaults(),
		logger:  slog.Default().With("component", "session"),
	}
}

// Connect runs one full admission + readiness + negotiation cycle.
//
// Guards, checked before the lock is touched: a hidden viewer is rejected
// with ErrHidden; Connect while already Connected is a no-op; Connect
// while a previous attempt is in flight returns ErrAttemptInFlight.
//
// On any failure after admission the lock is released and the controller
// returns to Idle. There is no automatic retry.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.hidden {
		c.mu.Unlock()
		return ErrHidden
	}
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return nil
	case StateAcquiring, StateNegotiating:
		c.mu.Unlock()
		return ErrAttemptInFlight
	}
	c.state = StateAcquiring
	attemptCtx, cancel := context.WithCancel(ctx)
	c.attemptCancel = cancel
	c.mu.Unlock()

	err := c.connect(attemptCtx)
	if err != nil {
		c.abortAttempt()
		return err
	}
	return nil
}

// connect is the body of a connection attempt; the caller has already
// moved the state to Acquiring.
func (c *Controller) connect(ctx context.Context) error {
	if !c.lock.Acquire(ctx) {
		return ErrChannelBusy
	}

	c.setState(StateNegotiating)

	if err := c.ensureAvatarRunning(ctx); err != nil {
		return err
	}

	transport, err := c.engine.Negotiate(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateNegotiating {
		// Torn down while negotiation was completing; do not resurrect.
		c.mu.Unlock()
		transport.Close()
		return fmt.Errorf("connection attempt was cancelled")
	}
	c.transport = transport
	c.state = StateConnected
	c.attemptCancel = nil
	stop := make(chan struct{})
	c.heartbeatStop = stop
	c.mu.Unlock()

	go c.heartbeat(stop)
	c.logger.Info("connected", "owner", c.lock.Owner())
	return nil
}

// ensureAvatarRunning is the readiness gate: start the selected avatar's
// worker (or the default) and give a cold start time to settle.
func (c *Controller) ensureAvatarRunning(ctx context.Context) error {
	name := c.cfg.DefaultAvatar
	if raw, err := c.store.Get(ctx, store.KeySelectedAvatar); err == nil && len(raw) > 0 {
		name = string(raw)
	}

	result, err := c.backend.StartAvatar(ctx, name)
	if err != nil {
		return fmt.Errorf("starting avatar worker %q: %w", name, err)
	}

	if result.IsNewInstance {
		c.logger.Info("avatar worker cold-started, settling", "avatar", name, "settle", c.cfg.ColdStartSettle)
		sleep(ctx, c.cfg.ColdStartSettle)
	}
	return nil
}

// Disconnect tears down the session: the media transport is closed, the
// heartbeat stopped, and the admission lock released. Safe to call from
// any state; also cancels an in-flight connect attempt.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	if cancel := c.attemptCancel; cancel != nil {
		cancel()
		c.attemptCancel = nil
	}
	wasConnected := c.state == StateConnected
	transport := c.transport
	c.transport = nil
	stop := c.heartbeatStop
	c.heartbeatStop = nil
	c.state = StateIdle
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if transport != nil {
		transport.Close()
	}
	c.lock.Release(context.Background())

	if wasConnected {
		c.notifyBackend()
		c.logger.Info("disconnected")
	}
}

// notifyBackend tells the backend this viewer left. Best effort only.
func (c *Controller) notifyBackend() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.backend.Disconnect(ctx); err != nil {
		c.logger.Debug("leave notification failed", "error", err)
	}
}

// IsConnected reports whether media is currently flowing.
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleHidden is the lifecycle hook for the viewer moving to the
// background. A connected session is torn down immediately so the lock
// frees up for a foreground viewer; subsequent Connect calls are rejected
// until HandleVisible.
func (c *Controller) HandleHidden() {
	c.mu.Lock()
	c.hidden = true
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		c.logger.Info("viewer hidden while connected, releasing the channel")
		c.Disconnect()
	}
}

// HandleVisible is the lifecycle hook for the viewer returning to the
// foreground. It only lifts the connect guard; reconnecting is a user
// decision.
func (c *Controller) HandleVisible() {
	c.mu.Lock()
	c.hidden = false
	c.mu.Unlock()
}

// Shutdown is the unmount hook: tear everything down.
func (c *Controller) Shutdown() {
	c.Disconnect()
}

// heartbeat refreshes the admission lock until stopped. A missed refresh
// is not reported; the lock simply risks going stale and being claimed
// elsewhere.
func (c *Controller) heartbeat(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.lock.Refresh(context.Background())
		}
	}
}

// abortAttempt releases the lock and resets to Idle after a failed
// connect. The release is owner-scoped, so aborting before admission
// (hidden, denied, busy) touches nothing.
func (c *Controller) abortAttempt() {
	c.mu.Lock()
	if c.attemptCancel != nil {
		c.attemptCancel()
		c.attemptCancel = nil
	}
	if c.state == StateAcquiring || c.state == StateNegotiating {
		c.state = StateIdle
	}
	c.mu.Unlock()

	c.lock.Release(context.Background())
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
