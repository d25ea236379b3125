// ABOUTME: Avatar-switch reconnection protocol driven over the controller's command seam
// ABOUTME: disconnect -> settle -> start new worker -> settle -> reconnect

package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/avatar-link/internal/backend"
	"github.com/2389/avatar-link/internal/store"
)

// ControlSurface is the imperative seam the lifecycle controller exposes
// to whatever orchestrates avatar switching. Nothing else may reach into
// the controller's internals.
type ControlSurface interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// WorkerStarter is the slice of the backend client the switcher needs.
type WorkerStarter interface {
	StartAvatar(ctx context.Context, name string) (*backend.StartResult, error)
}

// Switcher changes which avatar the viewer is attached to, reconnecting
// when a session was live.
type Switcher struct {
	ctrl   ControlSurface
	worker WorkerStarter
	store  store.Store
	cfg    Config
	logger *slog.Logger
}

// NewSwitcher creates a Switcher over the given control surface.
func NewSwitcher(ctrl ControlSurface, worker WorkerStarter, s store.Store, cfg Config) *Switcher {
	return &Switcher{
		ctrl:   ctrl,
		worker: worker,
		store:  s,
		cfg:    cfg.withDefaults(),
		logger: slog.Default().With("component", "switch"),
	}
}

// Switch moves the viewer to a different avatar:
//
//  1. If connected, tear down and let the teardown settle.
//  2. Start the new avatar's worker.
//  3. On success, persist the selection, let the backend switch settle,
//     and reconnect if a session was live before.
//
// A backend failure leaves the controller Idle and is returned to the
// caller; no reconnect is attempted and nothing is retried.
func (s *Switcher) Switch(ctx context.Context, avatarID string) error {
	wasConnected := s.ctrl.IsConnected()
	if wasConnected {
		s.logger.Info("switching avatar, disconnecting current session", "avatar", avatarID)
		s.ctrl.Disconnect()
		sleep(ctx, s.cfg.DisconnectSettle)
	}

	if _, err := s.worker.StartAvatar(ctx, avatarID); err != nil {
		return fmt.Errorf("starting avatar %q: %w", avatarID, err)
	}

	if err := s.store.Set(ctx, store.KeySelectedAvatar, []byte(avatarID)); err != nil {
		s.logger.Warn("persisting avatar selection failed", "avatar", avatarID, "error", err)
	}

	if wasConnected {
		sleep(ctx, s.cfg.ReconnectSettle)
		s.logger.Info("reconnecting to new avatar", "avatar", avatarID)
		return s.ctrl.Connect(ctx)
	}
	return nil
}
