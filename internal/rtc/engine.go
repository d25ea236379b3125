// ABOUTME: Negotiation engine: one offer/answer exchange with the backend
// ABOUTME: Offer, bounded ICE gathering, submit, optional session registration, apply

package rtc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/avatar-link/internal/backend"
)

// DefaultGatherTimeout bounds the ICE candidate gathering wait. The
// browser-side original waited unboundedly; here a stuck gather fails the
// attempt instead.
const DefaultGatherTimeout = 10 * time.Second

// Engine performs one offer/answer exchange per connection attempt.
// It never retries; a failed attempt is surfaced and the caller decides.
type Engine struct {
	backend       *backend.Client
	newTransport  TransportFactory
	gatherTimeout time.Duration
	logger        *slog.Logger
}

// NewEngine creates an Engine. A zero gatherTimeout falls back to
// DefaultGatherTimeout.
func NewEngine(client *backend.Client, factory TransportFactory, gatherTimeout time.Duration) *Engine {
	if gatherTimeout <= 0 {
		gatherTimeout = DefaultGatherTimeout
	}
	return &Engine{
		backend:       client,
		newTransport:  factory,
		gatherTimeout: gatherTimeout,
		logger:        slog.Default().With("component", "negotiate"),
	}
}

// Negotiate drives a full exchange: create transport, produce the gathered
// offer, submit it, register the backend session id when one is assigned,
// and apply the answer. On success the live transport is returned; on any
// failure the transport is closed and an error returned.
//
// The caller's ctx doubles as the teardown signal: if it is cancelled while
// the backend round trip is in flight, the late answer is discarded instead
// of being applied to a dead session.
func (e *Engine) Negotiate(ctx context.Context) (PeerTransport, error) {
	transport, err := e.newTransport()
	if err != nil {
		return nil, fmt.Errorf("creating transport: %w", err)
	}

	offerCtx, cancel := context.WithTimeout(ctx, e.gatherTimeout)
	defer cancel()

	offer, err := transport.Offer(offerCtx)
	if err != nil {
		transport.Close()
		return nil, err
	}
	e.logger.Debug("local offer ready", "sdp_bytes", len(offer.SDP))

	answer, err := e.backend.Offer(ctx, offer.SDP, offer.Type)
	if err != nil {
		transport.Close()
		return nil, err
	}

	if answer.SessionID != "" {
		if err := e.backend.RegisterSession(ctx, answer.SessionID); err != nil {
			transport.Close()
			return nil, fmt.Errorf("registering session %s: %w", answer.SessionID, err)
		}
		e.logger.Debug("backend session registered", "session_id", answer.SessionID)
	}

	// Torn down while the answer was in flight: drop it.
	if ctx.Err() != nil {
		transport.Close()
		return nil, ctx.Err()
	}

	if err := transport.Apply(Description{SDP: answer.SDP, Type: answer.Type}); err != nil {
		transport.Close()
		return nil, err
	}

	e.logger.Info("negotiation complete", "session_id", answer.SessionID)
	return transport, nil
}
