// ABOUTME: Connection lifecycle states and the errors surfaced to the embedding UI
// ABOUTME: Idle -> Acquiring -> Negotiating -> Connected, re-entrant per cycle

package session

import "errors"

// State is the lifecycle state of the video connection.
type State int

const (
	// StateIdle means no connection and no attempt in progress.
	StateIdle State = iota

	// StateAcquiring means the admission lock is being taken.
	StateAcquiring

	// StateNegotiating means the readiness gate and offer/answer exchange
	// are in flight.
	StateNegotiating

	// StateConnected means media is flowing and the heartbeat is running.
	StateConnected
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// ErrHidden rejects a connect attempt while the viewer is in the
// background. No lock is touched.
var ErrHidden = errors.New("viewer is in the background; bring it to the foreground to connect")

// ErrChannelBusy means another viewer holds a live admission lock.
var ErrChannelBusy = errors.New("another viewer is using the video channel; disconnect it first")

// ErrAttemptInFlight rejects a connect while a previous attempt has not
// finished. The embedding UI is expected to disable its trigger, so this
// is a backstop rather than a normal path.
var ErrAttemptInFlight = errors.New("a connection attempt is already in progress")
