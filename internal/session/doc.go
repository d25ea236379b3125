// Package session is the connection lifecycle controller for the avatar
// video channel.
//
// # State Machine
//
//	Idle --Connect--> Acquiring --lock granted--> Negotiating --success--> Connected
//	                      |                            |
//	                      +----denied/failure----------+--> Idle (lock released)
//
//	Connected --Disconnect / HandleHidden / Shutdown--> Idle
//
// Each cycle is re-entrant: after returning to Idle a new Connect starts
// fresh.
//
// # Admission
//
// Connect first checks visibility (a hidden viewer is rejected before the
// lock is touched), then takes the cross-process admission lock. Denial
// means another viewer holds the channel; the user may retry manually.
//
// # Readiness Gate
//
// Before negotiating, the selected avatar's backend worker is started
// (start-if-needed). A cold start gets one fixed settle delay; a worker
// that was already running proceeds immediately.
//
// # Heartbeat
//
// While Connected, the lock is refreshed every HeartbeatInterval (default
// 5s against a 12s TTL). The heartbeat stops the moment teardown begins.
// Refresh failures are not reported; the lock just risks going stale.
//
// # Avatar Switching
//
// Switcher drives the switch protocol over the controller's
// Connect/Disconnect/IsConnected seam: disconnect (if live), settle, start
// the new worker, settle, reconnect. A backend failure leaves the
// controller Idle with no reconnect attempt.
//
// # Failure Policy
//
// Every failure after admission releases the lock, returns the controller
// to Idle, and surfaces a human-readable error to the embedding UI. The
// controller never retries on its own and never holds a lock without an
// observable Connected session.
package session
