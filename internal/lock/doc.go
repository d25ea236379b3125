// Package lock provides the cross-process admission lock for the video channel.
//
// # Overview
//
// Only one viewer process may hold the live avatar video channel at a time.
// The lock is a single JSON record in the shared store:
//
//	{"owner": "<uuid>", "acquired_at": "<timestamp>"}
//
// A record older than the TTL (default 12s) is stale and may be reclaimed
// by any owner. The holder keeps the record fresh by refreshing it on a
// heartbeat interval shorter than the TTL (the session package refreshes
// every 5s).
//
// # Semantics
//
//   - Acquire: granted on absent, stale, or own record; denied otherwise
//   - Refresh: owner-scoped; a no-op once the lock is lost
//   - Release: owner-scoped; never deletes another owner's record
//
// # Known Limitation
//
// The store offers no atomic compare-and-set, so two processes reading and
// writing within the same instant can both believe they acquired. The race
// window is accepted and documented, not detected.
//
// # Failure Policy
//
// Store read failures and malformed records are treated as "no lock held".
// The lock fails open toward availability: a corrupted record should not
// permanently block every viewer on the machine.
package lock
