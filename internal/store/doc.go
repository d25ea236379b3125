// Package store provides the shared key-value state for avatar-link viewers.
//
// # Overview
//
// Every viewer process on a machine shares one SQLite-backed key-value
// store. It plays the role an origin-wide browser storage area would play
// for tabs: the admission lock, the bearer credential, and the chosen
// avatar identifier all live here under fixed keys so that independent
// processes observe each other's state.
//
// # Keys
//
//   - KeyConnectionLock: JSON lock record (see the lock package)
//   - KeyAuthToken: bearer credential for backend requests
//   - KeySelectedAvatar: the user's chosen avatar identifier
//
// # Consistency
//
// The store deliberately offers plain Get/Set/Delete with no atomic
// read-modify-write. Admission control on top of it is best-effort
// compare-and-set: two processes racing through a read-then-write window
// can both believe they won. That limitation is inherited from the design
// this store models and is documented rather than papered over.
//
// # SQLite Configuration
//
// The store uses WAL mode and a busy timeout so concurrent processes
// interleave without immediate SQLITE_BUSY failures:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA busy_timeout=2000;
//
// # Testing
//
// Use NewMockStore() for unit tests; it implements Store in memory and can
// simulate an unreadable medium via FailReads.
//
// Use NewSQLiteStore(filepath.Join(t.TempDir(), "state.db")) for
// integration tests with real SQLite.
package store
