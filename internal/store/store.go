// Package store defines the persisted session model and the SessionStore
// interface. The file-backed implementation lives in store/file; the
// in-memory live-instance table is owned by the registry and is never
// persisted here.
package store

import "errors"

// ErrNotFound is returned when no session exists for a secret code.
var ErrNotFound = errors.New("session not found")

// SessionStore is the durable secret_code -> session mapping.
//
// Writes are read-modify-write without cross-process locking; the design
// accepts eventual consistency between memory and disk, reconciled by every
// lifecycle transition re-writing full state.
type SessionStore interface {
	// Create inserts a new session with a fresh secret code and
	// status "disconnected".
	Create() (*Session, error)

	// Find returns the session for a secret code.
	Find(secretCode string) (*Session, bool)

	// List returns all sessions in creation order.
	List() []Session

	// SetStatus updates a session's status. UpdatedAt increases
	// monotonically with every call.
	SetStatus(secretCode string, status Status) error

	// SetAuthRef updates the opaque credential handle ("" clears it).
	SetAuthRef(secretCode, authRef string) error
}
