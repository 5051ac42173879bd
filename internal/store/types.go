package store

import (
	"time"

	"github.com/google/uuid"
)

// Status is the persisted lifecycle state of a session.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusLoggedOut    Status = "logged_out"
)

// Valid reports whether s is one of the four known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusDisconnected, StatusConnecting, StatusConnected, StatusLoggedOut:
		return true
	}
	return false
}

// Session is one persisted messaging session. SecretCode is the caller-facing
// key and is immutable once created. AuthRef is an opaque handle to the
// pairing credentials held by the channel provider ("" when none).
type Session struct {
	ID         uuid.UUID `json:"id"`
	SecretCode string    `json:"secret_code"`
	AuthRef    string    `json:"auth_ref,omitempty"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GenNewID generates a new UUID v7 (time-ordered).
func GenNewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewSecretCode generates a fresh opaque secret code for a session.
func NewSecretCode() string {
	return uuid.NewString()
}
