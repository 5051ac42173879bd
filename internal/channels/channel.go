// Package channels defines the capability interface to the external channel
// provider: the transport that pairs with a device and delivers messages.
// The registry drives lifecycle through this interface only; any concrete
// transport can sit behind it (channels/whatsapp is the real one, tests use
// a scripted fake).
package channels

import "context"

// CloseReason distinguishes the close event the provider reports.
type CloseReason int

const (
	// CloseTemporary is an unexpected drop; the session may reconnect with
	// the same credentials.
	CloseTemporary CloseReason = iota
	// CloseLoggedOut is an authenticated logout; the credentials are dead.
	CloseLoggedOut
)

func (r CloseReason) String() string {
	if r == CloseLoggedOut {
		return "logged_out"
	}
	return "temporary"
}

// Payload is one outbound message body.
type Payload struct {
	Text      string
	ImageData []byte // nil for text-only messages
	ImageMime string
}

// Hooks are the callbacks a live instance fires back into the lifecycle.
// All callbacks may be invoked from the provider's own goroutines.
type Hooks struct {
	// OnPairingCode fires for every pairing code the provider emits.
	OnPairingCode func(code string)

	// OnConnected fires once the link is established.
	OnConnected func()

	// OnClosed fires exactly once when the instance is gone.
	OnClosed func(reason CloseReason)

	// OnCredentials fires when the provider's stored credentials change,
	// with the opaque handle to persist.
	OnCredentials func(authRef string)
}

// Instance is a live handle to the provider session for one secret code.
type Instance interface {
	// Exists checks whether a canonical number is reachable on the channel.
	Exists(ctx context.Context, number string) (bool, error)

	// Send delivers a payload to a canonical number.
	Send(ctx context.Context, number string, p Payload) error

	// Logout performs an authenticated logout, invalidating the credentials.
	Logout(ctx context.Context) error

	// Close tears the instance down without logging out.
	Close()
}

// Provider creates live instances and manages their stored credentials.
type Provider interface {
	// Dial opens a new instance bound to the credentials behind authRef.
	// An empty authRef starts a fresh pairing; hooks.OnCredentials reports
	// the handle once one exists.
	Dial(ctx context.Context, secretCode, authRef string, hooks Hooks) (Instance, error)

	// DropAuth irreversibly discards the credentials behind authRef.
	// Dropping an empty or unknown ref is a no-op.
	DropAuth(ctx context.Context, authRef string) error
}
