// Package protocol defines the wire shapes for the wamux HTTP API.
// This package is importable by API clients.
package protocol

// Machine-readable error codes returned in API error bodies.
const (
	ErrInvalidRequest = "INVALID_REQUEST"
	ErrUnauthorized   = "UNAUTHORIZED"
	ErrNotFound       = "NOT_FOUND"
	ErrNotConnected   = "NOT_CONNECTED"
	ErrRateLimited    = "RATE_LIMITED"
	ErrInternal       = "INTERNAL"

	// Number resolution
	ErrNumberTooShort      = "NUMBER_TOO_SHORT"
	ErrNumberTooLong       = "NUMBER_TOO_LONG"
	ErrInvalidNumberFormat = "INVALID_NUMBER_FORMAT"
	ErrRecipientNotFound   = "RECIPIENT_NOT_FOUND"

	// Pairing
	ErrPairingTimeout   = "PAIRING_TIMEOUT"
	ErrConnectionClosed = "CONNECTION_CLOSED"

	// Media
	ErrMediaFetch = "MEDIA_FETCH_FAILED"
)

// ErrorShape describes an API error body.
type ErrorShape struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
