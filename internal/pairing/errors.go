package pairing

import "errors"

var (
	// ErrPairingTimeout is returned when no code arrives within the wait bound
	// while the instance is neither connected nor closed.
	ErrPairingTimeout = errors.New("pairing code was not generated in time")

	// ErrConnectionClosed is returned when the instance dies while a wait is
	// outstanding.
	ErrConnectionClosed = errors.New("connection closed before pairing completed")

	// ErrAlreadyConnected signals that no code is needed: the instance
	// connected before one was ever produced.
	ErrAlreadyConnected = errors.New("already connected, no pairing code needed")

	// ErrWaitInProgress is returned to a second concurrent waiter.
	ErrWaitInProgress = errors.New("another pairing wait is already in progress")
)
