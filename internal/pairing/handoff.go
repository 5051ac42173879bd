// Package pairing implements the pairing-code hand-off between a channel
// instance and the HTTP caller waiting to render a QR code.
//
// Each live instance owns one Handoff. The channel delivers codes as the
// provider emits them; an HTTP request either grabs the currently cached code
// synchronously or parks on Await until the next code (or a terminal event)
// arrives. Only one waiter is supported at a time; concurrent requests for
// the same in-progress pairing are served from the cache.
package pairing

import (
	"sync"
	"time"
)

// DefaultTimeout bounds how long Await blocks for a first code.
const DefaultTimeout = 30 * time.Second

// Handoff is a single-slot wait register for pairing codes.
type Handoff struct {
	mu        sync.Mutex
	code      string // most recent code, "" once connected or before first delivery
	connected bool
	closed    bool
	waiter    chan waitResult // nil when nobody waits
}

type waitResult struct {
	code string
	err  error
}

// New creates a Handoff in the waiting-for-first-code state.
func New() *Handoff {
	return &Handoff{}
}

// Deliver records a new pairing code, replacing any cached one, and resolves
// a pending waiter. No-op after Connected or Close.
func (h *Handoff) Deliver(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected || h.closed {
		return
	}
	h.code = code
	h.resolve(waitResult{code: code})
}

// Connected marks the pairing as complete: cached code is cleared and a
// pending waiter resolves with ErrAlreadyConnected.
func (h *Handoff) Connected() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.connected = true
	h.code = ""
	h.resolve(waitResult{err: ErrAlreadyConnected})
}

// Close marks the instance as gone (disconnected or logged out). A pending
// waiter fails with ErrConnectionClosed, distinct from a timeout, so the
// caller can decide whether to retry.
func (h *Handoff) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.code = ""
	h.resolve(waitResult{err: ErrConnectionClosed})
}

// CurrentCode returns the cached pairing code, or "" if none is available.
// Never blocks; used to fast-path repeat requests for the same pairing.
func (h *Handoff) CurrentCode() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.code
}

// Await blocks until the next pairing code is delivered, the instance
// connects (ErrAlreadyConnected), the instance dies (ErrConnectionClosed),
// or timeout elapses (ErrPairingTimeout).
//
// A cached code resolves immediately. A second concurrent Await fails with
// ErrWaitInProgress; callers should use CurrentCode instead.
func (h *Handoff) Await(timeout time.Duration) (string, error) {
	h.mu.Lock()

	switch {
	case h.connected:
		h.mu.Unlock()
		return "", ErrAlreadyConnected
	case h.closed:
		h.mu.Unlock()
		return "", ErrConnectionClosed
	case h.code != "":
		code := h.code
		h.mu.Unlock()
		return code, nil
	case h.waiter != nil:
		h.mu.Unlock()
		return "", ErrWaitInProgress
	}

	ch := make(chan waitResult, 1)
	h.waiter = ch
	h.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.code, res.err
	case <-timer.C:
		h.mu.Lock()
		if h.waiter == ch {
			h.waiter = nil
		}
		h.mu.Unlock()

		// A result may have raced the timer.
		select {
		case res := <-ch:
			return res.code, res.err
		default:
		}
		return "", ErrPairingTimeout
	}
}

// resolve hands the result to the pending waiter, if any. Caller holds mu.
func (h *Handoff) resolve(res waitResult) {
	if h.waiter == nil {
		return
	}
	h.waiter <- res
	h.waiter = nil
}
