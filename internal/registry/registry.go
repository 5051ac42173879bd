// Package registry owns the in-memory table of live channel instances and
// drives every session lifecycle transition.
//
// All transitions for one secret code are serialized through a per-code
// mutex; transitions for different codes proceed in parallel. Each live
// instance carries a generation number, and lifecycle events from an
// instance that has been superseded are discarded instead of corrupting the
// newer instance's state.
//
// The table and the persisted status stay coherent: an entry exists exactly
// while the stored status is "connecting" or "connected", and every
// transition writes the store before the operation returns.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nextlevelbuilder/wamux/internal/channels"
	"github.com/nextlevelbuilder/wamux/internal/pairing"
	"github.com/nextlevelbuilder/wamux/internal/store"
)

const (
	// DefaultReconnectDelay is the fixed wait before re-dialing after an
	// unexpected close. Retried indefinitely, one reschedule per failure.
	DefaultReconnectDelay = 3 * time.Second
)

// live is one in-memory channel instance entry.
type live struct {
	secretCode string
	gen        uint64
	handle     channels.Instance // nil while the dial is still in flight
	handoff    *pairing.Handoff
	connected  bool
}

// Registry multiplexes live channel instances over one process.
type Registry struct {
	store          store.SessionStore
	provider       channels.Provider
	reconnectDelay time.Duration
	pairingTimeout time.Duration

	mu      sync.Mutex
	table   map[string]*live
	locks   map[string]*sync.Mutex
	lastGen uint64
	closed  bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithReconnectDelay overrides the fixed reconnect delay.
func WithReconnectDelay(d time.Duration) Option {
	return func(r *Registry) { r.reconnectDelay = d }
}

// WithPairingTimeout overrides how long Connect waits for a pairing code.
func WithPairingTimeout(d time.Duration) Option {
	return func(r *Registry) { r.pairingTimeout = d }
}

// New creates a registry over the given store and channel provider.
func New(st store.SessionStore, provider channels.Provider, opts ...Option) *Registry {
	r := &Registry{
		store:          st,
		provider:       provider,
		reconnectDelay: DefaultReconnectDelay,
		pairingTimeout: pairing.DefaultTimeout,
		table:          make(map[string]*live),
		locks:          make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ConnectResult is the outcome of a Connect call.
type ConnectResult struct {
	Status      store.Status
	PairingCode string // set only while Status is "connecting"
}

// Connect triggers or continues pairing for a secret code.
//
// Already-connected sessions return immediately. A session mid-pairing with
// a cached code returns it without waiting. Otherwise a new instance is
// dialed (superseding any stale entry) and the call blocks until the next
// pairing code arrives, the link opens, the instance dies, or the pairing
// timeout elapses.
func (r *Registry) Connect(ctx context.Context, secretCode string) (*ConnectResult, error) {
	h, res, err := r.ensure(ctx, secretCode)
	if err != nil || res != nil {
		return res, err
	}

	code, err := h.Await(r.pairingTimeout)
	switch {
	case errors.Is(err, pairing.ErrAlreadyConnected):
		return &ConnectResult{Status: store.StatusConnected}, nil
	case err != nil:
		return nil, err
	}
	return &ConnectResult{Status: store.StatusConnecting, PairingCode: code}, nil
}

// ensure resolves the fast paths under the per-code lock and otherwise dials
// a new instance, returning its handoff for the caller to wait on.
func (r *Registry) ensure(ctx context.Context, secretCode string) (*pairing.Handoff, *ConnectResult, error) {
	lock := r.lockFor(secretCode)
	lock.Lock()
	defer lock.Unlock()

	sess, ok := r.store.Find(secretCode)
	if !ok {
		return nil, nil, store.ErrNotFound
	}

	r.mu.Lock()
	entry := r.table[secretCode]
	r.mu.Unlock()

	if entry != nil {
		if entry.connected {
			return nil, &ConnectResult{Status: store.StatusConnected}, nil
		}
		if code := entry.handoff.CurrentCode(); code != "" {
			return nil, &ConnectResult{Status: store.StatusConnecting, PairingCode: code}, nil
		}
		return entry.handoff, nil, nil
	}

	entry, err := r.dial(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	return entry.handoff, nil, nil
}

// dial starts a new channel instance for the session. Caller holds the
// per-code lock. The entry is registered (and status persisted as
// "connecting") before the provider dial so that events arriving mid-dial
// find it; a failed dial rolls both back.
func (r *Registry) dial(ctx context.Context, sess *store.Session) (*live, error) {
	secretCode := sess.SecretCode

	if err := r.store.SetStatus(secretCode, store.StatusConnecting); err != nil {
		return nil, fmt.Errorf("persist connecting: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.forceStatus(secretCode, store.StatusDisconnected)
		return nil, ErrShuttingDown
	}
	r.lastGen++
	entry := &live{
		secretCode: secretCode,
		gen:        r.lastGen,
		handoff:    pairing.New(),
	}
	stale := r.table[secretCode]
	r.table[secretCode] = entry
	r.mu.Unlock()

	// A stale entry is superseded the moment the table is swapped; its
	// late events no longer match the current generation.
	if stale != nil {
		stale.handoff.Close()
		if stale.handle != nil {
			stale.handle.Close()
		}
	}

	gen := entry.gen
	hooks := channels.Hooks{
		OnPairingCode: func(code string) { r.onPairingCode(secretCode, gen, code) },
		OnConnected:   func() { r.onConnected(secretCode, gen) },
		OnClosed:      func(reason channels.CloseReason) { r.onClosed(secretCode, gen, reason) },
		OnCredentials: func(authRef string) { r.onCredentials(secretCode, gen, authRef) },
	}

	handle, err := r.provider.Dial(ctx, secretCode, sess.AuthRef, hooks)
	if err != nil {
		r.mu.Lock()
		if r.table[secretCode] == entry {
			delete(r.table, secretCode)
		}
		r.mu.Unlock()
		entry.handoff.Close()
		r.forceStatus(secretCode, store.StatusDisconnected)
		slog.Error("channel dial failed", "secret_code", secretCode, "error", err)
		return nil, fmt.Errorf("start channel instance: %w", err)
	}

	r.mu.Lock()
	entry.handle = handle
	r.mu.Unlock()

	slog.Info("channel instance started", "secret_code", secretCode, "gen", gen)
	return entry, nil
}

// Disconnect logs a session out. Idempotent: a session with no live
// instance still settles at "logged_out" and sheds any stray credentials.
func (r *Registry) Disconnect(ctx context.Context, secretCode string) error {
	lock := r.lockFor(secretCode)
	lock.Lock()
	defer lock.Unlock()

	sess, ok := r.store.Find(secretCode)
	if !ok {
		return store.ErrNotFound
	}

	r.mu.Lock()
	entry := r.table[secretCode]
	delete(r.table, secretCode)
	r.mu.Unlock()

	if entry != nil {
		entry.handoff.Close()
		if entry.handle != nil {
			if err := entry.handle.Logout(ctx); err != nil {
				slog.Warn("logout failed, forcing close", "secret_code", secretCode, "error", err)
				entry.handle.Close()
			}
		}
	}

	if err := r.store.SetStatus(secretCode, store.StatusLoggedOut); err != nil {
		return fmt.Errorf("persist logged_out: %w", err)
	}
	r.discardAuth(ctx, secretCode, sess.AuthRef)

	slog.Info("session disconnected", "secret_code", secretCode)
	return nil
}

// Active returns the connected instance for a secret code, if any.
func (r *Registry) Active(secretCode string) (channels.Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.table[secretCode]
	if entry == nil || !entry.connected || entry.handle == nil {
		return nil, false
	}
	return entry.handle, true
}

// IsLive reports whether an in-memory instance exists for a secret code.
func (r *Registry) IsLive(secretCode string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table[secretCode] != nil
}

// Resume re-dials every session persisted as connecting or connected.
// Called once on startup. Sessions without stored credentials cannot be
// resumed and are reconciled to "disconnected".
func (r *Registry) Resume(ctx context.Context) {
	for _, sess := range r.store.List() {
		if sess.Status != store.StatusConnected && sess.Status != store.StatusConnecting {
			continue
		}
		if sess.AuthRef == "" {
			slog.Warn("cannot resume session without credentials", "secret_code", sess.SecretCode)
			r.forceStatus(sess.SecretCode, store.StatusDisconnected)
			continue
		}

		slog.Info("resuming session", "secret_code", sess.SecretCode, "status", sess.Status)
		lock := r.lockFor(sess.SecretCode)
		lock.Lock()
		if _, err := r.dial(ctx, &sess); err != nil {
			slog.Error("resume failed", "secret_code", sess.SecretCode, "error", err)
		}
		lock.Unlock()
	}
}

// Shutdown closes every live instance without logging out. Statuses are left
// as persisted so the next boot resumes them.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.closed = true
	entries := make([]*live, 0, len(r.table))
	for _, e := range r.table {
		entries = append(entries, e)
	}
	r.table = make(map[string]*live)
	r.mu.Unlock()

	for _, e := range entries {
		e.handoff.Close()
		if e.handle != nil {
			e.handle.Close()
		}
	}
	slog.Info("registry shut down", "closed_instances", len(entries))
}

// --- Lifecycle event application ---

// onPairingCode: connecting -> connecting. The new code replaces any cached
// one and resolves a pending handoff waiter.
func (r *Registry) onPairingCode(secretCode string, gen uint64, code string) {
	lock := r.lockFor(secretCode)
	lock.Lock()
	defer lock.Unlock()

	entry := r.current(secretCode, gen)
	if entry == nil {
		return
	}

	entry.handoff.Deliver(code)
	r.forceStatus(secretCode, store.StatusConnecting)
	slog.Info("pairing code received", "secret_code", secretCode)
}

// onConnected: connecting|disconnected -> connected. Clears the cached
// pairing code and persists the new status.
func (r *Registry) onConnected(secretCode string, gen uint64) {
	lock := r.lockFor(secretCode)
	lock.Lock()
	defer lock.Unlock()

	entry := r.current(secretCode, gen)
	if entry == nil {
		return
	}

	r.mu.Lock()
	entry.connected = true
	r.mu.Unlock()

	entry.handoff.Connected()
	r.forceStatus(secretCode, store.StatusConnected)
	slog.Info("channel connected", "secret_code", secretCode)
}

// onClosed applies a provider close event: removal from the table, status
// persistence and, for temporary drops, the scheduled reconnect.
func (r *Registry) onClosed(secretCode string, gen uint64, reason channels.CloseReason) {
	lock := r.lockFor(secretCode)
	lock.Lock()
	defer lock.Unlock()

	entry := r.current(secretCode, gen)
	if entry == nil {
		return
	}

	r.mu.Lock()
	delete(r.table, secretCode)
	shuttingDown := r.closed
	r.mu.Unlock()

	entry.handoff.Close()
	slog.Info("channel closed", "secret_code", secretCode, "reason", reason.String())

	if reason == channels.CloseLoggedOut {
		r.forceStatus(secretCode, store.StatusLoggedOut)
		if sess, ok := r.store.Find(secretCode); ok {
			r.discardAuth(context.Background(), secretCode, sess.AuthRef)
		}
		return
	}

	r.forceStatus(secretCode, store.StatusDisconnected)
	if !shuttingDown {
		time.AfterFunc(r.reconnectDelay, func() { r.reconnect(secretCode) })
	}
}

// onCredentials persists the provider's credential handle when it changes.
func (r *Registry) onCredentials(secretCode string, gen uint64, authRef string) {
	lock := r.lockFor(secretCode)
	lock.Lock()
	defer lock.Unlock()

	if r.current(secretCode, gen) == nil {
		return
	}
	if sess, ok := r.store.Find(secretCode); ok && sess.AuthRef == authRef {
		return
	}
	if err := r.store.SetAuthRef(secretCode, authRef); err != nil {
		slog.Error("failed to persist credentials", "secret_code", secretCode, "error", err)
	}
}

// reconnect is the scheduled retry after an unexpected close. Skipped when
// the session was superseded, explicitly logged out, or the process is
// shutting down; a failed attempt reschedules once more.
func (r *Registry) reconnect(secretCode string) {
	lock := r.lockFor(secretCode)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	closed := r.closed
	_, alive := r.table[secretCode]
	r.mu.Unlock()
	if closed || alive {
		return
	}

	sess, ok := r.store.Find(secretCode)
	if !ok || sess.Status != store.StatusDisconnected {
		return
	}

	slog.Info("attempting reconnect", "secret_code", secretCode)
	if _, err := r.dial(context.Background(), sess); err != nil {
		slog.Warn("reconnect failed, rescheduling", "secret_code", secretCode, "error", err)
		time.AfterFunc(r.reconnectDelay, func() { r.reconnect(secretCode) })
	}
}

// --- helpers ---

// current returns the live entry for secretCode only if it still belongs to
// generation gen. Events from superseded instances resolve to nil and are
// discarded by the caller.
func (r *Registry) current(secretCode string, gen uint64) *live {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.table[secretCode]
	if entry == nil || entry.gen != gen {
		return nil
	}
	return entry
}

// lockFor returns the per-code transition mutex, creating it on first use.
func (r *Registry) lockFor(secretCode string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[secretCode]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[secretCode] = lock
	}
	return lock
}

// forceStatus persists a status, logging instead of failing: lifecycle
// callbacks have nowhere to return an error to.
func (r *Registry) forceStatus(secretCode string, status store.Status) {
	if err := r.store.SetStatus(secretCode, status); err != nil {
		slog.Error("failed to persist status", "secret_code", secretCode, "status", status, "error", err)
	}
}

// discardAuth drops provider credentials and clears the stored handle.
func (r *Registry) discardAuth(ctx context.Context, secretCode, authRef string) {
	if authRef == "" {
		return
	}
	if err := r.provider.DropAuth(ctx, authRef); err != nil {
		slog.Warn("failed to discard credentials", "secret_code", secretCode, "error", err)
	}
	if err := r.store.SetAuthRef(secretCode, ""); err != nil {
		slog.Error("failed to clear credential ref", "secret_code", secretCode, "error", err)
	}
}
