// Package file implements the file-backed SessionStore: all sessions live in
// a single JSON file as a flat list, keyed by secret code.
package file

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nextlevelbuilder/wamux/internal/crypto"
	"github.com/nextlevelbuilder/wamux/internal/store"
)

// SessionStore persists sessions to a JSON file (e.g. <data>/sessions.json).
// When encKey is set the file is sealed with AES-256-GCM at rest.
type SessionStore struct {
	path   string
	encKey string

	mu       sync.Mutex
	sessions []store.Session
}

// NewSessionStore creates a store backed by the JSON file at path.
// encKey may be empty for a plaintext file.
func NewSessionStore(path, encKey string) (*SessionStore, error) {
	s := &SessionStore{path: path, encKey: encKey}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session with a fresh secret code and status "disconnected".
func (s *SessionStore) Create() (*store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sess := store.Session{
		ID:         store.GenNewID(),
		SecretCode: store.NewSecretCode(),
		Status:     store.StatusDisconnected,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.sessions = append(s.sessions, sess)
	if err := s.save(); err != nil {
		s.sessions = s.sessions[:len(s.sessions)-1]
		return nil, err
	}

	slog.Info("session created", "secret_code", sess.SecretCode)
	return &sess, nil
}

// Find returns the session for a secret code.
func (s *SessionStore) Find(secretCode string) (*store.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].SecretCode == secretCode {
			sess := s.sessions[i]
			return &sess, true
		}
	}
	return nil, false
}

// List returns all sessions in creation order.
func (s *SessionStore) List() []store.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]store.Session, len(s.sessions))
	copy(result, s.sessions)
	return result
}

// SetStatus updates a session's status and bumps UpdatedAt.
func (s *SessionStore) SetStatus(secretCode string, status store.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.update(secretCode, func(sess *store.Session) {
		sess.Status = status
	})
}

// SetAuthRef updates the opaque credential handle ("" clears it).
func (s *SessionStore) SetAuthRef(secretCode, authRef string) error {
	return s.update(secretCode, func(sess *store.Session) {
		sess.AuthRef = authRef
	})
}

func (s *SessionStore) update(secretCode string, apply func(*store.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].SecretCode != secretCode {
			continue
		}
		apply(&s.sessions[i])

		// UpdatedAt must increase even when the clock stands still.
		now := time.Now().UTC()
		if !now.After(s.sessions[i].UpdatedAt) {
			now = s.sessions[i].UpdatedAt.Add(time.Millisecond)
		}
		s.sessions[i].UpdatedAt = now

		return s.save()
	}
	return store.ErrNotFound
}

func (s *SessionStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session store: %w", err)
	}

	data, err = crypto.Open(data, s.encKey)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	if err := json.Unmarshal(data, &s.sessions); err != nil {
		return fmt.Errorf("parse session store: %w", err)
	}
	return nil
}

func (s *SessionStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session store: %w", err)
	}

	data, err = crypto.Seal(data, s.encKey)
	if err != nil {
		return fmt.Errorf("seal session store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	return nil
}
