package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Infinity2209/user/pkg/access"
)

// SessionKey is the storage key the session record is persisted under.
const SessionKey = "auth"

// SessionState is either Anonymous or Authenticated.
type SessionState int

const (
	Anonymous SessionState = iota
	Authenticated
)

func (s SessionState) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Session is the persisted authenticated identity.
type Session struct {
	User  access.Identity `json:"user"`
	Token string          `json:"token"`
}

func (s *Session) valid() bool {
	return s.Token != "" && s.User.Role != ""
}

// SessionManager holds the current session and writes every transition
// through to Storage.
type SessionManager struct {
	mu      sync.RWMutex
	storage Storage
	current *Session
	log     logrus.FieldLogger
}

// NewSessionManager restores the session persisted in storage. A record that
// cannot be decoded is removed and the manager starts Anonymous. Only
// storage read failures are returned.
func NewSessionManager(ctx context.Context, storage Storage, log logrus.FieldLogger) (*SessionManager, error) {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if log == nil {
		log = discardLogger()
	}
	m := &SessionManager{storage: storage, log: log}

	data, err := storage.Load(ctx, SessionKey)
	switch {
	case errors.Is(err, ErrNoEntry):
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || !s.valid() {
		log.WithError(err).Warn("discarding unreadable session")
		if err := storage.Remove(ctx, SessionKey); err != nil {
			log.WithError(err).Warn("failed to remove unreadable session")
		}
		return m, nil
	}
	m.current = &s
	return m, nil
}

// Login persists identity and token and makes them the current session.
// On a storage failure the previous state is kept.
func (m *SessionManager) Login(ctx context.Context, identity access.Identity, token string) error {
	s := &Session{User: identity, Token: token}
	if !s.valid() {
		return fmt.Errorf("session requires a token and a role")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.storage.Save(ctx, SessionKey, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	m.current = s
	return nil
}

// Logout clears the session and removes the persisted record. The in-memory
// session is cleared even when removal fails.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	if err := m.storage.Remove(ctx, SessionKey); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Current returns a copy of the session, or nil when Anonymous.
func (m *SessionManager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// Identity returns the session identity, or nil when Anonymous.
func (m *SessionManager) Identity() *access.Identity {
	if s := m.Current(); s != nil {
		return &s.User
	}
	return nil
}

// Token returns the bearer token, or "" when Anonymous.
func (m *SessionManager) Token() string {
	if s := m.Current(); s != nil {
		return s.Token
	}
	return ""
}

func (m *SessionManager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Anonymous
	}
	return Authenticated
}
