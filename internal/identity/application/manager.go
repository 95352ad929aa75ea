// Package application manages session lifecycle: begin on login, resume
// from persisted credentials, end on logout.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minilingo/minilingo/internal/identity/domain"
)

// Manager owns the current session. Registered end hooks run on logout so
// session-scoped stores (entitlements, selection) are destroyed together
// with the session.
type Manager struct {
	credentials domain.CredentialRepository
	logger      *slog.Logger

	mu      sync.Mutex
	current *domain.Session
	onEnd   []func()
}

// NewManager creates a manager with no active session.
func NewManager(credentials domain.CredentialRepository, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{credentials: credentials, logger: logger}
}

// OnEnd registers a hook invoked when the session ends.
func (m *Manager) OnEnd(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = append(m.onEnd, fn)
}

// Begin starts a session for the user and persists the credentials.
func (m *Manager) Begin(ctx context.Context, userID uuid.UUID, token string) (*domain.Session, error) {
	session := &domain.Session{
		UserID:    userID,
		Token:     token,
		StartedAt: time.Now().UTC(),
	}

	if err := m.credentials.Save(ctx, domain.Credentials{UserID: userID, Token: token}); err != nil {
		return nil, fmt.Errorf("failed to persist credentials: %w", err)
	}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	m.logger.Info("session started", "user_id", userID.String())
	return session, nil
}

// Resume restores a session from persisted credentials.
func (m *Manager) Resume(ctx context.Context) (*domain.Session, error) {
	creds, err := m.credentials.Load(ctx)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		UserID:    creds.UserID,
		Token:     creds.Token,
		StartedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()
	return session, nil
}

// Current returns the active session, or ErrNoSession.
func (m *Manager) Current() (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, domain.ErrNoSession
	}
	return m.current, nil
}

// Token returns the active session's bearer token, empty when logged out.
// Backend clients use this as their token source.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// End destroys the session: credentials are deleted and every registered
// end hook runs, clearing all user-scoped state.
func (m *Manager) End(ctx context.Context) error {
	m.mu.Lock()
	session := m.current
	m.current = nil
	hooks := make([]func(), len(m.onEnd))
	copy(hooks, m.onEnd)
	m.mu.Unlock()

	if session == nil {
		return domain.ErrNoSession
	}

	for _, hook := range hooks {
		hook()
	}

	if err := m.credentials.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}

	m.logger.Info("session ended", "user_id", session.UserID.String())
	return nil
}
