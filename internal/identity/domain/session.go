// Package domain models the signed-in session. All user-scoped state
// (entitlements, selection) hangs off an explicit session with create and
// destroy tied to login and logout; there are no ambient globals.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession indicates no user is signed in.
var ErrNoSession = errors.New("no active session")

// Session is the logged-in user context.
type Session struct {
	UserID    uuid.UUID
	Token     string
	StartedAt time.Time
}

// Credentials are the persisted login state on the device. Only the
// bearer token and user ID are stored; entitlements are always
// re-fetched.
type Credentials struct {
	UserID uuid.UUID
	Token  string
}

// CredentialRepository persists credentials in the local device store.
type CredentialRepository interface {
	Save(ctx context.Context, creds Credentials) error
	Load(ctx context.Context) (Credentials, error)
	Delete(ctx context.Context) error
}
