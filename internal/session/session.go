// Package session holds the signed-in identity and its resolved role for the
// lifetime of an application root.
package session

import (
	"context"
	"time"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/guard"
)

type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventTokenRefreshed EventKind = "token_refreshed"
	EventSignedOut      EventKind = "signed_out"
)

// Event is pushed by a Provider whenever the identity changes.
// Session is nil after a sign-out.
type Event struct {
	Kind    EventKind
	Session *Session
}

// Provider is the identity service behind a Context.
type Provider interface {
	GetSession(ctx context.Context) (*Session, error)
	Subscribe(fn func(Event)) (unsubscribe func())
	SignOut(ctx context.Context) error
	// GetRole returns nil without error when the user has no profile row.
	GetRole(ctx context.Context, userID string) (*enums.Role, error)
}

type Snapshot struct {
	Session *Session
	Role    *enums.Role
	Loading bool
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{Loading: s.Loading}
	if s.Session != nil {
		sess := *s.Session
		out.Session = &sess
	}
	if s.Role != nil {
		role := *s.Role
		out.Role = &role
	}
	return out
}

func (s Snapshot) GuardInput() guard.Input {
	return guard.Input{
		Loading:    s.Loading,
		HasSession: s.Session != nil,
		Role:       s.Role,
	}
}

func (s Snapshot) UserID() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.UserID
}
