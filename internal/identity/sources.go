// Package identity reduces a session's raw identity signals — auth events,
// the persisted role record, and the ephemeral guest overlay — into one
// authoritative ResolvedIdentity per session.
package identity

import (
	"context"
	"sync"

	"github.com/employnext/jobcore/internal/models"
)

// AuthEventKind discriminates the auth-event stream.
type AuthEventKind int

const (
	// UserPresent is delivered on every sign-in.
	UserPresent AuthEventKind = iota
	// UserAbsent is delivered on every sign-out or session end.
	UserAbsent
)

// AuthUser is the snapshot carried by a user-present event.
type AuthUser struct {
	ID          string
	DisplayName string
	Email       string
}

// AuthEvent is one entry in the session's auth-event stream. Events for one
// session are strictly ordered.
type AuthEvent struct {
	Kind AuthEventKind
	User AuthUser
}

// AuthSessionSource emits the authenticated-session signal.
type AuthSessionSource interface {
	// Events returns the session's ordered auth-event stream.
	Events() <-chan AuthEvent
	// Current returns the present user snapshot, if any.
	Current() (AuthUser, bool)
}

// RoleStore is the persisted userID→role lookup. Get returns
// common.ErrorNotFound when no record exists. Set is the registration-only
// write path.
type RoleStore interface {
	Get(ctx context.Context, userID string) (models.Role, error)
	Set(ctx context.Context, userID string, role models.Role) error
}

// GuestSessionStore holds the ephemeral guest overlay. It is scoped to the
// browsing session and must not survive session termination.
type GuestSessionStore interface {
	Get() (models.Role, bool)
	Set(role models.Role)
	Clear()
}

// SessionSource is an in-process AuthSessionSource. SignIn and SignOut feed
// the event stream consumed by a Resolver.
type SessionSource struct {
	mu      sync.Mutex
	events  chan AuthEvent
	user    AuthUser
	present bool
}

// NewSessionSource returns a source with a buffered event stream.
func NewSessionSource() *SessionSource {
	return &SessionSource{events: make(chan AuthEvent, 16)}
}

// SignIn records the user and emits a user-present event.
func (s *SessionSource) SignIn(u AuthUser) {
	s.mu.Lock()
	s.user = u
	s.present = true
	s.mu.Unlock()
	s.events <- AuthEvent{Kind: UserPresent, User: u}
}

// SignOut clears the snapshot and emits a user-absent event.
func (s *SessionSource) SignOut() {
	s.mu.Lock()
	s.user = AuthUser{}
	s.present = false
	s.mu.Unlock()
	s.events <- AuthEvent{Kind: UserAbsent}
}

// Events implements AuthSessionSource.
func (s *SessionSource) Events() <-chan AuthEvent { return s.events }

// Current implements AuthSessionSource.
func (s *SessionSource) Current() (AuthUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.present
}

// Close ends the event stream. A running Resolver returns once drained.
func (s *SessionSource) Close() { close(s.events) }
