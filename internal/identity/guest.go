package identity

import (
	"sync"

	"github.com/employnext/jobcore/internal/models"
)

// SessionGuestStore is the in-memory GuestSessionStore implementation.
// It lives and dies with the browsing session and is never persisted.
type SessionGuestStore struct {
	mu     sync.Mutex
	role   models.Role
	active bool
}

// NewSessionGuestStore returns an empty guest store.
func NewSessionGuestStore() *SessionGuestStore {
	return &SessionGuestStore{}
}

// Get returns the granted role while the overlay is active.
func (s *SessionGuestStore) Get() (models.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return "", false
	}
	return s.role, true
}

// Set activates the overlay with the granted role.
func (s *SessionGuestStore) Set(role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
	s.active = true
}

// Clear deactivates the overlay.
func (s *SessionGuestStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = ""
	s.active = false
}
