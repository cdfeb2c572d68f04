// Package models defines the domain entities shared by services and
// repositories.
package models

import "time"

// User is the identity principal. The ID is opaque and stable for the
// lifetime of the account.
type User struct {
	ID          string
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

// Role is the account role governing what a session may do.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCandidate || r == RoleRecruiter
}

// RoleRecord is the persisted userID→role mapping. One record per user,
// written only by the registration flow.
type RoleRecord struct {
	UserID    string
	Role      Role
	CreatedAt time.Time
}
