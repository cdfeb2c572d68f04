// Package gate is the authorization decision point for protected views.
// Authorize is a pure predicate over a resolved identity and a requirement:
// no side effects, no I/O, no suspension — it is unit-testable without any
// running identity store.
package gate

import "github.com/employnext/jobcore/internal/models"

// Requirement describes what a protected view demands.
type Requirement struct {
	// Roles lists the effective roles allowed in.
	Roles []models.Role
	// AllowGuest admits guest-overlay sessions whose granted role matches.
	AllowGuest bool
}

// Outcome is the gate's verdict.
type Outcome int

const (
	// OutcomePending means identity resolution has not settled; callers
	// must render a neutral waiting state, never flash a redirect.
	OutcomePending Outcome = iota
	// OutcomeAllow admits the caller.
	OutcomeAllow
	// OutcomeDeny refuses the caller; RedirectTo names where to send them.
	OutcomeDeny
)

// Decision is the full gate result.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
}

// Allowed is shorthand for Outcome == OutcomeAllow.
func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllow }

// Authorize maps (identity, requirement) to a decision:
//
//   - identity still resolving → Pending
//   - unauthenticated → deny, redirect to /login
//   - guest session → allowed only when the requirement admits guests and
//     the granted role matches
//   - otherwise → allowed when the effective role matches, else deny with a
//     redirect to /
func Authorize(id models.ResolvedIdentity, req Requirement) Decision {
	if id.State == models.ResolutionResolving {
		return Decision{Outcome: OutcomePending}
	}
	if !id.IsAuthenticated {
		return Decision{Outcome: OutcomeDeny, RedirectTo: "/login"}
	}

	if id.IsGuest {
		if req.AllowGuest && roleIn(id.EffectiveRole, req.Roles) {
			return Decision{Outcome: OutcomeAllow}
		}
		return Decision{Outcome: OutcomeDeny, RedirectTo: "/"}
	}

	if roleIn(id.EffectiveRole, req.Roles) {
		return Decision{Outcome: OutcomeAllow}
	}
	return Decision{Outcome: OutcomeDeny, RedirectTo: "/"}
}

func roleIn(role models.Role, roles []models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
