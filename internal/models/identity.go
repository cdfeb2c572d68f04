package models

// ResolutionState is the identity resolver's state machine position.
type ResolutionState string

const (
	// ResolutionSignedOut means no authenticated user is present.
	ResolutionSignedOut ResolutionState = "signed_out"
	// ResolutionResolving means a user is present but their effective role
	// is not yet known. Consumers must neither allow nor deny yet.
	ResolutionResolving ResolutionState = "resolving"
	// ResolutionResolved means the effective role is settled.
	ResolutionResolved ResolutionState = "resolved"
)

// ResolvedIdentity is the one authoritative identity decision per session.
// It is derived, never persisted, and recomputed on every change to its
// input signals.
type ResolvedIdentity struct {
	State           ResolutionState
	UserID          string
	DisplayName     string
	Email           string
	IsAuthenticated bool
	// EffectiveRole is empty unless State is ResolutionResolved.
	EffectiveRole Role
	// IsGuest marks a session-scoped demo overlay. The overlay behaves like
	// a real role to the gate but grants no account-backed privileges.
	IsGuest bool
}

// SignedOut returns the identity of an unauthenticated session.
func SignedOut() ResolvedIdentity {
	return ResolvedIdentity{State: ResolutionSignedOut}
}

// Resolving returns the loading identity emitted right after sign-in.
func Resolving(userID, displayName, email string) ResolvedIdentity {
	return ResolvedIdentity{
		State:           ResolutionResolving,
		UserID:          userID,
		DisplayName:     displayName,
		Email:           email,
		IsAuthenticated: true,
	}
}
