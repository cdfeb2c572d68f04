// Package httpapi exposes the jobcore services over HTTP. Session tokens
// ride in the Authorization header; every protected route group passes
// through the authorization gate before its handler runs.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/employnext/jobcore/internal/auth"
	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/gate"
	"github.com/employnext/jobcore/internal/metrics"
	"github.com/employnext/jobcore/internal/models"
)

type ctxKey int

const identityKey ctxKey = iota

// WithIdentity returns a child context carrying the resolved identity.
func WithIdentity(ctx context.Context, id models.ResolvedIdentity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the request's resolved identity. Requests that
// never passed SessionMiddleware read as signed out.
func IdentityFromContext(ctx context.Context) models.ResolvedIdentity {
	if id, ok := ctx.Value(identityKey).(models.ResolvedIdentity); ok {
		return id
	}
	return models.SignedOut()
}

// SessionMiddleware verifies the Bearer token and stores the identity it
// carries in the request context. Requests without a token proceed as signed
// out; requests with a bad token are rejected here so handlers never see a
// half-trusted identity.
func SessionMiddleware(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), models.SignedOut())))
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respondError(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}

			session, err := auth.SessionFromToken(tokenString, secretKey)
			if err != nil {
				if errors.Is(err, common.ErrTokenExpired) {
					respondError(w, http.StatusUnauthorized, "token expired")
					return
				}
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			identity := models.ResolvedIdentity{
				State:           models.ResolutionResolved,
				UserID:          session.UserID,
				DisplayName:     session.DisplayName,
				Email:           session.Email,
				IsAuthenticated: true,
				EffectiveRole:   session.Role,
				IsGuest:         session.Guest,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireMiddleware runs the gate for every request in a route group.
// Denials carry the gate's redirect target so clients route the user without
// guessing.
func RequireMiddleware(req gate.Requirement, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			decision := gate.Authorize(identity, req)

			switch decision.Outcome {
			case gate.OutcomeAllow:
				next.ServeHTTP(w, r)
			case gate.OutcomePending:
				// Resolution has not settled; the client should retry, not
				// treat this as a denial.
				w.Header().Set("Retry-After", "1")
				respondError(w, http.StatusServiceUnavailable, "identity resolution pending")
			default:
				status := http.StatusForbidden
				reason := "role"
				if decision.RedirectTo == "/login" {
					status = http.StatusUnauthorized
					reason = "unauthenticated"
				} else if identity.IsGuest {
					reason = "guest"
				}
				rec.RecordAuthorizationDenied(reason)
				respondJSON(w, status, map[string]string{
					"error":       http.StatusText(status),
					"redirect_to": decision.RedirectTo,
				})
			}
		})
	}
}
