package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/logging"
	"github.com/employnext/jobcore/internal/models"
)

// fakeRoleStore lets tests control lookup results and block lookups to
// exercise the stale-result guard.
type fakeRoleStore struct {
	mu      sync.Mutex
	roles   map[string]models.Role
	err     error
	blockCh chan struct{} // when set, Get waits for it before answering
	calls   int
}

func (f *fakeRoleStore) Get(ctx context.Context, userID string) (models.Role, error) {
	f.mu.Lock()
	block := f.blockCh
	f.calls++
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return role, nil
}

func (f *fakeRoleStore) Set(ctx context.Context, userID string, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roles == nil {
		f.roles = map[string]models.Role{}
	}
	f.roles[userID] = role
	return nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func startResolver(t *testing.T, roles RoleStore) (*Resolver, *SessionSource, <-chan models.ResolvedIdentity) {
	t.Helper()
	src := NewSessionSource()
	r := NewResolver(roles, NewSessionGuestStore(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, src.Events())
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	updates, unsub := r.Subscribe()
	t.Cleanup(unsub)
	return r, src, updates
}

func waitFor(t *testing.T, updates <-chan models.ResolvedIdentity, pred func(models.ResolvedIdentity) bool) models.ResolvedIdentity {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case id, ok := <-updates:
			if !ok {
				t.Fatal("subscription closed")
			}
			if pred(id) {
				return id
			}
		case <-deadline:
			t.Fatal("timed out waiting for identity update")
		}
	}
}

func resolved(id models.ResolvedIdentity) bool { return id.State == models.ResolutionResolved }

func TestResolver_SignInResolvesPersistedRole(t *testing.T) {
	roles := &fakeRoleStore{roles: map[string]models.Role{"u-1": models.RoleRecruiter}}
	_, src, updates := startResolver(t, roles)

	src.SignIn(AuthUser{ID: "u-1", DisplayName: "Rita", Email: "rita@example.com"})

	loading := waitFor(t, updates, func(id models.ResolvedIdentity) bool {
		return id.State == models.ResolutionResolving
	})
	assert.True(t, loading.IsAuthenticated)
	assert.Empty(t, loading.EffectiveRole)

	id := waitFor(t, updates, resolved)
	assert.Equal(t, models.RoleRecruiter, id.EffectiveRole)
	assert.False(t, id.IsGuest)
	assert.Equal(t, "u-1", id.UserID)
}

func TestResolver_AbsentRoleDefaultsToCandidate(t *testing.T) {
	_, src, updates := startResolver(t, &fakeRoleStore{})

	src.SignIn(AuthUser{ID: "u-2"})

	id := waitFor(t, updates, resolved)
	assert.Equal(t, models.RoleCandidate, id.EffectiveRole)
}

func TestResolver_LookupErrorDefaultsToCandidate(t *testing.T) {
	_, src, updates := startResolver(t, &fakeRoleStore{err: errors.New("store down")})

	src.SignIn(AuthUser{ID: "u-3"})

	id := waitFor(t, updates, resolved)
	assert.Equal(t, models.RoleCandidate, id.EffectiveRole)
	assert.True(t, id.IsAuthenticated)
}

func TestResolver_GuestOverlayWinsOverPersistedRole(t *testing.T) {
	roles := &fakeRoleStore{roles: map[string]models.Role{"u-4": models.RoleRecruiter}}
	r, src, updates := startResolver(t, roles)

	src.SignIn(AuthUser{ID: "u-4"})
	waitFor(t, updates, resolved)

	r.SetGuest(models.RoleCandidate)

	id := waitFor(t, updates, func(id models.ResolvedIdentity) bool {
		return resolved(id) && id.IsGuest
	})
	assert.Equal(t, models.RoleCandidate, id.EffectiveRole)
	assert.True(t, id.IsGuest)
}

func TestResolver_GuestOverlaySkipsLookupOnSignIn(t *testing.T) {
	roles := &fakeRoleStore{roles: map[string]models.Role{"u-5": models.RoleCandidate}}
	src := NewSessionSource()
	guest := NewSessionGuestStore()
	guest.Set(models.RoleRecruiter)
	r := NewResolver(roles, guest, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx, src.Events())

	updates, unsub := r.Subscribe()
	defer unsub()

	src.SignIn(AuthUser{ID: "u-5"})

	id := waitFor(t, updates, resolved)
	assert.Equal(t, models.RoleRecruiter, id.EffectiveRole)
	assert.True(t, id.IsGuest)

	roles.mu.Lock()
	defer roles.mu.Unlock()
	assert.Zero(t, roles.calls, "guest overlay must skip the role lookup")
}

func TestResolver_ClearGuestRestoresPersistedRole(t *testing.T) {
	roles := &fakeRoleStore{roles: map[string]models.Role{"u-6": models.RoleRecruiter}}
	r, src, updates := startResolver(t, roles)

	src.SignIn(AuthUser{ID: "u-6"})
	waitFor(t, updates, resolved)

	r.SetGuest(models.RoleCandidate)
	waitFor(t, updates, func(id models.ResolvedIdentity) bool { return id.IsGuest })

	r.ClearGuest(context.Background())

	id := waitFor(t, updates, func(id models.ResolvedIdentity) bool {
		return resolved(id) && !id.IsGuest
	})
	assert.Equal(t, models.RoleRecruiter, id.EffectiveRole)
}

func TestResolver_SignOutClearsEverything(t *testing.T) {
	roles := &fakeRoleStore{roles: map[string]models.Role{"u-7": models.RoleRecruiter}}
	r, src, updates := startResolver(t, roles)

	src.SignIn(AuthUser{ID: "u-7"})
	waitFor(t, updates, resolved)
	r.SetGuest(models.RoleCandidate)
	waitFor(t, updates, func(id models.ResolvedIdentity) bool { return id.IsGuest })

	src.SignOut()

	id := waitFor(t, updates, func(id models.ResolvedIdentity) bool {
		return id.State == models.ResolutionSignedOut
	})
	assert.False(t, id.IsAuthenticated)
	assert.False(t, id.IsGuest)
	assert.Empty(t, id.EffectiveRole)
}

func TestResolver_NextUserNeverSeesPreviousGuestMarker(t *testing.T) {
	roles := &fakeRoleStore{roles: map[string]models.Role{
		"u-8": models.RoleRecruiter,
		"u-9": models.RoleRecruiter,
	}}
	r, src, updates := startResolver(t, roles)

	src.SignIn(AuthUser{ID: "u-8"})
	waitFor(t, updates, resolved)
	r.SetGuest(models.RoleCandidate)
	waitFor(t, updates, func(id models.ResolvedIdentity) bool { return id.IsGuest })

	src.SignOut()
	waitFor(t, updates, func(id models.ResolvedIdentity) bool {
		return id.State == models.ResolutionSignedOut
	})

	src.SignIn(AuthUser{ID: "u-9"})

	id := waitFor(t, updates, resolved)
	assert.Equal(t, "u-9", id.UserID)
	assert.False(t, id.IsGuest, "previous user's guest marker must not leak")
	assert.Equal(t, models.RoleRecruiter, id.EffectiveRole)
}

func TestResolver_StaleLookupDiscardedAfterSignOut(t *testing.T) {
	block := make(chan struct{})
	roles := &fakeRoleStore{
		roles:   map[string]models.Role{"u-10": models.RoleRecruiter},
		blockCh: block,
	}
	r, src, updates := startResolver(t, roles)

	src.SignIn(AuthUser{ID: "u-10"})
	waitFor(t, updates, func(id models.ResolvedIdentity) bool {
		return id.State == models.ResolutionResolving
	})

	src.SignOut()
	waitFor(t, updates, func(id models.ResolvedIdentity) bool {
		return id.State == models.ResolutionSignedOut
	})

	// Let the in-flight lookup finish now that the user is gone.
	close(block)

	require.Never(t, func() bool {
		return r.Current().State != models.ResolutionSignedOut
	}, 300*time.Millisecond, 20*time.Millisecond, "stale lookup result must be discarded")
}

func TestResolver_CurrentTracksLatest(t *testing.T) {
	roles := &fakeRoleStore{roles: map[string]models.Role{"u-11": models.RoleCandidate}}
	r, src, updates := startResolver(t, roles)

	assert.Equal(t, models.ResolutionSignedOut, r.Current().State)

	src.SignIn(AuthUser{ID: "u-11"})
	waitFor(t, updates, resolved)

	assert.Equal(t, models.RoleCandidate, r.Current().EffectiveRole)
}
