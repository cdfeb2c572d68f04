package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/logging"
	"github.com/employnext/jobcore/internal/models"
)

const defaultLookupTimeout = 5 * time.Second

// Resolver is the identity state machine. It consumes the auth-event stream,
// overlays the guest marker, performs the asynchronous role lookup, and
// keeps exactly one current ResolvedIdentity per session.
//
// Precedence: an active guest overlay wins over the persisted role record
// and skips the lookup entirely. A lookup that returns absent, or fails,
// settles on candidate — identity resolution always terminates in a usable
// state and never surfaces lookup errors to consumers.
type Resolver struct {
	roles         RoleStore
	guest         GuestSessionStore
	log           logging.Logger
	lookupTimeout time.Duration

	mu sync.Mutex
	// gen counts identity epochs. Every auth event and guest change starts a
	// new epoch; a role lookup that finishes in an older epoch is discarded.
	gen  uint64
	cur  models.ResolvedIdentity
	subs map[uint64]chan models.ResolvedIdentity
	next uint64
}

// NewResolver wires a resolver over its three input signals.
func NewResolver(roles RoleStore, guest GuestSessionStore, log logging.Logger) *Resolver {
	return &Resolver{
		roles:         roles,
		guest:         guest,
		log:           log,
		lookupTimeout: defaultLookupTimeout,
		cur:           models.SignedOut(),
		subs:          make(map[uint64]chan models.ResolvedIdentity),
	}
}

// Run consumes events until the stream closes or ctx is cancelled.
func (r *Resolver) Run(ctx context.Context, events <-chan AuthEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case UserPresent:
				r.signedIn(ctx, ev.User)
			case UserAbsent:
				r.signedOut()
			}
		}
	}
}

// Current returns the latest resolved identity.
func (r *Resolver) Current() models.ResolvedIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

// Subscribe registers for identity updates. The returned cancel func must be
// called to release the subscription. Updates are dropped for subscribers
// that stop draining their channel.
func (r *Resolver) Subscribe() (<-chan models.ResolvedIdentity, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	ch := make(chan models.ResolvedIdentity, 16)
	r.subs[id] = ch
	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
	}
}

// SetGuest activates the guest overlay. While authenticated this resolves
// the identity immediately, without a fresh auth event, and invalidates any
// in-flight role lookup.
func (r *Resolver) SetGuest(role models.Role) {
	r.guest.Set(role)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.cur.IsAuthenticated {
		return
	}
	r.gen++
	r.cur.State = models.ResolutionResolved
	r.cur.EffectiveRole = role
	r.cur.IsGuest = true
	r.publishLocked()
}

// ClearGuest drops the overlay and, while authenticated, re-runs the role
// lookup for the real persisted role.
func (r *Resolver) ClearGuest(ctx context.Context) {
	r.guest.Clear()

	r.mu.Lock()
	if !r.cur.IsAuthenticated {
		r.mu.Unlock()
		return
	}
	r.gen++
	gen := r.gen
	userID := r.cur.UserID
	r.cur = models.Resolving(r.cur.UserID, r.cur.DisplayName, r.cur.Email)
	r.publishLocked()
	r.mu.Unlock()

	go r.lookupRole(ctx, userID, gen)
}

func (r *Resolver) signedIn(ctx context.Context, u AuthUser) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.cur = models.Resolving(u.ID, u.DisplayName, u.Email)
	r.publishLocked()

	// Guest overlay wins over the persisted record; no lookup needed.
	if role, ok := r.guest.Get(); ok {
		r.cur.State = models.ResolutionResolved
		r.cur.EffectiveRole = role
		r.cur.IsGuest = true
		r.publishLocked()
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	go r.lookupRole(ctx, u.ID, gen)
}

func (r *Resolver) signedOut() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	// The overlay must never outlive the session it was created under.
	r.guest.Clear()
	r.cur = models.SignedOut()
	r.publishLocked()
}

func (r *Resolver) lookupRole(ctx context.Context, userID string, gen uint64) {
	lctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	role, err := r.roles.Get(lctx, userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		// The session moved on while the lookup was in flight.
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		role = models.RoleCandidate
	default:
		r.log.Warn(ctx, "role lookup failed, defaulting to candidate",
			"user_id", userID, "error", err.Error())
		role = models.RoleCandidate
	}
	if !role.Valid() {
		role = models.RoleCandidate
	}

	r.cur.State = models.ResolutionResolved
	r.cur.EffectiveRole = role
	r.cur.IsGuest = false
	r.publishLocked()
}

func (r *Resolver) publishLocked() {
	for _, ch := range r.subs {
		select {
		case ch <- r.cur:
		default:
		}
	}
}
