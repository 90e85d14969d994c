// Package session decides where a launching or re-authenticating user lands.
package session

import (
	"context"
	"sync"

	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/identity"
	"github.com/Shhrii/Sankshep-App/internal/nav"
)

// Decision is the routing outcome of a resolution.
type Decision int

const (
	Login Decision = iota
	DoctorHome
	NonDoctorHome
)

func (d Decision) String() string {
	return string(d.Screen())
}

// Screen maps the decision to its navigation target.
func (d Decision) Screen() nav.Screen {
	switch d {
	case DoctorHome:
		return nav.DoctorHome
	case NonDoctorHome:
		return nav.NonDoctorHome
	default:
		return nav.Login
	}
}

// Decide maps (signedIn, role) to a target. Signed-out users and signed-in
// users without a known role both go to Login.
func Decide(signedIn bool, role identity.Role) Decision {
	if !signedIn {
		return Login
	}
	switch role {
	case identity.RoleDoctor:
		return DoctorHome
	case identity.RoleNonDoctor:
		return NonDoctorHome
	default:
		return Login
	}
}

// Identity is the part of identity.Store the resolver needs.
type Identity interface {
	OnSessionChange(cb func(identity.Session)) (unsubscribe func())
	CurrentSession(ctx context.Context) (identity.Session, error)
	ReadRole(ctx context.Context) (identity.Role, error)
}

// Resolver routes on startup and on every auth-state change. When events
// overlap, the most recent one wins: each new resolution cancels the previous
// one, and a resolution that is no longer the latest never resets navigation.
type Resolver struct {
	identity  Identity
	navigator nav.Navigator
	log       *debuglog.FieldLogger

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	stopped bool
	last    Decision
	applied bool
}

func NewResolver(id Identity, navigator nav.Navigator) *Resolver {
	return &Resolver{
		identity:  id,
		navigator: navigator,
		log:       debuglog.WithFields(map[string]interface{}{"component": "resolver"}),
	}
}

// Resolve reads the current session, decides and resets navigation. Errors
// never escape: an unreadable session or role routes to Login.
func (r *Resolver) Resolve(ctx context.Context) Decision {
	gen, rctx, ok := r.begin(ctx)
	if !ok {
		return Login
	}

	signedIn := false
	sess, err := r.identity.CurrentSession(rctx)
	if err != nil {
		r.log.Warnf("Reading current session: %v", err)
	} else {
		signedIn = sess.SignedIn
	}

	decision := r.decide(rctx, signedIn)
	r.apply(rctx, gen, decision)
	return decision
}

// Start subscribes to auth-state changes. The returned stop releases the
// subscription and cancels in-flight work; no reset happens after it returns.
func (r *Resolver) Start(ctx context.Context) (stop func()) {
	unsubscribe := r.identity.OnSessionChange(func(sess identity.Session) {
		gen, rctx, ok := r.begin(ctx)
		if !ok {
			return
		}
		r.log.Debugf("Auth state changed: signedIn=%v generation=%d", sess.SignedIn, gen)
		go func() {
			r.apply(rctx, gen, r.decide(rctx, sess.SignedIn))
		}()
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.stopped = true
			if r.cancel != nil {
				r.cancel()
				r.cancel = nil
			}
			r.mu.Unlock()
			unsubscribe()
			r.log.Debugf("Resolver stopped")
		})
	}
}

// Last returns the most recently applied decision.
func (r *Resolver) Last() (Decision, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.applied
}

func (r *Resolver) begin(parent context.Context) (uint64, context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return 0, nil, false
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	return r.gen, ctx, true
}

func (r *Resolver) decide(ctx context.Context, signedIn bool) Decision {
	if !signedIn {
		return Login
	}
	role, err := r.identity.ReadRole(ctx)
	if err != nil {
		r.log.Warnf("Reading persisted role, routing to login: %v", err)
		role = identity.RoleUnknown
	}
	return Decide(true, role)
}

func (r *Resolver) apply(ctx context.Context, gen uint64, decision Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || gen != r.gen || ctx.Err() != nil {
		r.log.Debugf("Dropping stale resolution %d (%s)", gen, decision)
		return
	}
	r.navigator.Reset(decision.Screen())
	r.last, r.applied = decision, true
	r.log.Infof("Routed to %s", decision)
}
