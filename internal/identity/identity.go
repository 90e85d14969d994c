// Package identity adapts an authentication provider and a persisted
// key-value slot into the session and role view the core consumes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shhrii/Sankshep-App/internal/debuglog"
)

// RoleKey is the only persisted key the core reads and writes.
const RoleKey = "userRole"

var (
	ErrPersistenceRead    = errors.New("persisted role unreadable")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user data not found")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrPracticeRequired   = errors.New("please enter your place of practice")
)

// Role is the persisted user classification.
type Role string

const (
	RoleUnknown   Role = ""
	RoleDoctor    Role = "Doctor"
	RoleNonDoctor Role = "NonDoctor"
)

// ParseRole accepts the persisted spellings; anything else is garbled.
func ParseRole(s string) (Role, bool) {
	switch strings.TrimSpace(s) {
	case string(RoleDoctor):
		return RoleDoctor, true
	case string(RoleNonDoctor):
		return RoleNonDoctor, true
	default:
		return RoleUnknown, false
	}
}

func RoleFor(isDoctor bool) Role {
	if isDoctor {
		return RoleDoctor
	}
	return RoleNonDoctor
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "Unknown"
	}
	return string(r)
}

// Session is the live authentication state. Role is set only when SignedIn
// is true and the persisted role could be read.
type Session struct {
	SignedIn bool
	UserID   string
	Email    string
	Role     Role
}

// Profile is what the provider knows about an account.
type Profile struct {
	UserID   string
	Email    string
	FullName string
	IsDoctor bool
	Practice string
}

// Registration holds sign-up input.
type Registration struct {
	FullName string
	Email    string
	Phone    string
	Password string
	IsDoctor bool
	Practice string
}

// Provider is the external authentication backend.
//
// Authenticate and Register must not change the signed-in state; StartSession
// and EndSession do, and notify subscribers.
type Provider interface {
	Subscribe(fn func(Session)) (unsubscribe func())
	Current(ctx context.Context) (Session, error)
	Authenticate(ctx context.Context, email, password string) (Profile, error)
	Register(ctx context.Context, reg Registration) (Profile, error)
	StartSession(ctx context.Context, profile Profile) error
	EndSession(ctx context.Context) error
}

// Prefs is the persisted key-value slot; storage.Store implements it.
type Prefs interface {
	SetPref(key, value string) error
	GetPref(key string) (string, bool, error)
	DeletePref(key string) error
}

// Store is the identity adapter the resolver and account flows use.
type Store struct {
	provider Provider
	prefs    Prefs
}

func NewStore(provider Provider, prefs Prefs) *Store {
	return &Store{provider: provider, prefs: prefs}
}

// OnSessionChange subscribes cb to auth-state transitions. The returned
// function must be called on teardown.
func (s *Store) OnSessionChange(cb func(Session)) (unsubscribe func()) {
	return s.provider.Subscribe(cb)
}

// CurrentSession returns the live session with its role filled in when readable.
func (s *Store) CurrentSession(ctx context.Context) (Session, error) {
	session, err := s.provider.Current(ctx)
	if err != nil {
		return Session{}, err
	}
	if !session.SignedIn {
		return Session{}, nil
	}
	session.Role = RoleUnknown
	if role, err := s.ReadRole(ctx); err == nil {
		session.Role = role
	}
	return session, nil
}

// SignIn authenticates, persists the profile's role and then starts the
// session, so subscribers observing the change can already read the role.
func (s *Store) SignIn(ctx context.Context, email, password string) (Session, error) {
	profile, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.begin(ctx, profile)
}

// SignUp registers a new account and signs it in.
func (s *Store) SignUp(ctx context.Context, reg Registration) (Session, error) {
	if err := reg.validate(); err != nil {
		return Session{}, err
	}
	profile, err := s.provider.Register(ctx, reg)
	if err != nil {
		return Session{}, err
	}
	return s.begin(ctx, profile)
}

func (s *Store) begin(ctx context.Context, profile Profile) (Session, error) {
	role := RoleFor(profile.IsDoctor)
	if err := s.SetPersisted(RoleKey, string(role)); err != nil {
		return Session{}, fmt.Errorf("saving role: %w", err)
	}
	if err := s.provider.StartSession(ctx, profile); err != nil {
		return Session{}, fmt.Errorf("starting session: %w", err)
	}
	debuglog.Infof("Signed in %s as %s", profile.Email, role)
	return Session{SignedIn: true, UserID: profile.UserID, Email: profile.Email, Role: role}, nil
}

// SignOut clears the persisted role before ending the session. When the
// session cannot be ended the previous role is put back.
func (s *Store) SignOut(ctx context.Context) error {
	previous, hadRole, _ := s.GetPersisted(RoleKey)
	if err := s.RemovePersisted(RoleKey); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	if err := s.provider.EndSession(ctx); err != nil {
		if hadRole {
			if rerr := s.SetPersisted(RoleKey, previous); rerr != nil {
				debuglog.Warnf("Restoring role after failed logout: %v", rerr)
			}
		}
		return fmt.Errorf("failed to log out: %w", err)
	}
	debuglog.Infof("Signed out")
	return nil
}

func (s *Store) SetPersisted(key, value string) error {
	return s.prefs.SetPref(key, value)
}

func (s *Store) GetPersisted(key string) (string, bool, error) {
	return s.prefs.GetPref(key)
}

func (s *Store) RemovePersisted(key string) error {
	return s.prefs.DeletePref(key)
}

// ReadRole returns RoleUnknown with a nil error when no role is stored. A
// failed read or an unrecognized value wraps ErrPersistenceRead.
func (s *Store) ReadRole(ctx context.Context) (Role, error) {
	if err := ctx.Err(); err != nil {
		return RoleUnknown, err
	}
	value, found, err := s.GetPersisted(RoleKey)
	if err != nil {
		return RoleUnknown, fmt.Errorf("%w: %v", ErrPersistenceRead, err)
	}
	if !found {
		return RoleUnknown, nil
	}
	role, ok := ParseRole(value)
	if !ok {
		return RoleUnknown, fmt.Errorf("%w: unrecognized role %q", ErrPersistenceRead, value)
	}
	return role, nil
}

func (r Registration) validate() error {
	email := strings.TrimSpace(r.Email)
	if email == "" || !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return ErrInvalidEmail
	}
	if len(r.Password) < 6 {
		return ErrWeakPassword
	}
	if r.IsDoctor && strings.TrimSpace(r.Practice) == "" {
		return ErrPracticeRequired
	}
	return nil
}
