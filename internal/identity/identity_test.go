package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shhrii/Sankshep-App/internal/storage"
)

type failingPrefs struct {
	values map[string]string
	getErr error
	delErr error
}

func (f *failingPrefs) SetPref(key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

func (f *failingPrefs) GetPref(key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *failingPrefs) DeletePref(key string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.values, key)
	return nil
}

func newTestStore(t *testing.T) (*Store, *LocalProvider, *storage.Store) {
	t.Helper()
	db, err := storage.NewStore(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)

	provider := NewLocalProvider(db)
	provider.HashCost = bcrypt.MinCost

	t.Cleanup(func() {
		provider.Close()
		db.Close()
	})
	return NewStore(provider, db), provider, db
}

func collect(t *testing.T, ch <-chan Session, n int) []Session {
	t.Helper()
	var got []Session
	for len(got) < n {
		select {
		case s := <-ch:
			got = append(got, s)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d session events", len(got), n)
		}
	}
	return got
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
		ok    bool
	}{
		{"Doctor", RoleDoctor, true},
		{"NonDoctor", RoleNonDoctor, true},
		{" Doctor ", RoleDoctor, true},
		{"doctor", RoleUnknown, false},
		{"Not a Doctor", RoleUnknown, false},
		{"", RoleUnknown, false},
		{"{garbage", RoleUnknown, false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.input)
		assert.Equal(t, tt.want, got, "ParseRole(%q)", tt.input)
		assert.Equal(t, tt.ok, ok, "ParseRole(%q) ok", tt.input)
	}
	assert.Equal(t, "Unknown", RoleUnknown.String())
	assert.Equal(t, RoleDoctor, RoleFor(true))
	assert.Equal(t, RoleNonDoctor, RoleFor(false))
}

func TestStore_ReadRole(t *testing.T) {
	ctx := context.Background()

	t.Run("missing role", func(t *testing.T) {
		s := NewStore(nil, &failingPrefs{})
		role, err := s.ReadRole(ctx)
		assert.NoError(t, err)
		assert.Equal(t, RoleUnknown, role)
	})

	t.Run("stored role", func(t *testing.T) {
		s := NewStore(nil, &failingPrefs{values: map[string]string{RoleKey: "NonDoctor"}})
		role, err := s.ReadRole(ctx)
		assert.NoError(t, err)
		assert.Equal(t, RoleNonDoctor, role)
	})

	t.Run("garbled role", func(t *testing.T) {
		s := NewStore(nil, &failingPrefs{values: map[string]string{RoleKey: "Surgeon"}})
		role, err := s.ReadRole(ctx)
		assert.ErrorIs(t, err, ErrPersistenceRead)
		assert.Equal(t, RoleUnknown, role)
	})

	t.Run("read failure", func(t *testing.T) {
		s := NewStore(nil, &failingPrefs{getErr: errors.New("disk gone")})
		role, err := s.ReadRole(ctx)
		assert.ErrorIs(t, err, ErrPersistenceRead)
		assert.Contains(t, err.Error(), "disk gone")
		assert.Equal(t, RoleUnknown, role)
	})
}

func TestStore_SignUpValidation(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		reg  Registration
		want error
	}{
		{"missing email", Registration{Password: "secret1"}, ErrInvalidEmail},
		{"email without at", Registration{Email: "asha.example.org", Password: "secret1"}, ErrInvalidEmail},
		{"short password", Registration{Email: "asha@example.org", Password: "123"}, ErrWeakPassword},
		{"doctor without practice", Registration{Email: "asha@example.org", Password: "secret1", IsDoctor: true}, ErrPracticeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignUp(ctx, tt.reg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStore_SignUpSignInSignOut(t *testing.T) {
	s, _, db := newTestStore(t)
	ctx := context.Background()

	session, err := s.SignUp(ctx, Registration{
		Email:    "asha@example.org",
		Password: "secret1",
		IsDoctor: true,
		Practice: "Pune",
	})
	require.NoError(t, err)
	assert.True(t, session.SignedIn)
	assert.Equal(t, RoleDoctor, session.Role)
	assert.NotEmpty(t, session.UserID)

	value, found, err := db.GetPref(RoleKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Doctor", value)

	current, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, current)

	_, err = s.SignUp(ctx, Registration{Email: "ASHA@example.org", Password: "secret2"})
	assert.ErrorIs(t, err, ErrUserExists)

	require.NoError(t, s.SignOut(ctx))
	_, found, _ = db.GetPref(RoleKey)
	assert.False(t, found, "logout must remove the persisted role")

	current, err = s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.False(t, current.SignedIn)
	assert.Equal(t, RoleUnknown, current.Role)

	_, err = s.SignIn(ctx, "asha@example.org", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.SignIn(ctx, "nobody@example.org", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err = s.SignIn(ctx, " Asha@Example.org", "secret1")
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, session.Role)
}

func TestStore_SignOutWhenSignedOut(t *testing.T) {
	s, _, _ := newTestStore(t)

	err := s.SignOut(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Contains(t, err.Error(), "failed to log out")
}

func TestStore_SignOutPersistenceFailure(t *testing.T) {
	_, provider, _ := newTestStore(t)
	s := NewStore(provider, &failingPrefs{delErr: errors.New("locked")})

	err := s.SignOut(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to log out")
}

type endFailingProvider struct {
	*LocalProvider
}

func (endFailingProvider) EndSession(context.Context) error {
	return errors.New("session backend unavailable")
}

func TestStore_SignOutKeepsRoleWhenSessionSurvives(t *testing.T) {
	s, provider, db := newTestStore(t)
	ctx := context.Background()

	_, err := s.SignUp(ctx, Registration{Email: "asha@example.org", Password: "secret1", IsDoctor: true, Practice: "Pune"})
	require.NoError(t, err)

	failing := NewStore(endFailingProvider{provider}, db)
	err = failing.SignOut(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to log out")

	value, found, err := db.GetPref(RoleKey)
	require.NoError(t, err)
	assert.True(t, found, "role must be restored when the session is still live")
	assert.Equal(t, "Doctor", value)

	current, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.True(t, current.SignedIn)
	assert.Equal(t, RoleDoctor, current.Role)
}

func TestStore_OnSessionChange(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	events := make(chan Session, 8)
	roles := make(chan Role, 8)
	unsubscribe := s.OnSessionChange(func(sess Session) {
		role, _ := s.ReadRole(ctx)
		events <- sess
		roles <- role
	})

	initial := collect(t, events, 1)
	assert.False(t, initial[0].SignedIn, "a new subscriber receives the current state first")
	<-roles

	_, err := s.SignUp(ctx, Registration{Email: "ravi@example.org", Password: "secret1"})
	require.NoError(t, err)

	got := collect(t, events, 1)
	assert.True(t, got[0].SignedIn)
	assert.Equal(t, "ravi@example.org", got[0].Email)
	assert.Equal(t, RoleNonDoctor, <-roles, "role is persisted before subscribers hear about the sign-in")

	require.NoError(t, s.SignOut(ctx))
	got = collect(t, events, 1)
	assert.False(t, got[0].SignedIn)
	<-roles

	unsubscribe()
	unsubscribe()

	_, err = s.SignIn(ctx, "ravi@example.org", "secret1")
	require.NoError(t, err)

	select {
	case ev := <-events:
		t.Fatalf("unsubscribed callback received %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalProvider_InitialStateWhenSignedIn(t *testing.T) {
	s, provider, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.SignUp(ctx, Registration{Email: "meera@example.org", Password: "secret1"})
	require.NoError(t, err)

	events := make(chan Session, 4)
	unsubscribe := provider.Subscribe(func(sess Session) { events <- sess })
	defer unsubscribe()

	got := collect(t, events, 1)
	assert.True(t, got[0].SignedIn)
	assert.Equal(t, "meera@example.org", got[0].Email)

	users, err := provider.Users()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.False(t, users[0].IsDoctor)
}

func TestLocalProvider_CloseIsIdempotent(t *testing.T) {
	_, provider, _ := newTestStore(t)
	provider.Close()
	provider.Close()

	unsubscribe := provider.Subscribe(func(Session) { t.Error("no delivery after close") })
	unsubscribe()
	time.Sleep(20 * time.Millisecond)
}

func TestLocalProvider_CanceledContext(t *testing.T) {
	_, provider, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Current(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = provider.Authenticate(ctx, "a@b.c", "secret1")
	assert.ErrorIs(t, err, context.Canceled)
}
