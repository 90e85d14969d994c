package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shhrii/Sankshep-App/internal/identity"
	"github.com/Shhrii/Sankshep-App/internal/nav"
)

type fakeAccounts struct {
	session   identity.Session
	err       error
	signOut   error
	signedOut bool
}

func (f *fakeAccounts) SignIn(context.Context, string, string) (identity.Session, error) {
	return f.session, f.err
}

func (f *fakeAccounts) SignUp(context.Context, identity.Registration) (identity.Session, error) {
	return f.session, f.err
}

func (f *fakeAccounts) SignOut(context.Context) error {
	f.signedOut = f.signOut == nil
	return f.signOut
}

func TestFlows_SignInLandsOnRoleHome(t *testing.T) {
	n := nav.NewHistory(nav.Login)
	f := NewFlows(&fakeAccounts{session: identity.Session{SignedIn: true, Role: identity.RoleDoctor}}, n)

	d, err := f.SignIn(context.Background(), "asha@example.org", "secret1")
	require.NoError(t, err)
	assert.Equal(t, DoctorHome, d)
	assert.Equal(t, []nav.Screen{nav.DoctorHome}, n.Screens())
}

func TestFlows_SignUpLandsOnRoleHome(t *testing.T) {
	n := nav.NewHistory(nav.Login)
	n.Navigate(nav.Signup, nil)
	f := NewFlows(&fakeAccounts{session: identity.Session{SignedIn: true, Role: identity.RoleNonDoctor}}, n)

	d, err := f.SignUp(context.Background(), identity.Registration{Email: "ravi@example.org", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, NonDoctorHome, d)
	assert.Equal(t, []nav.Screen{nav.NonDoctorHome}, n.Screens())
}

func TestFlows_SignInFailureStays(t *testing.T) {
	n := nav.NewHistory(nav.Login)
	f := NewFlows(&fakeAccounts{err: identity.ErrInvalidCredentials}, n)

	d, err := f.SignIn(context.Background(), "asha@example.org", "nope")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Equal(t, Login, d)
	assert.Equal(t, []nav.Screen{nav.Login}, n.Screens())
}

func TestFlows_Logout(t *testing.T) {
	n := nav.NewHistory(nav.DoctorHome)
	n.Navigate(nav.Logout, nil)
	accounts := &fakeAccounts{}
	f := NewFlows(accounts, n)

	require.NoError(t, f.Logout(context.Background()))
	assert.True(t, accounts.signedOut)
	assert.Equal(t, []nav.Screen{nav.Login}, n.Screens())
}

func TestFlows_LogoutFailureStays(t *testing.T) {
	n := nav.NewHistory(nav.DoctorHome)
	n.Navigate(nav.Logout, nil)
	f := NewFlows(&fakeAccounts{signOut: errors.New("failed to log out: locked")}, n)

	err := f.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, nav.Logout, n.Current().Screen)
}

func TestFlows_NilNavigator(t *testing.T) {
	f := NewFlows(&fakeAccounts{session: identity.Session{SignedIn: true, Role: identity.RoleNonDoctor}}, nil)
	d, err := f.SignIn(context.Background(), "ravi@example.org", "secret1")
	require.NoError(t, err)
	assert.Equal(t, NonDoctorHome, d)
	assert.NoError(t, f.Logout(context.Background()))
}
