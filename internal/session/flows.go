package session

import (
	"context"

	"github.com/Shhrii/Sankshep-App/internal/identity"
	"github.com/Shhrii/Sankshep-App/internal/nav"
)

// Accounts is the part of identity.Store the account flows need.
type Accounts interface {
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
	SignUp(ctx context.Context, reg identity.Registration) (identity.Session, error)
	SignOut(ctx context.Context) error
}

// Flows runs sign-in, sign-up and logout and resets navigation to where each
// one ends. The role is persisted before navigation, so a crash in between
// is healed by the next launch's resolution.
type Flows struct {
	accounts  Accounts
	navigator nav.Navigator
}

func NewFlows(accounts Accounts, navigator nav.Navigator) *Flows {
	return &Flows{accounts: accounts, navigator: navigator}
}

func (f *Flows) SignIn(ctx context.Context, email, password string) (Decision, error) {
	sess, err := f.accounts.SignIn(ctx, email, password)
	if err != nil {
		return Login, err
	}
	return f.land(sess), nil
}

func (f *Flows) SignUp(ctx context.Context, reg identity.Registration) (Decision, error) {
	sess, err := f.accounts.SignUp(ctx, reg)
	if err != nil {
		return Login, err
	}
	return f.land(sess), nil
}

// Logout stays on the current screen when signing out fails.
func (f *Flows) Logout(ctx context.Context) error {
	if err := f.accounts.SignOut(ctx); err != nil {
		return err
	}
	if f.navigator != nil {
		f.navigator.Reset(nav.Login)
	}
	return nil
}

func (f *Flows) land(sess identity.Session) Decision {
	d := Decide(sess.SignedIn, sess.Role)
	if f.navigator != nil {
		f.navigator.Reset(d.Screen())
	}
	return d
}
