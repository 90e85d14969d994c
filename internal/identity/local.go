package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/storage"
)

// LocalProvider keeps accounts and the signed-in session in the bbolt store.
// Subscribers receive events one at a time from a single dispatcher goroutine;
// each new subscriber first receives the current state.
type LocalProvider struct {
	store *storage.Store

	// HashCost is the bcrypt cost for new passwords.
	HashCost int

	mu     sync.Mutex
	subs   map[uint64]func(Session)
	nextID uint64
	queue  []event
	closed bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

type event struct {
	target  uint64 // 0 delivers to every subscriber
	session Session
}

func NewLocalProvider(store *storage.Store) *LocalProvider {
	p := &LocalProvider{
		store:    store,
		HashCost: bcrypt.DefaultCost,
		subs:     make(map[uint64]func(Session)),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	p.wg.Add(1)
	go p.dispatch()
	return p
}

// Close stops the dispatcher. Pending events are dropped.
func (p *LocalProvider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.queue = nil
	p.mu.Unlock()
	close(p.done)
	p.wg.Wait()
}

func (p *LocalProvider) Subscribe(fn func(Session)) func() {
	p.mu.Lock()
	// reading under the lock orders the initial state before any later broadcast
	current, err := p.Current(context.Background())
	if err != nil {
		debuglog.Warnf("Reading session for new subscriber: %v", err)
	}
	p.nextID++
	id := p.nextID
	p.subs[id] = fn
	p.enqueueLocked(event{target: id, session: current})
	p.mu.Unlock()
	p.signal()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *LocalProvider) Current(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	rec, err := p.store.GetSession()
	if err != nil {
		return Session{}, fmt.Errorf("reading session: %w", err)
	}
	if rec == nil {
		return Session{}, nil
	}
	return Session{SignedIn: true, UserID: rec.UserID, Email: rec.Email}, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	user, err := p.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, fmt.Errorf("looking up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Profile{}, ErrInvalidCredentials
	}
	return profileOf(user), nil
}

func (p *LocalProvider) Register(ctx context.Context, reg Registration) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), p.HashCost)
	if err != nil {
		return Profile{}, fmt.Errorf("hashing password: %w", err)
	}

	user := &storage.User{
		ID:           uuid.New().String(),
		Email:        strings.TrimSpace(reg.Email),
		FullName:     strings.TrimSpace(reg.FullName),
		Phone:        strings.TrimSpace(reg.Phone),
		PasswordHash: string(hash),
		IsDoctor:     reg.IsDoctor,
		CreatedAt:    time.Now(),
	}
	if reg.IsDoctor {
		user.Practice = strings.TrimSpace(reg.Practice)
	}

	if err := p.store.CreateUser(user); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return Profile{}, ErrUserExists
		}
		return Profile{}, fmt.Errorf("creating user: %w", err)
	}
	return profileOf(user), nil
}

func (p *LocalProvider) StartSession(ctx context.Context, profile Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.store.GetUser(profile.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	rec := &storage.AuthSession{UserID: profile.UserID, Email: profile.Email, SignedInAt: time.Now()}

	p.mu.Lock()
	if err := p.store.SaveSession(rec); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("saving session: %w", err)
	}
	p.enqueueLocked(event{session: Session{SignedIn: true, UserID: profile.UserID, Email: profile.Email}})
	p.mu.Unlock()
	p.signal()
	return nil
}

func (p *LocalProvider) EndSession(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	rec, err := p.store.GetSession()
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("reading session: %w", err)
	}
	if rec == nil {
		p.mu.Unlock()
		return ErrNotSignedIn
	}
	if err := p.store.ClearSession(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("clearing session: %w", err)
	}
	p.enqueueLocked(event{session: Session{}})
	p.mu.Unlock()
	p.signal()
	return nil
}

// Users lists registered accounts.
func (p *LocalProvider) Users() ([]Profile, error) {
	users, err := p.store.GetAllUsers()
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, profileOf(u))
	}
	return profiles, nil
}

func (p *LocalProvider) enqueueLocked(ev event) {
	if p.closed {
		return
	}
	p.queue = append(p.queue, ev)
}

func (p *LocalProvider) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *LocalProvider) dispatch() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case <-p.wake:
		}

		for {
			ev, fns, ok := p.next()
			if !ok {
				break
			}
			for _, fn := range fns {
				fn(ev.session)
			}
		}
	}
}

func (p *LocalProvider) next() (event, []func(Session), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(p.queue) == 0 {
		return event{}, nil, false
	}
	ev := p.queue[0]
	p.queue = p.queue[1:]

	var fns []func(Session)
	if ev.target != 0 {
		if fn, ok := p.subs[ev.target]; ok {
			fns = append(fns, fn)
		}
		return ev, fns, true
	}
	ids := make([]uint64, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fns = append(fns, p.subs[id])
	}
	return ev, fns, true
}

func profileOf(u *storage.User) Profile {
	return Profile{UserID: u.ID, Email: u.Email, FullName: u.FullName, IsDoctor: u.IsDoctor, Practice: u.Practice}
}
