package tui

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shhrii/Sankshep-App/internal/config"
	"github.com/Shhrii/Sankshep-App/internal/feed"
	"github.com/Shhrii/Sankshep-App/internal/identity"
	"github.com/Shhrii/Sankshep-App/internal/publishing"
	"github.com/Shhrii/Sankshep-App/internal/storage"
)

const testSourceLink = "https://pubmed.ncbi.nlm.nih.gov/123456/"

// stubSource serves two categories with a handful of posts each.
type stubSource struct {
	mu       sync.Mutex
	postErrs []error
	calls    int
}

func (s *stubSource) Categories(context.Context) ([]publishing.Category, error) {
	return []publishing.Category{{ID: 3, Name: "Doctor"}, {ID: 4, Name: "NonDoctor"}}, nil
}

func (s *stubSource) Posts(_ context.Context, id int) ([]publishing.Post, error) {
	s.mu.Lock()
	s.calls++
	var err error
	if len(s.postErrs) > 0 {
		err, s.postErrs = s.postErrs[0], s.postErrs[1:]
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if id == 4 {
		return []publishing.Post{
			{ID: 41, Title: publishing.Rendered{Rendered: "Kapha and the spring season"}},
		}, nil
	}
	return []publishing.Post{
		{
			ID:      31,
			Date:    "2024-05-02T09:30:00",
			Title:   publishing.Rendered{Rendered: "Balancing Vata dosha in winter"},
			Excerpt: publishing.Rendered{Rendered: "<p>Warm oils calm an aggravated vata.</p>"},
			Content: publishing.Rendered{Rendered: "<p>Vata imbalance shows up as <strong>dryness</strong>.</p>"},
		},
		{
			ID:      32,
			Title:   publishing.Rendered{Rendered: "Randomized trial of ashwagandha"},
			Excerpt: publishing.Rendered{Rendered: "<p>A clinical study of sleep.</p>"},
			Content: publishing.Rendered{Rendered: "<p>The trial measured sleep latency.</p>"},
			Meta:    publishing.Meta{SourceTag: "PubMed", SourceLink: testSourceLink},
		},
		{
			ID:      33,
			Title:   publishing.Rendered{Rendered: "Golden milk recipe"},
			Excerpt: publishing.Rendered{Rendered: "<p>Turmeric, ginger and warm milk.</p>"},
			Content: publishing.Rendered{Rendered: "<p>Ingredients: turmeric. Prepare at night.</p>"},
		},
	}, nil
}

type recordingOpener struct {
	mu    sync.Mutex
	links []string
	err   error
}

func (o *recordingOpener) Open(link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links = append(o.links, link)
	return o.err
}

func (o *recordingOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.links...)
}

// flakyPrefs fails DeletePref on demand so logout can fail.
type flakyPrefs struct {
	*storage.Store
	failDelete atomic.Bool
}

func (p *flakyPrefs) DeletePref(key string) error {
	if p.failDelete.Load() {
		return errors.New("disk full")
	}
	return p.Store.DeletePref(key)
}

type testIdentity struct {
	store *identity.Store
	prefs *flakyPrefs
}

func newTestIdentity(t *testing.T) *testIdentity {
	t.Helper()
	db, err := storage.NewStore(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)

	provider := identity.NewLocalProvider(db)
	provider.HashCost = bcrypt.MinCost
	prefs := &flakyPrefs{Store: db}

	t.Cleanup(func() {
		provider.Close()
		db.Close()
	})
	return &testIdentity{store: identity.NewStore(provider, prefs), prefs: prefs}
}

// harness plays the part of tea.Program: commands run in the background and
// their messages are fed back into Update on the test goroutine.
type harness struct {
	t      *testing.T
	id     *testIdentity
	app    *App
	opener *recordingOpener
	msgs   chan tea.Msg
}

func newHarness(t *testing.T, id *testIdentity, source feed.Source) *harness {
	t.Helper()
	app := NewApp(config.TestConfig(), id.store, source)
	opener := &recordingOpener{}
	app.launcher = opener
	app.resize(100, 40)

	h := &harness{t: t, id: id, app: app, opener: opener, msgs: make(chan tea.Msg, 64)}
	t.Cleanup(app.Close)
	return h
}

// start runs Init and waits for the first routed screen.
func (h *harness) start() {
	h.t.Helper()
	h.run(h.app.Init())
	h.until(func() bool {
		s := h.app.current.Screen
		return s != "Splash" && s != "AuthLoading"
	})
}

func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		switch m := msg.(type) {
		case nil:
		case tea.BatchMsg:
			for _, c := range m {
				h.run(c)
			}
		default:
			select {
			case h.msgs <- m:
			case <-h.app.ctx.Done():
			}
		}
	}()
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.app.Update(msg)
	h.run(cmd)
	return cmd
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		h.send(keyMsg(k))
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// until processes messages until cond holds.
func (h *harness) until(cond func() bool) {
	h.t.Helper()
	timeout := time.After(5 * time.Second)
	for !cond() {
		select {
		case msg := <-h.msgs:
			h.send(msg)
		case <-timeout:
			h.t.Fatalf("timed out on screen %s (mode %d, status %q)", h.app.current.Screen, h.app.mode, h.app.status.text)
		}
	}
}

func (h *harness) feedStatus() feed.Status {
	if h.app.home == nil {
		return feed.Loading
	}
	return h.app.home.vm.Status
}

func (h *harness) untilFeed(status feed.Status) {
	h.t.Helper()
	h.until(func() bool { return h.app.home != nil && h.feedStatus() == status })
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// signUp registers through the Signup screen.
func (h *harness) signUp(email string, doctor bool) {
	h.t.Helper()
	h.press("ctrl+n")
	require.Equal(h.t, "Signup", string(h.app.current.Screen))

	form := h.app.signup
	form.setValue(fieldFullName, "Asha Rao")
	form.setValue(fieldEmail, email)
	form.setValue(fieldPhone, "9800000000")
	form.setValue(fieldPassword, "secret-123")
	form.setValue(fieldConfirm, "secret-123")
	if doctor {
		form.isDoctor = true
		form.setValue(fieldPractice, "Pune Ayurveda Clinic")
	}
	form.focus = len(form.slots()) - 1
	form.applyFocus()
	h.press("enter")
}
