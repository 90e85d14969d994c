// Package nav defines the navigation sink the core drives and a history
// stack that presentation layers can render from.
package nav

import (
	"sync"
)

// Screen identifies a destination.
type Screen string

const (
	Splash        Screen = "Splash"
	AuthLoading   Screen = "AuthLoading"
	Login         Screen = "Login"
	Signup        Screen = "Signup"
	DoctorHome    Screen = "DoctorHome"
	NonDoctorHome Screen = "NonDoctorHome"
	Poll          Screen = "Poll"
	Source        Screen = "Source"
	Logout        Screen = "Logout"
)

// Params carries optional arguments for a pushed screen, e.g. the source URL.
type Params map[string]string

// Entry is one element of the history stack.
type Entry struct {
	Screen Screen
	Params Params
}

// Navigator is the sink the session resolver and account flows talk to.
type Navigator interface {
	// Reset replaces the whole history with a single screen.
	Reset(screen Screen)
	// Navigate pushes a screen on top of the history.
	Navigate(screen Screen, params Params)
	// GoBack pops the top entry; it reports false when only the root remains.
	GoBack() bool
}

// History is a goroutine-safe Navigator backed by a stack.
type History struct {
	mu        sync.RWMutex
	entries   []Entry
	listeners []func(Entry)
}

func NewHistory(root Screen) *History {
	return &History{entries: []Entry{{Screen: root}}}
}

// OnChange registers fn to be called with the new top entry after every change.
func (h *History) OnChange(fn func(Entry)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *History) Reset(screen Screen) {
	h.mu.Lock()
	h.entries = []Entry{{Screen: screen}}
	top, listeners := h.snapshotLocked()
	h.mu.Unlock()
	notify(listeners, top)
}

func (h *History) Navigate(screen Screen, params Params) {
	h.mu.Lock()
	h.entries = append(h.entries, Entry{Screen: screen, Params: copyParams(params)})
	top, listeners := h.snapshotLocked()
	h.mu.Unlock()
	notify(listeners, top)
}

func (h *History) GoBack() bool {
	h.mu.Lock()
	if len(h.entries) <= 1 {
		h.mu.Unlock()
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	top, listeners := h.snapshotLocked()
	h.mu.Unlock()
	notify(listeners, top)
	return true
}

// Current returns the top entry.
func (h *History) Current() Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return Entry{}
	}
	return h.entries[len(h.entries)-1]
}

func (h *History) Depth() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Screens lists the stack from root to top.
func (h *History) Screens() []Screen {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Screen, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Screen
	}
	return out
}

func (h *History) snapshotLocked() (Entry, []func(Entry)) {
	listeners := make([]func(Entry), len(h.listeners))
	copy(listeners, h.listeners)
	return h.entries[len(h.entries)-1], listeners
}

func notify(listeners []func(Entry), top Entry) {
	for _, fn := range listeners {
		fn(top)
	}
}

func copyParams(p Params) Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
