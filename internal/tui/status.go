package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Canonical short status messages used across the app.
const (
	MsgSigningIn     = "Signing in…"
	MsgCreating      = "Creating account…"
	MsgLoggingOut    = "Logging out…"
	MsgLoadingPosts  = "Loading posts…"
	MsgRefreshing    = "Refreshing…"
	MsgNoPosts       = "No posts yet"
	MsgNoResults     = "No results"
	MsgInvalidURL    = "Invalid URL"
	MsgLogoutFailed  = "Failed to log out."
	MsgPasswordMatch = "Passwords do not match!"
	MsgOpening       = "Opening in browser…"
)

const statusTTL = 4 * time.Second

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgTopicCount(topic string, n int) string {
	return fmt.Sprintf("%s • %s", strings.TrimSpace(topic), MsgResultsCount(n))
}

func MsgLoaded(n int) string {
	if n == 1 {
		return "Loaded 1 post"
	}
	return fmt.Sprintf("Loaded %d posts", n)
}

type statusLine struct {
	text string
	kind StatusKind
	seq  int
}

type statusClearMsg struct {
	seq int
}

// setStatus shows text in the status bar. A positive ttl clears it later
// unless a newer status replaced it first.
func (a *App) setStatus(text string, kind StatusKind, ttl time.Duration) tea.Cmd {
	a.status.seq++
	a.status.text = text
	a.status.kind = kind
	if ttl <= 0 {
		return nil
	}
	seq := a.status.seq
	return tea.Tick(ttl, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (a *App) clearStatus(seq int) {
	if seq == a.status.seq {
		a.status.text = ""
	}
}

func (a *App) renderStatus() string {
	if a.status.text == "" {
		return ""
	}
	switch a.status.kind {
	case StatusSuccess:
		return StatusSuccessStyle.Render("✓ " + a.status.text)
	case StatusWarn:
		return StatusWarnStyle.Render(a.status.text)
	case StatusError:
		return StatusErrorStyle.Render("✗ " + a.status.text)
	default:
		return StatusInfoStyle.Render(a.status.text)
	}
}
