package tui

import (
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shhrii/Sankshep-App/internal/content"
	"github.com/Shhrii/Sankshep-App/internal/feed"
	"github.com/Shhrii/Sankshep-App/internal/identity"
	"github.com/Shhrii/Sankshep-App/internal/nav"
	"github.com/Shhrii/Sankshep-App/internal/search"
)

const (
	searchDebounce = 200 * time.Millisecond
	searchLimit    = 50
)

type splashDoneMsg struct{}

type navChangedMsg struct{}

type feedStateMsg struct {
	slot *feedSlot
}

type authResultMsg struct {
	screen nav.Screen
	err    error
}

type logoutResultMsg struct {
	err error
}

type searchDebounceMsg struct {
	seq   int
	query string
}

type searchResultsMsg struct {
	seq     int
	query   string
	results []*search.Result
	err     error
}

type statusMsg struct {
	text string
	kind StatusKind
}

type errorMsg struct {
	err error
}

func (a *App) splash() tea.Cmd {
	delay := a.config.Session.SplashDelay
	if delay <= 0 {
		return func() tea.Msg { return splashDoneMsg{} }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return splashDoneMsg{} })
}

// waitForNav blocks until the history changes. Changes that land while a
// signal is pending are folded into it.
func (a *App) waitForNav() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.navSignal:
			return navChangedMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) waitForFeed(slot *feedSlot) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-slot.signal:
			return feedStateMsg{slot: slot}
		case <-slot.done:
			return nil
		}
	}
}

// The fetcher reports through its listener, so these commands carry no result.

func (a *App) fetchFeed(h *homeState) tea.Cmd {
	return func() tea.Msg {
		h.fetcher.Fetch(a.ctx, h.category)
		return nil
	}
}

func (a *App) refreshFeed(h *homeState) tea.Cmd {
	return func() tea.Msg {
		h.fetcher.Refresh(a.ctx)
		return nil
	}
}

func (a *App) retryFeed(h *homeState) tea.Cmd {
	return func() tea.Msg {
		h.fetcher.Retry(a.ctx)
		return nil
	}
}

func (a *App) signIn(email, password string) tea.Cmd {
	a.busy = true
	return tea.Batch(
		a.setStatus(MsgSigningIn, StatusInfo, 0),
		a.spinner.Tick,
		func() tea.Msg {
			_, err := a.flows.SignIn(a.ctx, strings.TrimSpace(email), password)
			return authResultMsg{screen: nav.Login, err: err}
		},
	)
}

func (a *App) signUp(reg identity.Registration) tea.Cmd {
	a.busy = true
	return tea.Batch(
		a.setStatus(MsgCreating, StatusInfo, 0),
		a.spinner.Tick,
		func() tea.Msg {
			_, err := a.flows.SignUp(a.ctx, reg)
			return authResultMsg{screen: nav.Signup, err: err}
		},
	)
}

func (a *App) logout() tea.Cmd {
	a.busy = true
	return tea.Batch(
		a.setStatus(MsgLoggingOut, StatusInfo, 0),
		a.spinner.Tick,
		func() tea.Msg {
			return logoutResultMsg{err: a.flows.Logout(a.ctx)}
		},
	)
}

func (a *App) scheduleSearch(query string) tea.Cmd {
	a.searchSeq++
	seq := a.searchSeq
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq, query: query}
	})
}

func (a *App) performSearch(query string, seq int) tea.Cmd {
	return func() tea.Msg {
		query = strings.TrimSpace(query)
		if query == "" {
			return searchResultsMsg{seq: seq}
		}
		results, err := a.searcher.Search(query, searchLimit)
		if err != nil {
			return searchResultsMsg{seq: seq, query: query, err: wrapErr("search", err)}
		}
		return searchResultsMsg{seq: seq, query: query, results: results}
	}
}

func (a *App) openURL(link string) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Open(link); err != nil {
			return errorMsg{err: wrapErr("open link", err)}
		}
		return statusMsg{text: MsgOpening, kind: StatusInfo}
	}
}

// openSource validates the post's source link and shows the Source screen.
func (a *App) openSource(p *feed.Post) tea.Cmd {
	if p == nil || !p.HasSource() {
		return nil
	}
	link, err := content.ValidateSourceLink(p.SourceURL)
	if err != nil {
		a.log.Debugf("Rejected source link for post %d: %v", p.ID, err)
		return a.setStatus(MsgInvalidURL, StatusError, statusTTL)
	}
	a.history.Navigate(nav.Source, nav.Params{"url": link, "tag": p.SourceTag, "title": p.Title})
	return a.syncNav()
}

// postMarkdown lays out a post for the reader. The body HTML is converted to
// markdown; if conversion fails the stripped text is used instead.
func postMarkdown(p feed.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	if !p.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "*%s*\n\n", p.PublishedAt.Format("January 2, 2006"))
	}
	if p.HasMedia() {
		fmt.Fprintf(&b, "![featured image](%s)\n\n", p.MediaURL)
	} else {
		fmt.Fprintf(&b, "_%s_\n\n", content.NoImage)
	}
	if p.HasSource() {
		fmt.Fprintf(&b, "**Source:** [%s](%s)\n\n", p.SourceTag, p.SourceURL)
	}
	b.WriteString("---\n\n")

	body := p.Body
	if strings.TrimSpace(body) == "" {
		body = p.Excerpt
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil || strings.TrimSpace(md) == "" {
		md = content.StripMarkup(body)
	}
	if strings.TrimSpace(md) == "" {
		md = p.Summary
	}
	b.WriteString(md)
	b.WriteString("\n")
	return b.String()
}

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
