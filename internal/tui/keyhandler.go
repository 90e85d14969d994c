package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shhrii/Sankshep-App/internal/config"
	"github.com/Shhrii/Sankshep-App/internal/feed"
	"github.com/Shhrii/Sankshep-App/internal/nav"
)

// signupKey opens the Signup screen from Login.
const signupKey = "ctrl+n"

type KeyHandler struct {
	app  *App
	keys config.KeyBindings
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, keys: cfg.Keys.Bindings}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == kh.keys.Quit {
		kh.app.Close()
		return kh.app, tea.Quit
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.current.Screen {
	case nav.Login, nav.Signup:
		return true
	case nav.DoctorHome, nav.NonDoctorHome:
		return kh.app.mode == modeSearch && kh.app.searchInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	key := msg.String()

	if key == kh.keys.Back {
		return kh.navigateBack()
	}

	switch a.current.Screen {
	case nav.Login:
		return kh.handleFormKey(a.login, msg)
	case nav.Signup:
		return kh.handleFormKey(a.signup, msg)
	}

	// search input
	switch key {
	case "tab", "down":
		if len(a.searchList.Items()) > 0 {
			a.searchInput.Blur()
		}
		return a, nil
	case "enter":
		a.searchInput.Blur()
		return a, a.performSearch(kh.sanitizeSearchInput(a.searchInput.Value()), a.searchSeq)
	}

	prev := kh.sanitizeSearchInput(a.searchInput.Value())
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	if next := kh.sanitizeSearchInput(a.searchInput.Value()); next != prev {
		return a, tea.Batch(cmd, a.scheduleSearch(next))
	}
	return a, cmd
}

func (kh *KeyHandler) handleFormKey(form *authForm, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	if a.busy {
		return a, nil
	}

	switch msg.String() {
	case "tab", "down":
		form.move(1)
		return a, nil
	case "shift+tab", "up":
		form.move(-1)
		return a, nil
	case signupKey:
		if a.current.Screen == nav.Login {
			a.history.Navigate(nav.Signup, nil)
			return a, a.syncNav()
		}
		return a, nil
	case "enter":
		if !form.onLastSlot() {
			form.move(1)
			return a, nil
		}
		return a, kh.submit(form)
	}
	return a, form.update(msg)
}

func (kh *KeyHandler) submit(form *authForm) tea.Cmd {
	a := kh.app
	form.err = ""
	if form == a.login {
		return a.signIn(form.value(fieldEmail), form.value(fieldPassword))
	}
	reg, problem := form.registration()
	if problem != "" {
		form.err = problem
		return nil
	}
	return a.signUp(reg)
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	switch key {
	case kh.keys.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.keys.Help:
		a.showHelp = !a.showHelp
		return a, nil, true
	}

	switch a.current.Screen {
	case nav.DoctorHome, nav.NonDoctorHome:
		return kh.handleHomeCustomKeys(key)
	case nav.Poll:
		if key == "enter" || key == kh.keys.OpenSource {
			return a, a.openURL(PollURL), true
		}
	case nav.Source:
		if key == "enter" || key == kh.keys.OpenSource {
			return a, a.openURL(a.current.Params["url"]), true
		}
	case nav.Logout:
		switch key {
		case "enter", "y":
			if a.busy {
				return a, nil, true
			}
			return a, a.logout(), true
		case "n":
			model, cmd := kh.navigateBack()
			return model, cmd, true
		}
	}
	return a, nil, false
}

func (kh *KeyHandler) handleHomeCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	if a.home == nil {
		return a, nil, false
	}

	switch key {
	case kh.keys.Poll:
		a.history.Navigate(nav.Poll, nil)
		return a, a.syncNav(), true
	case kh.keys.Logout:
		a.history.Navigate(nav.Logout, nil)
		return a, a.syncNav(), true
	case kh.keys.Menu:
		if a.mode == modeMenu {
			a.mode = modeFeed
		} else {
			a.mode = modeMenu
		}
		return a, nil, true
	case kh.keys.Search:
		if a.mode != modeMenu {
			return kh.enterSearchMode()
		}
	}

	switch a.mode {
	case modeFeed:
		switch key {
		case kh.keys.Refresh:
			if a.home.vm.Status == feed.Loading {
				return a, nil, true
			}
			return a, tea.Batch(a.refreshFeed(a.home), a.setStatus(MsgRefreshing, StatusInfo, 0)), true
		case kh.keys.Retry:
			if a.home.vm.Status != feed.Failed {
				return a, nil, true
			}
			return a, a.retryFeed(a.home), true
		case kh.keys.OpenSource:
			return a, a.openSource(a.selectedPost()), true
		}
	case modeReader:
		if key == kh.keys.OpenSource {
			return a, a.openSource(a.currentPost), true
		}
	}
	return a, nil, false
}

func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	if a.home == nil || (a.current.Screen != nav.DoctorHome && a.current.Screen != nav.NonDoctorHome) {
		return a, nil
	}

	var cmd tea.Cmd
	switch a.mode {
	case modeFeed:
		if msg.String() == "enter" {
			if p := a.selectedPost(); p != nil {
				a.openReader(*p)
				a.cameFromSearch = false
			}
			return a, nil
		}
		a.postList, cmd = a.postList.Update(msg)
		return a, cmd

	case modeReader:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case modeMenu:
		if msg.String() == "enter" {
			item, ok := a.menuList.SelectedItem().(menuItem)
			if !ok {
				return a, nil
			}
			if item.topic == nil {
				a.mode = modeFeed
				a.history.Navigate(nav.Logout, nil)
				return a, a.syncNav()
			}
			return a, a.applyTopic(*item.topic)
		}
		a.menuList, cmd = a.menuList.Update(msg)
		return a, cmd

	case modeSearch:
		switch msg.String() {
		case "tab", "shift+tab":
			a.searchInput.Focus()
			return a, nil
		case "up":
			if a.searchList.Index() == 0 {
				a.searchInput.Focus()
				return a, nil
			}
		case "enter":
			if i, ok := a.searchList.SelectedItem().(searchResultItem); ok {
				a.openReader(i.post)
				a.cameFromSearch = true
			}
			return a, nil
		}
		a.searchList, cmd = a.searchList.Update(msg)
		return a, cmd
	}
	return a, nil
}

// navigateBack closes the innermost view first, then pops the history. At a
// root screen it quits.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.current.Screen {
	case nav.Splash, nav.AuthLoading:
		return a, nil
	case nav.Logout, nav.Source, nav.Poll, nav.Signup:
		if a.busy {
			return a, nil
		}
		if !a.history.GoBack() {
			a.history.Reset(nav.Login)
		}
		return a, a.syncNav()
	case nav.DoctorHome, nav.NonDoctorHome:
		switch {
		case a.mode == modeReader && a.cameFromSearch:
			a.mode = modeSearch
			a.cameFromSearch = false
			a.searchInput.Blur()
			return a, nil
		case a.mode != modeFeed:
			kh.exitSearch()
			a.mode = modeFeed
			return a, nil
		case a.topic != "":
			return a, a.clearTopic()
		}
	}

	if a.history.GoBack() {
		return a, a.syncNav()
	}
	a.Close()
	return a, tea.Quit
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd, bool) {
	a := kh.app
	if a.home.vm.Status != feed.Ready {
		return a, a.setStatus(MsgLoadingPosts, StatusWarn, statusTTL), true
	}
	a.mode = modeSearch
	a.searchInput.Reset()
	a.searchInput.Focus()
	a.searchList.SetItems([]list.Item{})
	return a, nil, true
}

func (kh *KeyHandler) exitSearch() {
	a := kh.app
	a.searchInput.Reset()
	a.searchInput.Blur()
	a.searchList.SetItems([]list.Item{})
	a.searchSeq++
}

// sanitizeSearchInput sanitizes and limits search input length
func (kh *KeyHandler) sanitizeSearchInput(input string) string {
	input = strings.TrimSpace(input)

	if len(input) > 256 {
		input = input[:256]
	}

	input = strings.Join(strings.Fields(input), " ")
	return input
}

// GetHelpForCurrentView returns the key hints for the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	a := kh.app
	k := kh.keys
	switch a.current.Screen {
	case nav.Login:
		return []string{"tab: next field", "enter: sign in", signupKey + ": sign up", k.Quit + ": quit"}
	case nav.Signup:
		return []string{"tab: next field", "enter: create account", k.Back + ": login"}
	case nav.Poll:
		return []string{"enter: open poll", k.Back + ": back"}
	case nav.Source:
		return []string{"enter: open in browser", k.Back + ": back"}
	case nav.Logout:
		return []string{"enter: log out", k.Back + ": cancel"}
	case nav.DoctorHome, nav.NonDoctorHome:
	default:
		return []string{k.Quit + ": quit"}
	}

	switch a.mode {
	case modeReader:
		help := []string{"↑↓: scroll", k.Back + ": back"}
		if a.currentPost != nil && a.currentPost.HasSource() {
			help = append([]string{k.OpenSource + ": source"}, help...)
		}
		return help
	case modeSearch:
		if a.searchInput.Focused() {
			return []string{"type to search", "tab: results", k.Back + ": back"}
		}
		return []string{"enter: read", "tab: search box", k.Back + ": back"}
	case modeMenu:
		return []string{"enter: select", k.Menu + ": close", k.Back + ": back"}
	}

	help := []string{"enter: read", k.Refresh + ": refresh", k.Search + ": search", k.Menu + ": menu", k.Poll + ": poll"}
	if a.home != nil && a.home.vm.Status == feed.Failed {
		help = append([]string{k.Retry + ": retry"}, help...)
	}
	if p := a.selectedPost(); p != nil && p.HasSource() {
		help = append(help, k.OpenSource+": source")
	}
	return append(help, k.Help+": help")
}

// bindingHelp lists every configured binding for the help overlay.
func (kh *KeyHandler) bindingHelp() [][2]string {
	k := kh.keys
	return [][2]string{
		{k.Refresh, "refresh the feed"},
		{k.Retry, "retry after a failure"},
		{k.Search, "search posts"},
		{k.OpenSource, "open the post's source"},
		{k.Menu, "topics and logout"},
		{k.Poll, "take the poll"},
		{k.Logout, "log out"},
		{k.Back, "back"},
		{k.Help, "toggle this help"},
		{k.Quit, "quit"},
	}
}
