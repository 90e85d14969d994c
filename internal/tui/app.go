package tui

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/Shhrii/Sankshep-App/internal/config"
	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/feed"
	"github.com/Shhrii/Sankshep-App/internal/identity"
	"github.com/Shhrii/Sankshep-App/internal/media"
	"github.com/Shhrii/Sankshep-App/internal/nav"
	"github.com/Shhrii/Sankshep-App/internal/search"
	"github.com/Shhrii/Sankshep-App/internal/session"
)

// PollURL is the external poll page the Poll screen opens.
const PollURL = "https://sankshep.app/poll/"

// linkOpener hands a link to an external application.
type linkOpener interface {
	Open(link string) error
}

// homeState is the mounted DoctorHome or NonDoctorHome screen. Each mount
// owns its own fetcher; the slot is how that fetcher reaches the UI loop.
type homeState struct {
	screen   nav.Screen
	category string
	fetcher  *feed.Fetcher
	slot     *feedSlot
	vm       feed.FeedViewModel
}

// feedSlot holds the newest state a fetcher published and a coalescing
// signal for the UI loop.
type feedSlot struct {
	mu     sync.Mutex
	state  feed.FeedViewModel
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newFeedSlot() *feedSlot {
	return &feedSlot{signal: make(chan struct{}, 1), done: make(chan struct{})}
}

func (s *feedSlot) publish(vm feed.FeedViewModel) {
	s.mu.Lock()
	s.state = vm
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *feedSlot) latest() feed.FeedViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *feedSlot) close() {
	s.once.Do(func() { close(s.done) })
}

type App struct {
	config     *config.Config
	ctx        context.Context
	cancel     context.CancelFunc
	history    *nav.History
	resolver   *session.Resolver
	flows      *session.Flows
	source     feed.Source
	categories *feed.CategoryResolver
	searcher   search.Searcher
	launcher   linkOpener
	keyHandler *KeyHandler
	log        *debuglog.FieldLogger

	navSignal    chan struct{}
	stopResolver func()
	current      nav.Entry

	login  *authForm
	signup *authForm
	busy   bool

	home        *homeState
	mode        homeMode
	topic       string
	currentPost *feed.Post
	// cameFromSearch sends Back from the reader to the search results.
	cameFromSearch bool

	postList    list.Model
	menuList    list.Model
	searchList  list.Model
	searchInput textinput.Model
	searchSeq   int
	viewport    viewport.Model
	spinner     spinner.Model

	showHelp        bool
	status          statusLine
	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp wires the navigation history, the session resolver and the account
// flows around ids. Posts come from source.
func NewApp(cfg *config.Config, ids *identity.Store, source feed.Source) *App {
	postList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	postList.SetShowStatusBar(false)
	postList.SetFilteringEnabled(false)
	postList.SetShowHelp(false)
	postList.KeyMap.Quit.SetEnabled(false)

	menuItems := make([]list.Item, 0, len(search.Topics)+1)
	for i := range search.Topics {
		menuItems = append(menuItems, menuItem{topic: &search.Topics[i]})
	}
	menuItems = append(menuItems, menuItem{})
	menuList := list.New(menuItems, list.NewDefaultDelegate(), 0, 0)
	menuList.Title = "› menu"
	menuList.SetShowStatusBar(false)
	menuList.SetFilteringEnabled(false)
	menuList.SetShowHelp(false)
	menuList.KeyMap.Quit.SetEnabled(false)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)
	searchList.KeyMap.Quit.SetEnabled(false)

	si := textinput.New()
	si.Placeholder = "Search posts..."

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = HeaderStyle

	ctx, cancel := context.WithCancel(context.Background())
	history := nav.NewHistory(nav.Splash)

	app := &App{
		config:      cfg,
		ctx:         ctx,
		cancel:      cancel,
		history:     history,
		resolver:    session.NewResolver(ids, history),
		flows:       session.NewFlows(ids, history),
		source:      source,
		categories:  feed.NewCategoryResolver(source),
		searcher:    search.New(),
		launcher:    media.NewLauncher(),
		log:         debuglog.WithFields(map[string]interface{}{"component": "tui"}),
		navSignal:   make(chan struct{}, 1),
		current:     history.Current(),
		login:       newLoginForm(),
		signup:      newSignupForm(),
		postList:    postList,
		menuList:    menuList,
		searchList:  searchList,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
	}
	history.OnChange(func(nav.Entry) {
		select {
		case app.navSignal <- struct{}{}:
		default:
		}
	})

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Close stops the resolver, releases the mounted feed and cancels every
// command still in flight. It is safe to call more than once.
func (a *App) Close() {
	if a.stopResolver != nil {
		a.stopResolver()
	}
	a.unmountHome()
	a.cancel()
	if c, ok := a.searcher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warnf("Closing search index: %v", err)
		}
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		a.waitForNav(),
		a.splash(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		if a.mode == modeReader && a.currentPost != nil {
			a.renderPost(*a.currentPost)
		}

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case splashDoneMsg:
		if a.current.Screen == nav.Splash {
			a.history.Reset(nav.AuthLoading)
			a.startResolver()
			cmds = append(cmds, a.syncNav(), a.spinner.Tick)
		}

	case navChangedMsg:
		cmds = append(cmds, a.syncNav(), a.waitForNav())

	case feedStateMsg:
		if a.home == nil || a.home.slot != msg.slot {
			break
		}
		cmds = append(cmds, a.applyFeed(msg.slot.latest()), a.waitForFeed(msg.slot))

	case authResultMsg:
		a.busy = false
		form := a.login
		if msg.screen == nav.Signup {
			form = a.signup
		}
		if msg.err != nil {
			form.err = capitalize(msg.err.Error())
			cmds = append(cmds, a.setStatus("", StatusInfo, 0))
			break
		}
		a.login.reset()
		a.signup.reset()
		cmds = append(cmds, a.setStatus("", StatusInfo, 0), a.syncNav())

	case logoutResultMsg:
		a.busy = false
		if msg.err != nil {
			cmds = append(cmds, a.setStatus(MsgLogoutFailed, StatusError, statusTTL))
			break
		}
		cmds = append(cmds, a.setStatus("", StatusInfo, 0), a.syncNav())

	case searchDebounceMsg:
		if msg.seq == a.searchSeq && a.mode == modeSearch {
			cmds = append(cmds, a.performSearch(msg.query, msg.seq))
		}

	case searchResultsMsg:
		if msg.seq != a.searchSeq || a.mode != modeSearch {
			break
		}
		if msg.err != nil {
			cmds = append(cmds, a.setStatus(msg.err.Error(), StatusError, statusTTL))
			break
		}
		items := make([]list.Item, 0, len(msg.results))
		for _, r := range msg.results {
			items = append(items, searchResultItem{post: *r.Post, score: r.Score})
		}
		a.searchList.SetItems(items)
		a.searchList.ResetSelected()
		if msg.query != "" {
			cmds = append(cmds, a.setStatus(MsgResultsCount(len(items)), StatusInfo, 0))
		}

	case statusMsg:
		cmds = append(cmds, a.setStatus(msg.text, msg.kind, statusTTL))

	case errorMsg:
		a.log.Warnf("%v", msg.err)
		cmds = append(cmds, a.setStatus(msg.err.Error(), StatusError, statusTTL))

	case statusClearMsg:
		a.clearStatus(msg.seq)

	case spinner.TickMsg:
		if a.isLoading() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	contentHeight := a.contentHeight()
	a.postList.SetSize(width, contentHeight)
	a.menuList.SetSize(width, contentHeight)
	a.searchList.SetSize(width, max(contentHeight-6, 1))
	a.searchInput.Width = max(width-8, 10)
	a.viewport.Width = width
	a.viewport.Height = contentHeight
}

// contentHeight leaves room for the header line and the status bar.
func (a *App) contentHeight() int {
	return max(a.height-4, 1)
}

func (a *App) isLoading() bool {
	switch a.current.Screen {
	case nav.Splash, nav.AuthLoading:
		return true
	}
	if a.busy {
		return true
	}
	return a.home != nil && a.home.vm.Status == feed.Loading
}

func (a *App) startResolver() {
	if a.stopResolver == nil {
		a.stopResolver = a.resolver.Start(a.ctx)
	}
}

// syncNav brings the UI in line with the top of the history. It is
// idempotent, so a coalesced signal is enough.
func (a *App) syncNav() tea.Cmd {
	entry := a.history.Current()
	changed := entry.Screen != a.current.Screen
	a.current = entry

	if a.home != nil && !slices.Contains(a.history.Screens(), a.home.screen) {
		a.unmountHome()
	}

	var cmds []tea.Cmd
	switch entry.Screen {
	case nav.DoctorHome, nav.NonDoctorHome:
		if a.home == nil || a.home.screen != entry.Screen {
			cmds = append(cmds, a.mountHome(entry.Screen))
		}
	case nav.Login:
		if changed {
			a.login.err = ""
			a.login.focusFirst()
		}
	case nav.Signup:
		if changed {
			a.signup.err = ""
			a.signup.focusFirst()
		}
	}
	if changed {
		a.showHelp = false
		a.log.Debugf("Showing %s", entry.Screen)
	}
	return tea.Batch(cmds...)
}

func (a *App) categoryFor(screen nav.Screen) string {
	if screen == nav.NonDoctorHome {
		return a.config.Feed.NonDoctorCategory
	}
	return a.config.Feed.DoctorCategory
}

func (a *App) mountHome(screen nav.Screen) tea.Cmd {
	a.unmountHome()

	fetcher := feed.NewFetcher(a.source, a.categories, feed.Options{
		SummaryWords: a.config.Feed.SummaryWords,
		Retries:      a.config.Feed.Retries,
		RetryDelay:   a.config.Feed.RetryDelay,
	})
	h := &homeState{
		screen:   screen,
		category: a.categoryFor(screen),
		fetcher:  fetcher,
		slot:     newFeedSlot(),
		vm:       fetcher.Snapshot(),
	}
	fetcher.OnChange(h.slot.publish)
	a.home = h

	a.mode = modeFeed
	a.topic = ""
	a.currentPost = nil
	a.postList.Title = "› " + h.category + " feed"
	a.postList.SetItems(nil)

	return tea.Batch(a.waitForFeed(h.slot), a.fetchFeed(h), a.spinner.Tick)
}

func (a *App) unmountHome() {
	if a.home == nil {
		return
	}
	a.home.slot.close()
	a.home.fetcher.Close()
	a.home = nil
	a.mode = modeFeed
	a.topic = ""
	a.currentPost = nil
	a.cameFromSearch = false
}

// applyFeed renders a state published by the mounted fetcher.
func (a *App) applyFeed(vm feed.FeedViewModel) tea.Cmd {
	a.home.vm = vm
	switch vm.Status {
	case feed.Loading:
		a.postList.SetItems(nil)
		return a.spinner.Tick
	case feed.Failed:
		a.postList.SetItems(nil)
		if a.mode == modeReader || a.mode == modeSearch {
			a.mode = modeFeed
		}
		return nil
	}

	if l, ok := a.searcher.(search.UpdateListener); ok {
		l.OnFeedLoaded(vm.Category, vm.Posts)
	}
	a.topic = ""
	a.setPosts(vm.Posts)
	return a.setStatus(MsgLoaded(len(vm.Posts)), StatusSuccess, statusTTL)
}

func (a *App) setPosts(posts []feed.Post) {
	items := make([]list.Item, 0, len(posts))
	for _, p := range posts {
		items = append(items, postItem{post: p})
	}
	a.postList.SetItems(items)
	a.postList.ResetSelected()
}

func (a *App) selectedPost() *feed.Post {
	item, ok := a.postList.SelectedItem().(postItem)
	if !ok {
		return nil
	}
	p := item.post
	return &p
}

// applyTopic narrows the feed to a menu topic.
func (a *App) applyTopic(topic search.Topic) tea.Cmd {
	a.mode = modeFeed
	if a.home == nil || a.home.vm.Status != feed.Ready {
		return a.setStatus(MsgLoadingPosts, StatusWarn, statusTTL)
	}
	posts, err := search.FilterTopic(a.searcher, topic, 0)
	if err != nil {
		return a.setStatus(wrapErr("filter "+topic.Name, err).Error(), StatusError, statusTTL)
	}
	a.topic = topic.Name
	a.setPosts(posts)
	return a.setStatus(MsgTopicCount(topic.Name, len(posts)), StatusInfo, 0)
}

// clearTopic restores the full feed.
func (a *App) clearTopic() tea.Cmd {
	a.topic = ""
	if a.home != nil {
		a.setPosts(a.home.vm.Posts)
	}
	return a.setStatus("", StatusInfo, 0)
}

func (a *App) openReader(p feed.Post) {
	a.currentPost = &p
	a.mode = modeReader
	a.renderPost(p)
}

func (a *App) renderPost(p feed.Post) {
	md := postMarkdown(p)
	rendered := md
	if r, err := a.getRenderer(); err != nil {
		a.log.Warnf("Creating renderer: %v", err)
	} else if out, err := r.Render(md); err != nil {
		a.log.Warnf("Rendering post %d: %v", p.ID, err)
	} else {
		rendered = out
	}
	a.viewport.SetContent(rendered)
	a.viewport.GotoTop()
}
