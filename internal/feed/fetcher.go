package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/Shhrii/Sankshep-App/internal/content"
	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/publishing"
)

// Status is the lifecycle stage of a feed view.
type Status int

const (
	Loading Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

const fallbackMessage = "Something went wrong"

// ErrNoCategory is reported by Refresh or Retry before any Fetch.
var ErrNoCategory = errors.New("no category selected")

// FeedViewModel is what a feed screen renders. Posts is set only when Ready
// and Message only when Failed. Reveal increments on every transition to Ready.
type FeedViewModel struct {
	Status       Status
	Category     string
	Posts        []Post
	Message      string
	IsRefreshing bool
	Reveal       uint64
}

type Options struct {
	SummaryWords int
	// Retries is the number of post request attempts; 1 means no retry.
	Retries    int
	RetryDelay time.Duration
}

// Fetcher owns one FeedViewModel. A newer fetch supersedes an older one, and
// completions from superseded fetches or after Close never touch the state.
type Fetcher struct {
	source     Source
	categories *CategoryResolver
	opts       Options
	log        *debuglog.FieldLogger

	mu        sync.Mutex
	state     FeedViewModel
	version   uint64
	gen       uint64
	cancel    context.CancelFunc
	closed    bool
	listeners []func(FeedViewModel)

	notifyMu  sync.Mutex
	delivered uint64
}

func NewFetcher(source Source, categories *CategoryResolver, opts Options) *Fetcher {
	if categories == nil {
		categories = NewCategoryResolver(source)
	}
	if opts.SummaryWords <= 0 {
		opts.SummaryWords = content.DefaultSummaryWords
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	return &Fetcher{
		source:     source,
		categories: categories,
		opts:       opts,
		log:        debuglog.WithFields(map[string]interface{}{"component": "feed"}),
		state:      FeedViewModel{Status: Loading},
	}
}

// OnChange registers fn for state changes. fn runs on the goroutine that
// caused the change; a state older than one already delivered is skipped.
func (f *Fetcher) OnChange(fn func(FeedViewModel)) {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// Fetch loads categoryName and returns the resulting state. If a newer fetch
// started meanwhile, the newer state is returned instead.
func (f *Fetcher) Fetch(ctx context.Context, categoryName string) FeedViewModel {
	return f.run(ctx, strings.TrimSpace(categoryName), false)
}

// Refresh re-fetches the last category with IsRefreshing set while in flight.
func (f *Fetcher) Refresh(ctx context.Context) FeedViewModel {
	return f.run(ctx, f.lastCategory(), true)
}

// Retry is the manual retry affordance after a failure.
func (f *Fetcher) Retry(ctx context.Context) FeedViewModel {
	return f.run(ctx, f.lastCategory(), false)
}

func (f *Fetcher) Snapshot() FeedViewModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneState(f.state)
}

// Close cancels any in-flight fetch and freezes the state.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher) lastCategory() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Category
}

func (f *Fetcher) run(ctx context.Context, category string, refreshing bool) FeedViewModel {
	gen, rctx, ok := f.begin(ctx, category, refreshing)
	if !ok {
		return f.Snapshot()
	}

	next := f.load(rctx, category)

	f.mu.Lock()
	if f.closed || gen != f.gen {
		state := cloneState(f.state)
		f.mu.Unlock()
		f.log.Debugf("Discarding superseded fetch %d for %q", gen, category)
		return state
	}
	if next.Status == Ready {
		next.Reveal = f.state.Reveal + 1
	} else {
		next.Reveal = f.state.Reveal
	}
	next.Category = category
	f.cancel = nil
	version, state, listeners := f.setLocked(next)
	f.mu.Unlock()

	f.notify(version, listeners, state)
	return cloneState(state)
}

func (f *Fetcher) begin(parent context.Context, category string, refreshing bool) (uint64, context.Context, bool) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0, nil, false
	}
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel

	version, state, listeners := f.setLocked(FeedViewModel{
		Status:       Loading,
		Category:     category,
		IsRefreshing: refreshing,
		Reveal:       f.state.Reveal,
	})
	gen := f.gen
	f.mu.Unlock()

	f.notify(version, listeners, state)
	return gen, ctx, true
}

func (f *Fetcher) load(ctx context.Context, category string) FeedViewModel {
	if category == "" {
		return failed(ErrNoCategory)
	}

	id, err := f.categories.ResolveCategoryID(ctx, category)
	if err != nil {
		f.log.Warnf("Resolving category %q: %v", category, err)
		return failed(err)
	}

	raw, err := f.fetchPosts(ctx, id)
	if err != nil {
		f.log.Warnf("Fetching posts for %q (%d): %v", category, id, err)
		return failed(err)
	}

	posts := make([]Post, 0, len(raw))
	for _, r := range raw {
		posts = append(posts, normalize(r, f.opts.SummaryWords))
	}
	f.log.Infof("Loaded %d posts for %q", len(posts), category)
	return FeedViewModel{Status: Ready, Posts: Shuffle(posts)}
}

func (f *Fetcher) fetchPosts(ctx context.Context, categoryID int) ([]publishing.Post, error) {
	if f.opts.Retries <= 1 {
		posts, err := f.source.Posts(ctx, categoryID)
		if err != nil {
			return nil, upstream(err)
		}
		return posts, nil
	}

	var posts []publishing.Post
	retrier := repeater.NewBackoff(f.opts.Retries, f.opts.RetryDelay, repeater.WithMaxDelay(5*time.Second))
	err := retrier.Do(ctx, func() error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		result, err := f.source.Posts(ctx, categoryID)
		if err != nil {
			f.log.Debugf("Post request for category %d failed, may retry: %v", categoryID, err)
			return err
		}
		posts = result
		return nil
	})
	if err != nil {
		return nil, upstream(err)
	}
	return posts, nil
}

func (f *Fetcher) setLocked(next FeedViewModel) (uint64, FeedViewModel, []func(FeedViewModel)) {
	f.state = next
	f.version++
	listeners := make([]func(FeedViewModel), len(f.listeners))
	copy(listeners, f.listeners)
	return f.version, cloneState(next), listeners
}

func (f *Fetcher) notify(version uint64, listeners []func(FeedViewModel), state FeedViewModel) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
	if version <= f.delivered {
		return
	}
	f.delivered = version
	for _, fn := range listeners {
		fn(cloneState(state))
	}
}

func failed(err error) FeedViewModel {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = fallbackMessage
	}
	return FeedViewModel{Status: Failed, Message: msg}
}

func cloneState(s FeedViewModel) FeedViewModel {
	if s.Posts != nil {
		posts := make([]Post, len(s.Posts))
		copy(posts, s.Posts)
		s.Posts = posts
	}
	return s
}
