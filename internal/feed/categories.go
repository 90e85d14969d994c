package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/publishing"
)

var (
	// ErrUpstreamUnavailable is shared with the publishing client so either
	// package's sentinel matches.
	ErrUpstreamUnavailable = publishing.ErrUpstreamUnavailable
	ErrCategoryNotFound    = errors.New("category not found")
)

// CategoryNotFoundError carries the user-facing message for a lookup miss.
type CategoryNotFoundError struct {
	Name string
}

func (e *CategoryNotFoundError) Error() string {
	return capitalize(e.Name) + " category not found."
}

func (e *CategoryNotFoundError) Unwrap() error { return ErrCategoryNotFound }

// Source is the publishing API as the feed sees it.
type Source interface {
	Categories(ctx context.Context) ([]publishing.Category, error)
	Posts(ctx context.Context, categoryID int) ([]publishing.Post, error)
}

// CategoryResolver maps category names to ids. The first successful list is
// kept for the life of the resolver; failed loads are not remembered.
type CategoryResolver struct {
	source Source
	group  singleflight.Group

	mu         sync.RWMutex
	categories []publishing.Category
}

func NewCategoryResolver(source Source) *CategoryResolver {
	return &CategoryResolver{source: source}
}

// ResolveCategoryID matches name case-insensitively against the full list.
func (r *CategoryResolver) ResolveCategoryID(ctx context.Context, name string) (int, error) {
	categories, err := r.Categories(ctx)
	if err != nil {
		return 0, err
	}

	want := strings.TrimSpace(name)
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), want) {
			return c.ID, nil
		}
	}
	debuglog.Warnf("Category %q not in %d categories", want, len(categories))
	return 0, &CategoryNotFoundError{Name: want}
}

// Categories returns the cached list, loading it once. Concurrent first
// callers share a single request.
func (r *CategoryResolver) Categories(ctx context.Context) ([]publishing.Category, error) {
	r.mu.RLock()
	cached := r.categories
	r.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	ch := r.group.DoChan("categories", func() (interface{}, error) {
		// the shared load must not die with whichever caller started it
		categories, err := r.source.Categories(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if categories == nil {
			categories = []publishing.Category{}
		}
		r.mu.Lock()
		r.categories = categories
		r.mu.Unlock()
		return categories, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, upstream(res.Err)
		}
		return res.Val.([]publishing.Category), nil
	}
}

// Cached reports whether the category list has been loaded.
func (r *CategoryResolver) Cached() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.categories != nil
}

func upstream(err error) error {
	if errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
