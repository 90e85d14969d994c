package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shhrii/Sankshep-App/internal/publishing"
)

type fakeSource struct {
	mu sync.Mutex

	categories    []publishing.Category
	categoryErrs  []error
	categoryCalls int
	categoryGate  chan struct{}

	posts     []publishing.Post
	postErrs  []error
	postCalls int
	postsFn   func(ctx context.Context, call, id int) ([]publishing.Post, error)
}

func (f *fakeSource) Categories(ctx context.Context) ([]publishing.Category, error) {
	f.mu.Lock()
	f.categoryCalls++
	gate := f.categoryGate
	var err error
	if len(f.categoryErrs) > 0 {
		err, f.categoryErrs = f.categoryErrs[0], f.categoryErrs[1:]
	}
	categories := f.categories
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (f *fakeSource) Posts(ctx context.Context, id int) ([]publishing.Post, error) {
	f.mu.Lock()
	f.postCalls++
	call := f.postCalls
	fn := f.postsFn
	var err error
	if len(f.postErrs) > 0 {
		err, f.postErrs = f.postErrs[0], f.postErrs[1:]
	}
	posts := f.posts
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, call, id)
	}
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (f *fakeSource) calls() (categories, posts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categoryCalls, f.postCalls
}

func defaultCategories() []publishing.Category {
	return []publishing.Category{
		{ID: 3, Name: "Doctor"},
		{ID: 4, Name: "NonDoctor"},
		{ID: 9, Name: "Case Studies"},
	}
}

func samplePosts(n int) []publishing.Post {
	posts := make([]publishing.Post, n)
	for i := range posts {
		posts[i] = publishing.Post{
			ID:      100 + i,
			Date:    "2024-05-02T09:30:00",
			Title:   publishing.Rendered{Rendered: fmt.Sprintf("Post %d &amp; notes", i)},
			Excerpt: publishing.Rendered{Rendered: fmt.Sprintf("<p>Excerpt for post %d</p>", i)},
			Content: publishing.Rendered{Rendered: "<p>Body</p>"},
		}
	}
	return posts
}

func idSet(posts []Post) map[int]bool {
	set := make(map[int]bool, len(posts))
	for _, p := range posts {
		set[p.ID] = true
	}
	return set
}
