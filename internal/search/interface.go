package search

import "github.com/Shhrii/Sankshep-App/internal/feed"

// Searcher defines the minimal search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
	SearchInPost(post *feed.Post, query string) ([]*Result, error)
}

// UpdateListener is implemented by searchers that keep their own copy of
// the loaded feed and must be told when a new one arrives.
type UpdateListener interface {
	OnFeedLoaded(category string, posts []feed.Post)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
