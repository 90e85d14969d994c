package tui

import (
	"fmt"
	"strings"

	"github.com/Shhrii/Sankshep-App/internal/feed"
	"github.com/Shhrii/Sankshep-App/internal/search"
)

// homeMode is the sub-view of a mounted home screen.
type homeMode int

const (
	modeFeed homeMode = iota
	modeReader
	modeSearch
	modeMenu
)

const menuLogout = "Logout"

type postItem struct {
	post feed.Post
}

func (i postItem) Title() string { return i.post.Title }

func (i postItem) Description() string {
	desc := truncateEnd(i.post.Summary, 90)
	var meta []string
	if i.post.HasSource() {
		meta = append(meta, SourceTagStyle.Render(i.post.SourceTag))
	}
	if !i.post.PublishedAt.IsZero() {
		meta = append(meta, TimeStyle.Render(i.post.PublishedAt.Format("Jan 2, 2006")))
	}
	if len(meta) == 0 {
		return desc
	}
	return desc + " • " + strings.Join(meta, " • ")
}

func (i postItem) FilterValue() string { return i.post.Title }

// menuItem is a side-menu entry: a topic, or Logout when topic is nil.
type menuItem struct {
	topic *search.Topic
}

func (i menuItem) Title() string {
	if i.topic == nil {
		return menuLogout
	}
	return i.topic.Name
}

func (i menuItem) Description() string {
	if i.topic == nil {
		return "Sign out of this device"
	}
	return fmt.Sprintf("Posts about %s", strings.ToLower(i.topic.Name))
}

func (i menuItem) FilterValue() string { return i.Title() }

type searchResultItem struct {
	post  feed.Post
	score float64
}

func (i searchResultItem) Title() string { return i.post.Title }

func (i searchResultItem) Description() string {
	return truncateEnd(i.post.Summary, 70)
}

func (i searchResultItem) FilterValue() string { return i.post.Title + " " + i.post.Summary }
