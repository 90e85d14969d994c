package feed

import (
	"math/rand/v2"
	"time"

	"github.com/Shhrii/Sankshep-App/internal/content"
	"github.com/Shhrii/Sankshep-App/internal/publishing"
)

// Post is a normalized, display-ready post. ID is its only stable identity.
// Title is display text: the rendered title with markup stripped and entities
// decoded. Excerpt and Body keep the raw rendered HTML for the reader.
type Post struct {
	ID          int       `json:"id"`
	PublishedAt time.Time `json:"published_at"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"-"`
	Body        string    `json:"-"`
	Summary     string    `json:"summary"`
	SourceTag   string    `json:"source_tag,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	MediaURL    string    `json:"media_url,omitempty"`
}

// HasSource reports whether the source action is enabled for the post.
func (p Post) HasSource() bool {
	return p.SourceTag != "" && p.SourceURL != ""
}

func (p Post) HasMedia() bool {
	return p.MediaURL != ""
}

// Normalize converts an API post using the default summary length.
func Normalize(raw publishing.Post) Post {
	return normalize(raw, content.DefaultSummaryWords)
}

func normalize(raw publishing.Post, summaryWords int) Post {
	p := Post{
		ID:          raw.ID,
		PublishedAt: raw.PublishedAt(),
		Title:       content.StripMarkup(raw.Title.Rendered),
		Excerpt:     raw.Excerpt.Rendered,
		Body:        raw.Content.Rendered,
		Summary:     content.SummaryWords(raw.Excerpt.Rendered, summaryWords),
		SourceTag:   content.StripMarkup(raw.Meta.SourceTag),
	}
	if link, err := content.ValidateSourceLink(raw.Meta.SourceLink); err == nil {
		p.SourceURL = link
	}
	if media, ok := content.SelectMedia(raw); ok {
		p.MediaURL = media
	}
	return p
}

// Shuffle returns a uniformly permuted copy of posts; the input is untouched.
func Shuffle(posts []Post) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
