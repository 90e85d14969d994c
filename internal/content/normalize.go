// Package content turns WordPress HTML into display text. Everything here is
// pure: no I/O and no shared mutable state.
package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/Shhrii/Sankshep-App/internal/publishing"
	"github.com/Shhrii/Sankshep-App/internal/validation"
)

const (
	DefaultSummaryWords = 60
	Ellipsis            = "..."
	// NoImage is the placeholder shown when a post has no medium rendition.
	NoImage = "No image available"
)

// ErrInvalidURL is wrapped by ValidateSourceLink failures.
var ErrInvalidURL = validation.ErrInvalidURL

var (
	textPolicy    = newTextPolicy()
	linkValidator = validation.NewLinkValidator()
)

// newTextPolicy drops every tag and the bodies of script and style, leaving a
// space where a tag was so adjacent blocks do not run together.
func newTextPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}

// DecodeEntities reverses HTML entity encoding once, e.g. "&amp;" to "&".
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// StripMarkup returns the visible text of s on one line. The result never
// contains '<' or '>' and is unchanged by DecodeEntities.
//
// Entities are decoded until stable, so a literal entity such as "&amp;lt;"
// is decoded twice and its bracket blanked rather than shown as "&lt;".
func StripMarkup(s string) string {
	text := textPolicy.Sanitize(s)

	for {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}

	text = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return ' '
		}
		return r
	}, text)

	return strings.Join(strings.Fields(text), " ")
}

// Summary is StripMarkup cut to DefaultSummaryWords words.
func Summary(s string) string {
	return SummaryWords(s, DefaultSummaryWords)
}

// SummaryWords cuts the stripped text to n words, appending Ellipsis only
// when something was cut. n <= 0 disables truncation.
func SummaryWords(s string, n int) string {
	words := strings.Fields(StripMarkup(s))
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + Ellipsis
}

// SelectMedia returns the medium rendition of the first featured media.
func SelectMedia(post publishing.Post) (string, bool) {
	if len(post.Embedded.FeaturedMedia) == 0 {
		return "", false
	}
	medium, ok := post.Embedded.FeaturedMedia[0].MediaDetails.Sizes["medium"]
	if !ok {
		return "", false
	}
	u := strings.TrimSpace(medium.SourceURL)
	if u == "" {
		return "", false
	}
	return u, true
}

// ValidateSourceLink accepts only absolute http(s) URLs; nothing is prefixed
// or guessed. Errors wrap ErrInvalidURL.
func ValidateSourceLink(link string) (string, error) {
	return linkValidator.Validate(link)
}
