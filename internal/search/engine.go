package search

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Shhrii/Sankshep-App/internal/content"
	"github.com/Shhrii/Sankshep-App/internal/feed"
)

// Result represents a search match with relevance scoring
type Result struct {
	Post    *feed.Post
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "summary", "body", "source"
	Text   string // matched text snippet
	Weight float64
}

// Engine scans the loaded feed without an index. It serves as the fallback
// when the bleve index cannot be built.
type Engine struct {
	mu    sync.RWMutex
	posts []indexedPost
	now   func() time.Time
}

type indexedPost struct {
	post feed.Post
	body string
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// OnFeedLoaded replaces the searchable posts.
func (e *Engine) OnFeedLoaded(_ string, posts []feed.Post) {
	indexed := make([]indexedPost, len(posts))
	for i, p := range posts {
		indexed[i] = indexedPost{post: p, body: content.StripMarkup(p.Body)}
	}

	e.mu.Lock()
	e.posts = indexed
	e.mu.Unlock()
}

func (e *Engine) DocCount() (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.posts), nil
}

// Search ranks the loaded posts against query.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	e.mu.RLock()
	posts := e.posts
	e.mu.RUnlock()

	results := []*Result{}
	for i := range posts {
		if result := e.searchPost(&posts[i].post, posts[i].body, terms); result != nil {
			results = append(results, result)
		}
	}

	sortResults(results)

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchInPost searches within a single post, loaded or not.
func (e *Engine) SearchInPost(post *feed.Post, query string) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 || post == nil {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	if result := e.searchPost(post, content.StripMarkup(post.Body), terms); result != nil {
		return []*Result{result}, nil
	}
	return []*Result{}, nil
}

func (e *Engine) searchPost(post *feed.Post, body string, terms []string) *Result {
	var matches []Match
	var totalScore float64

	if titleScore := scoreField(post.Title, terms, 4.0); titleScore > 0 {
		matches = append(matches, Match{Field: "title", Text: post.Title, Weight: titleScore})
		totalScore += titleScore
	}

	if summaryScore := scoreField(post.Summary, terms, 2.0); summaryScore > 0 {
		matches = append(matches, Match{Field: "summary", Text: truncate(post.Summary, 150), Weight: summaryScore})
		totalScore += summaryScore
	}

	if bodyScore := scoreField(body, terms, 1.0); bodyScore > 0 {
		matches = append(matches, Match{Field: "body", Text: findBestSnippet(body, terms, 200), Weight: bodyScore})
		totalScore += bodyScore
	}

	if sourceScore := scoreField(post.SourceTag, terms, 0.5); sourceScore > 0 {
		matches = append(matches, Match{Field: "source", Text: post.SourceTag, Weight: sourceScore})
		totalScore += sourceScore
	}

	if totalScore == 0 {
		return nil
	}

	totalScore *= 1.0 + recencyBoost(post.PublishedAt, e.now())

	p := *post
	return &Result{Post: &p, Score: totalScore, Matches: matches}
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		// Phrase match
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet returns the window of text holding the most query terms.
func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize >= len(words) {
		return truncate(text, maxLength)
	}

	bestScore := 0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		window := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(window, term) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// tokenize lower-cases text and splits it on anything that is not a letter
// or digit. Single characters are dropped.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len([]rune(term)) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if term := current.String(); len([]rune(term)) > 1 {
		terms = append(terms, term)
	}

	return terms
}

// truncate limits text to maxLen runes with an ellipsis
func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}

// recencyBoost gives slight preference to newer posts.
func recencyBoost(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	switch {
	case age < 7*24*time.Hour:
		return 0.10
	case age < 30*24*time.Hour:
		return 0.05
	default:
		return 0
	}
}

// sortResults orders by score, highest first, then by post ID so equal
// scores come back in a stable order.
func sortResults(results []*Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Post.ID < results[j].Post.ID
	})
}
