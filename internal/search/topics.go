package search

import (
	"strings"

	"github.com/Shhrii/Sankshep-App/internal/feed"
)

// Topic is a side-menu entry that narrows the current feed.
type Topic struct {
	Name  string
	Query string
}

// Topics lists the menu entries in display order.
var Topics = []Topic{
	{Name: "Research", Query: "research study trial evidence clinical journal"},
	{Name: "Case Studies", Query: "case patient presented treated history"},
	{Name: "Dosha Imbalance", Query: "dosha vata pitta kapha imbalance"},
	{Name: "Health Focus", Query: "health wellness immunity lifestyle"},
	{Name: "Ayurvedic Recipes", Query: "recipe ingredients prepare herbs ayurvedic"},
}

// TopicByName finds a topic ignoring case and surrounding space.
func TopicByName(name string) (Topic, bool) {
	name = strings.TrimSpace(name)
	for _, t := range Topics {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Topic{}, false
}

// Filter returns the posts matching query, best match first.
func Filter(s Searcher, query string, limit int) ([]feed.Post, error) {
	results, err := s.Search(query, limit)
	if err != nil {
		return nil, err
	}
	posts := make([]feed.Post, 0, len(results))
	for _, r := range results {
		posts = append(posts, *r.Post)
	}
	return posts, nil
}

// FilterTopic narrows the loaded feed to topic.
func FilterTopic(s Searcher, topic Topic, limit int) ([]feed.Post, error) {
	return Filter(s, topic.Query, limit)
}
