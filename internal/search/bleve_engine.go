package search

import (
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/Shhrii/Sankshep-App/internal/content"
	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/feed"
)

// BleveEngine indexes the loaded feed in memory. Nothing is written to
// disk; the index lives as long as the feed screen that fills it.
type BleveEngine struct {
	idx bleve.Index

	mu    sync.RWMutex
	posts map[string]feed.Post
}

// NewBleveEngine creates an empty in-memory index.
func NewBleveEngine() (*BleveEngine, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &BleveEngine{idx: idx, posts: make(map[string]feed.Post)}, nil
}

// New returns the bleve-backed searcher, or the scanning Engine when the
// index cannot be created.
func New() Searcher {
	b, err := NewBleveEngine()
	if err != nil {
		debuglog.Warnf("Creating search index, falling back to scan: %v", err)
		return NewEngine()
	}
	return b
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = false
	title.IncludeTermVectors = true

	summary := bleve.NewTextFieldMapping()
	summary.Analyzer = standard.Name
	summary.Store = false

	body := bleve.NewTextFieldMapping()
	body.Analyzer = standard.Name
	body.Store = false
	body.IncludeTermVectors = false

	source := bleve.NewTextFieldMapping()
	source.Analyzer = standard.Name
	source.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("summary", summary)
	dm.AddFieldMappingsAt("body", body)
	dm.AddFieldMappingsAt("source", source)

	im.DefaultMapping = dm
	return im
}

// OnFeedLoaded replaces the indexed posts with posts.
func (b *BleveEngine) OnFeedLoaded(category string, posts []feed.Post) {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.idx.NewBatch()
	next := make(map[string]feed.Post, len(posts))
	for _, p := range posts {
		id := docIDForPost(p.ID)
		next[id] = p
		if err := batch.Index(id, map[string]any{
			"title":   p.Title,
			"summary": p.Summary,
			"body":    content.StripMarkup(p.Body),
			"source":  p.SourceTag,
		}); err != nil {
			debuglog.Warnf("Indexing post %d: %v", p.ID, err)
		}
	}
	for id := range b.posts {
		if _, keep := next[id]; !keep {
			batch.Delete(id)
		}
	}

	if err := b.idx.Batch(batch); err != nil {
		debuglog.Errorf("Indexing %d posts for %q: %v", len(posts), category, err)
		return
	}
	b.posts = next
	debuglog.Debugf("Indexed %d posts for %q", len(posts), category)
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	// OR of per-term matches and prefixes across fields, weighted by field
	fields := []struct {
		name  string
		boost float64
	}{
		{"title", 4.0},
		{"summary", 2.0},
		{"body", 1.0},
		{"source", 0.5},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range fields {
			m := bleve.NewMatchQuery(tok)
			m.SetField(f.name)
			m.SetBoost(f.boost)
			qs = append(qs, m)

			p := bleve.NewPrefixQuery(tok)
			p.SetField(f.name)
			p.SetBoost(f.boost * 0.8)
			qs = append(qs, p)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	size := limit
	if size <= 0 {
		size = len(b.posts)
	}
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), size, 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		p, ok := b.posts[h.ID]
		if !ok {
			continue
		}
		out = append(out, &Result{Post: &p, Score: h.Score})
	}
	sortResults(out)
	return out, nil
}

// SearchInPost scores a single post without touching the index.
func (b *BleveEngine) SearchInPost(post *feed.Post, query string) ([]*Result, error) {
	return NewEngine().SearchInPost(post, query)
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}

func docIDForPost(id int) string { return strconv.Itoa(id) }
