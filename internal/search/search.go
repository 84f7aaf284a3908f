// Package search provides full-text search over content items, backed by
// Meilisearch with an in-memory substring fallback.
package search

// Record is the data we index for a content item.
type Record struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Slug   string   `json:"slug"`
	Type   string   `json:"type"`
	Status string   `json:"status"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
	Body   string   `json:"body"`
}

// Result is a single search hit returned to the caller.
type Result struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Slug    string   `json:"slug"`
	Type    string   `json:"type"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags,omitempty"`
	Snippet string   `json:"snippet,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text         string
	FilterStatus string // empty = all statuses
	FilterType   string // content type, empty = all
	Limit        int
	Offset       int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push content records into a search index.
type Indexer interface {
	IndexContent(rec Record) error
	DeleteContent(id string) error
}
