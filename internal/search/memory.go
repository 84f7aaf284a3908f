package search

import (
	"sort"
	"strings"
	"sync"
)

// Memory implements Searcher and Indexer over an in-process record map. It
// serves as the fallback while Meilisearch is down, so results are always
// available as long as the process itself is.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory creates an empty in-memory search index.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

// Healthy always returns true. If the process is up, the fallback is up.
func (m *Memory) Healthy() bool {
	return true
}

// IndexContent adds or updates a record.
func (m *Memory) IndexContent(rec Record) error {
	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()
	return nil
}

// DeleteContent removes a record.
func (m *Memory) DeleteContent(id string) error {
	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()
	return nil
}

// Search performs a case-insensitive substring match over title, slug, tags,
// and body. Matches rank title hits above body hits, ties broken by title.
func (m *Memory) Search(q Query) ([]Result, int, error) {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return nil, 0, nil
	}

	m.mu.RLock()
	matched := make([]scored, 0)
	for _, rec := range m.records {
		if q.FilterStatus != "" && rec.Status != q.FilterStatus {
			continue
		}
		if q.FilterType != "" && rec.Type != q.FilterType {
			continue
		}
		score, ok := match(rec, text)
		if !ok {
			continue
		}
		matched = append(matched, scored{rec: rec, score: score})
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].rec.Title < matched[j].rec.Title
	})

	total := len(matched)
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	results := make([]Result, 0, end-offset)
	for _, s := range matched[offset:end] {
		results = append(results, Result{
			ID:      s.rec.ID,
			Title:   s.rec.Title,
			Slug:    s.rec.Slug,
			Type:    s.rec.Type,
			Status:  s.rec.Status,
			Tags:    s.rec.Tags,
			Snippet: snippetAround(s.rec.Body, text),
		})
	}
	return results, total, nil
}

type scored struct {
	rec   Record
	score int
}

func match(rec Record, text string) (int, bool) {
	if strings.Contains(strings.ToLower(rec.Title), text) {
		return 3, true
	}
	if strings.Contains(strings.ToLower(rec.Slug), text) {
		return 2, true
	}
	for _, tag := range rec.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return 2, true
		}
	}
	if strings.Contains(strings.ToLower(rec.Body), text) {
		return 1, true
	}
	return 0, false
}

const snippetWindow = 120

// snippetAround extracts a window of body text centered on the first match,
// or the leading window when the match is not in the body.
func snippetAround(body, text string) string {
	if body == "" {
		return ""
	}
	idx := strings.Index(strings.ToLower(body), text)
	if idx < 0 {
		return snippetOf(body)
	}
	start := idx - snippetWindow/2
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end > len(body) {
		end = len(body)
	}
	snippet := strings.TrimSpace(body[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(body) {
		snippet += "..."
	}
	return snippet
}

func snippetOf(body string) string {
	if len(body) <= snippetWindow {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(body[:snippetWindow]) + "..."
}
