package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxContent = "studio_content"

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the content index.
// The caller should proceed without Meilisearch if the instance stays down;
// the background monitor reconfigures the index on recovery.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxContent,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxContent, err)
	}

	index := m.client.Index(idxContent)
	filterable := []interface{}{"status", "type", "tags"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxContent, err)
	}
	searchable := []string{"title", "slug", "tags", "body"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxContent, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the content index with optional status and type filters.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	sr := &meili.SearchRequest{
		Limit:                 limit,
		Offset:                int64(q.Offset),
		AttributesToHighlight: []string{"*"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	}

	var filters []string
	if q.FilterStatus != "" {
		filters = append(filters, fmt.Sprintf("status = %q", q.FilterStatus))
	}
	if q.FilterType != "" {
		filters = append(filters, fmt.Sprintf("type = %q", q.FilterType))
	}
	if len(filters) > 0 {
		sr.Filter = filters
	}

	resp, err := m.client.Index(idxContent).Search(q.Text, sr)
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit) Result {
	r := Result{
		ID:     decodeString(hit, "id"),
		Title:  decodeString(hit, "title"),
		Slug:   decodeString(hit, "slug"),
		Type:   decodeString(hit, "type"),
		Status: decodeString(hit, "status"),
		Tags:   decodeStrings(hit, "tags"),
	}
	r.Snippet = firstNonBlank(decodeFormattedString(hit, "body"), snippetOf(decodeString(hit, "body")))
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeStrings(hit meili.Hit, key string) []string {
	raw, ok := hit[key]
	if !ok {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err == nil {
		return values
	}
	return nil
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(formatted[key], &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexContent adds or updates a content record in the search index.
func (m *Meili) IndexContent(rec Record) error {
	_, err := m.client.Index(idxContent).AddDocuments([]Record{rec}, nil)
	return err
}

// IndexAll bulk-indexes content records.
func (m *Meili) IndexAll(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxContent).AddDocuments(records, nil)
	return err
}

// DeleteContent removes a content record from the search index.
func (m *Meili) DeleteContent(id string) error {
	_, err := m.client.Index(idxContent).DeleteDocument(id, nil)
	return err
}
