package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to the
// in-memory index. Both indexes receive every write so the fallback stays
// warm.
type Service struct {
	meili  *Meili
	memory *Memory
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, memory *Memory) *Service {
	if memory == nil {
		memory = NewMemory()
	}
	return &Service{meili: meili, memory: memory}
}

// Search tries Meilisearch if healthy, otherwise serves from memory.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to memory: %v", err)
	}

	results, total, err := s.memory.Search(q)
	if err != nil {
		log.Printf("search: memory index error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexContent indexes a record in memory synchronously and pushes it to
// Meilisearch fire-and-forget.
func (s *Service) IndexContent(rec Record) {
	if err := s.memory.IndexContent(rec); err != nil {
		log.Printf("search: memory index %s: %v", rec.ID, err)
	}
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexContent(rec); err != nil {
			log.Printf("search: index content %s: %v", rec.ID, err)
		}
	}()
}

// DeleteContent removes a record from both indexes.
func (s *Service) DeleteContent(id string) {
	if err := s.memory.DeleteContent(id); err != nil {
		log.Printf("search: memory delete %s: %v", id, err)
	}
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteContent(id); err != nil {
			log.Printf("search: delete content %s: %v", id, err)
		}
	}()
}

// ReindexAll seeds both indexes, typically at startup from the content store.
func (s *Service) ReindexAll(records []Record) {
	for _, rec := range records {
		if err := s.memory.IndexContent(rec); err != nil {
			log.Printf("search: memory reindex %s: %v", rec.ID, err)
		}
	}
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	if err := s.meili.IndexAll(records); err != nil {
		log.Printf("search: reindex: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
