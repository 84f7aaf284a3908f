package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"studio/api/internal/block"
	"studio/api/internal/util"
)

var ErrNotFound = errors.New("content item not found")

// Store keeps the item collection in memory and mirrors every mutation to a
// single Redis key holding the serialized list. In-memory state is the
// source of truth for the session; a failed write is logged, never fatal.
type Store struct {
	client *redis.Client
	key    string

	mu    sync.Mutex
	items []ContentItem
}

// NewStore connects to Redis and hydrates the collection.
func NewStore(ctx context.Context, redisURL, key string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	s := NewStoreWithClient(client, key)
	s.Load(ctx)
	return s, nil
}

// NewStoreWithClient creates a store from an existing Redis client without
// hydrating; call Load before use.
func NewStoreWithClient(client *redis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

// Load hydrates the collection from Redis. A missing key or corrupt payload
// degrades to the built-in seed set, never an error.
func (s *Store) Load(ctx context.Context) {
	payload, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		s.reset(seedItems())
		s.persist(ctx)
		return
	}
	if err != nil {
		log.Printf("content: load failed, starting from seed set: %v", err)
		s.reset(seedItems())
		return
	}

	var items []ContentItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		log.Printf("content: corrupt collection under %s, starting from seed set: %v", s.key, err)
		s.reset(seedItems())
		s.persist(ctx)
		return
	}
	s.reset(items)
}

func (s *Store) reset(items []ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

// Create assigns a new id, a de-duplicated slug, draft status, and an empty
// document.
func (s *Store) Create(ctx context.Context, title, author string) ContentItem {
	if title == "" {
		title = "Untitled"
	}
	now := time.Now()
	item := ContentItem{
		ID:        util.NewID("cnt"),
		Title:     title,
		Type:      "page",
		Status:    StatusDraft,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
		Document:  block.NewDocument(),
		Tags:      []string{},
	}

	s.mu.Lock()
	item.Slug = s.uniqueSlugLocked(slugify(title), "")
	s.items = append(s.items, item)
	s.mu.Unlock()

	s.persist(ctx)
	return item.clone()
}

// Get returns a deep copy so callers cannot mutate stored state directly.
func (s *Store) Get(id string) (ContentItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item.clone(), true
		}
	}
	return ContentItem{}, false
}

func (s *Store) List() []ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ContentItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.clone())
	}
	return out
}

// UpdateFields merges the patch into the stored item and refreshes
// updatedAt. Slug values are de-duplicated against the other items.
func (s *Store) UpdateFields(ctx context.Context, id string, patch FieldPatch) error {
	err := s.mutate(id, func(item *ContentItem) {
		if patch.Title != nil {
			item.Title = *patch.Title
		}
		if patch.Slug != nil {
			item.Slug = s.uniqueSlugLocked(slugify(*patch.Slug), id)
		}
		if patch.Type != nil {
			item.Type = *patch.Type
		}
		if patch.Author != nil {
			item.Author = *patch.Author
		}
		if patch.Tags != nil {
			item.Tags = append([]string(nil), (*patch.Tags)...)
		}
	})
	if err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// UpdateDocument replaces the stored document. This is the sole path by
// which editor changes reach persisted state.
func (s *Store) UpdateDocument(ctx context.Context, id string, doc block.Document) error {
	err := s.mutate(id, func(item *ContentItem) {
		item.Document = doc.Clone()
	})
	if err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	found := false
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID == id {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	s.mu.Unlock()

	if !found {
		return ErrNotFound
	}
	s.persist(ctx)
	return nil
}

// Publish sets status=published and stamps publishedAt.
func (s *Store) Publish(ctx context.Context, id string) error {
	err := s.mutate(id, func(item *ContentItem) {
		item.Status = StatusPublished
		now := time.Now()
		item.PublishedAt = &now
		item.ScheduledAt = nil
	})
	if err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// Unpublish reverses to draft and clears publishedAt.
func (s *Store) Unpublish(ctx context.Context, id string) error {
	err := s.mutate(id, func(item *ContentItem) {
		item.Status = StatusDraft
		item.PublishedAt = nil
	})
	if err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// Schedule marks the item for publication at a future time.
func (s *Store) Schedule(ctx context.Context, id string, at time.Time) error {
	err := s.mutate(id, func(item *ContentItem) {
		item.Status = StatusScheduled
		item.PublishedAt = nil
		item.ScheduledAt = &at
	})
	if err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// Ping checks Redis reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// mutate applies fn under the lock and advances updatedAt strictly.
func (s *Store) mutate(id string, fn func(*ContentItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		fn(&s.items[i])
		now := time.Now()
		if !now.After(s.items[i].UpdatedAt) {
			now = s.items[i].UpdatedAt.Add(time.Millisecond)
		}
		s.items[i].UpdatedAt = now
		return nil
	}
	return ErrNotFound
}

// uniqueSlugLocked de-duplicates a slug among the other items with a numeric
// suffix. Caller must hold the lock, or be the only writer (Create takes it).
func (s *Store) uniqueSlugLocked(base, excludeID string) string {
	taken := func(candidate string) bool {
		for _, item := range s.items {
			if item.ID != excludeID && item.Slug == candidate {
				return true
			}
		}
		return false
	}
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// persist re-serializes the full collection under the namespace key. Write
// failures leave the in-memory collection authoritative.
func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	payload, err := json.Marshal(s.items)
	s.mu.Unlock()
	if err != nil {
		log.Printf("content: marshal collection: %v", err)
		return
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		log.Printf("content: persist collection: %v", err)
	}
}
