// Package history keeps an append-only snapshot log per content id, stored
// as one JSON record per id under a namespaced Redis key.
package history

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"studio/api/internal/block"
	"studio/api/internal/content"
	"studio/api/internal/util"
)

// MaxVersions caps the log per content id; the oldest snapshot is evicted
// first.
const MaxVersions = 50

// ContentVersion is a full copy of the document at snapshot time, not a
// diff. Versions are never mutated after creation.
type ContentVersion struct {
	ID            string         `json:"id"`
	ContentID     string         `json:"contentId"`
	Timestamp     time.Time      `json:"timestamp"`
	Author        string         `json:"author"`
	ChangeSummary string         `json:"changeSummary"`
	BlockCount    int            `json:"blockCount"`
	Document      block.Document `json:"documentSnapshot"`
}

type contentStore interface {
	Get(id string) (content.ContentItem, bool)
	UpdateDocument(ctx context.Context, id string, doc block.Document) error
}

// Manager reads documents from the content store and writes version lists
// under "<prefix>-<contentId>".
type Manager struct {
	client *redis.Client
	prefix string
	store  contentStore
}

func NewManager(client *redis.Client, prefix string, store contentStore) *Manager {
	return &Manager{client: client, prefix: prefix, store: store}
}

func (m *Manager) key(contentID string) string {
	return m.prefix + "-" + contentID
}

// Snapshot captures the current document of the content item and prepends it
// to the version list.
func (m *Manager) Snapshot(ctx context.Context, contentID, author, changeSummary string) (ContentVersion, error) {
	item, ok := m.store.Get(contentID)
	if !ok {
		return ContentVersion{}, content.ErrNotFound
	}

	version := ContentVersion{
		ID:            util.NewID("ver"),
		ContentID:     contentID,
		Timestamp:     time.Now(),
		Author:        author,
		ChangeSummary: changeSummary,
		BlockCount:    len(item.Document.Blocks),
		Document:      item.Document.Clone(),
	}

	versions := m.load(ctx, contentID)
	versions = append([]ContentVersion{version}, versions...)
	if len(versions) > MaxVersions {
		versions = versions[:MaxVersions]
	}
	m.save(ctx, contentID, versions)
	return version, nil
}

// List returns the versions newest first.
func (m *Manager) List(ctx context.Context, contentID string) []ContentVersion {
	return m.load(ctx, contentID)
}

// Restore writes the snapshot back through the content store and returns the
// restored document. A missing version id is a normal "nothing to do"
// outcome, not an error. Restoring does not record a version of its own.
func (m *Manager) Restore(ctx context.Context, contentID, versionID string) (block.Document, bool) {
	for _, version := range m.load(ctx, contentID) {
		if version.ID != versionID {
			continue
		}
		doc := version.Document.Clone()
		if err := m.store.UpdateDocument(ctx, contentID, doc); err != nil {
			log.Printf("history: restore %s/%s: %v", contentID, versionID, err)
			return block.Document{}, false
		}
		return doc, true
	}
	return block.Document{}, false
}

// Drop removes the version list for a content id (used when the item is
// deleted).
func (m *Manager) Drop(ctx context.Context, contentID string) {
	if err := m.client.Del(ctx, m.key(contentID)).Err(); err != nil {
		log.Printf("history: drop versions for %s: %v", contentID, err)
	}
}

func (m *Manager) load(ctx context.Context, contentID string) []ContentVersion {
	payload, err := m.client.Get(ctx, m.key(contentID)).Result()
	if err == redis.Nil {
		return []ContentVersion{}
	}
	if err != nil {
		log.Printf("history: load versions for %s: %v", contentID, err)
		return []ContentVersion{}
	}
	var versions []ContentVersion
	if err := json.Unmarshal([]byte(payload), &versions); err != nil {
		log.Printf("history: corrupt version list for %s, treating as empty: %v", contentID, err)
		return []ContentVersion{}
	}
	return versions
}

func (m *Manager) save(ctx context.Context, contentID string, versions []ContentVersion) {
	payload, err := json.Marshal(versions)
	if err != nil {
		log.Printf("history: marshal versions for %s: %v", contentID, err)
		return
	}
	if err := m.client.Set(ctx, m.key(contentID), payload, 0).Err(); err != nil {
		log.Printf("history: persist versions for %s: %v", contentID, err)
	}
}
