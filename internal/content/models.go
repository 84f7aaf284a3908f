// Package content owns the authoritative list of content items and their
// status lifecycle, persisted as a single JSON record in Redis.
package content

import (
	"strings"
	"time"

	"studio/api/internal/block"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
)

// ContentItem is a named, versioned, status-tracked document plus metadata.
// PublishedAt is set if and only if Status is published. UpdatedAt is
// refreshed on every mutation and never moves backwards.
type ContentItem struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Type        string         `json:"type"`
	Status      Status         `json:"status"`
	Author      string         `json:"author"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
	ScheduledAt *time.Time     `json:"scheduledAt,omitempty"`
	Document    block.Document `json:"document"`
	Tags        []string       `json:"tags"`
}

func (c ContentItem) clone() ContentItem {
	out := c
	out.Document = c.Document.Clone()
	out.Tags = append([]string(nil), c.Tags...)
	if c.PublishedAt != nil {
		t := *c.PublishedAt
		out.PublishedAt = &t
	}
	if c.ScheduledAt != nil {
		t := *c.ScheduledAt
		out.ScheduledAt = &t
	}
	return out
}

// FieldPatch carries the metadata fields UpdateFields may merge. Nil
// pointers leave the stored value untouched.
type FieldPatch struct {
	Title  *string   `json:"title,omitempty"`
	Slug   *string   `json:"slug,omitempty"`
	Type   *string   `json:"type,omitempty"`
	Author *string   `json:"author,omitempty"`
	Tags   *[]string `json:"tags,omitempty"`
}

func slugify(title string) string {
	slug := make([]rune, 0, len(title))
	lastDash := false
	for _, raw := range strings.ToLower(strings.TrimSpace(title)) {
		ch := raw
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			slug = append(slug, ch)
			lastDash = false
			continue
		}
		if !lastDash {
			slug = append(slug, '-')
			lastDash = true
		}
	}
	text := strings.Trim(string(slug), "-")
	if text == "" {
		text = "untitled"
	}
	if len(text) > 64 {
		text = strings.TrimRight(text[:64], "-")
	}
	return text
}

func seedItems() []ContentItem {
	now := time.Now()
	published := now.Add(-24 * time.Hour)
	seeds := []ContentItem{
		{
			ID:     "cnt_seed_welcome",
			Title:  "Welcome to the Studio",
			Slug:   "welcome-to-the-studio",
			Type:   "page",
			Status: StatusPublished,
			Author: "Studio",
			Document: block.Document{
				Time:    published.UnixMilli(),
				Version: block.SchemaVersion,
				Blocks: []block.Block{
					{Type: "header", Data: map[string]any{"text": "Welcome to the Studio", "level": 1}},
					{Type: "paragraph", Data: map[string]any{"text": "Build pages from blocks, publish when ready."}},
				},
			},
			Tags: []string{"onboarding"},
		},
		{
			ID:     "cnt_seed_pricing",
			Title:  "Pricing",
			Slug:   "pricing",
			Type:   "page",
			Status: StatusDraft,
			Author: "Studio",
			Document: block.Document{
				Time:    published.UnixMilli(),
				Version: block.SchemaVersion,
				Blocks: []block.Block{
					{Type: "header", Data: map[string]any{"text": "Plans", "level": 2}},
					{Type: "pricing", Data: map[string]any{"plans": []any{
						map[string]any{"name": "Starter", "price": "$0"},
						map[string]any{"name": "Team", "price": "$29"},
					}}},
				},
			},
			Tags: []string{"marketing"},
		},
	}
	for i := range seeds {
		seeds[i].CreatedAt = published
		seeds[i].UpdatedAt = published
		if seeds[i].Status == StatusPublished {
			t := published
			seeds[i].PublishedAt = &t
		}
	}
	return seeds
}
