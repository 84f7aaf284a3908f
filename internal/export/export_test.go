package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"studio/api/internal/block"
	"studio/api/internal/content"
)

type fakeSource struct {
	items map[string]content.ContentItem
}

func (f *fakeSource) Get(id string) (content.ContentItem, bool) {
	item, ok := f.items[id]
	return item, ok
}

func sourceWithItem() *fakeSource {
	doc := block.NewDocument()
	doc.Blocks = []block.Block{
		{Type: "header", Data: map[string]any{"text": "Launch Plan", "level": 2}},
		{Type: "paragraph", Data: map[string]any{"text": "Ship <it> carefully."}},
	}
	return &fakeSource{items: map[string]content.ContentItem{
		"cnt_1": {
			ID:        "cnt_1",
			Title:     "Launch Plan: Q3",
			Author:    "Dana",
			Status:    content.StatusDraft,
			UpdatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
			Document:  doc,
		},
	}}
}

func TestExportHTML(t *testing.T) {
	svc := NewService(sourceWithItem(), block.NewDefaultRegistry())

	result, err := svc.Export(Request{ContentID: "cnt_1", Format: FormatHTML})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if result.MimeType != "text/html; charset=utf-8" {
		t.Errorf("unexpected mime type %q", result.MimeType)
	}
	if result.Filename != "Launch-Plan-Q3.html" {
		t.Errorf("unexpected filename %q", result.Filename)
	}

	page := string(result.Data)
	if !strings.Contains(page, "<h2>Launch Plan</h2>") {
		t.Error("rendered block markup missing from page")
	}
	if !strings.Contains(page, "Ship &lt;it&gt; carefully.") {
		t.Error("paragraph text must be escaped in the page")
	}
	if !strings.Contains(page, "<title>Launch Plan: Q3</title>") {
		t.Error("page title missing")
	}
	if !strings.Contains(page, "Dana") || !strings.Contains(page, "draft") {
		t.Error("meta line missing author or status")
	}
}

func TestExportUnknownContent(t *testing.T) {
	svc := NewService(&fakeSource{items: map[string]content.ContentItem{}}, block.NewDefaultRegistry())
	if _, err := svc.Export(Request{ContentID: "cnt_missing", Format: FormatHTML}); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewService(sourceWithItem(), block.NewDefaultRegistry())
	if _, err := svc.Export(Request{ContentID: "cnt_1", Format: "epub"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Launch Plan: Q3", "Launch-Plan-Q3"},
		{"hello_world-2", "hello_world-2"},
		{"///", "content"},
		{"", "content"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc-_.~", "abc-_.~"},
		{"a b", "a%20b"},
		{"<p>", "%3Cp%3E"},
		{"100%", "100%25"},
	}
	for _, tt := range tests {
		if got := percentEncodeForDataURL(tt.in); got != tt.want {
			t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
