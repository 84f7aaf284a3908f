package render

import (
	"reflect"
	"strings"
	"testing"

	"studio/api/internal/block"
)

func TestRenderDispatchesPerType(t *testing.T) {
	reg := block.NewDefaultRegistry()
	doc := block.Document{Blocks: []block.Block{
		{Type: "header", Data: map[string]any{"text": "Title", "level": float64(1)}},
		{Type: "paragraph", Data: map[string]any{"text": "Body"}},
	}}

	nodes := Render(reg, doc)
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if !strings.Contains(nodes[0].HTML, "<h1>Title</h1>") {
		t.Errorf("unexpected header output: %s", nodes[0].HTML)
	}
	if !strings.Contains(nodes[1].HTML, "<p>Body</p>") {
		t.Errorf("unexpected paragraph output: %s", nodes[1].HTML)
	}
}

func TestRenderUnknownTypeEmitsPlaceholder(t *testing.T) {
	reg := block.NewDefaultRegistry()
	doc := block.Document{Blocks: []block.Block{
		{Type: "holograph", Data: map[string]any{"x": 1}},
	}}

	nodes := Render(reg, doc)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if !nodes[0].Unsupported {
		t.Error("expected unsupported flag")
	}
	if !strings.Contains(nodes[0].HTML, "holograph") {
		t.Errorf("placeholder should carry the unknown type name: %s", nodes[0].HTML)
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	reg := block.NewDefaultRegistry()
	nodes := Render(reg, block.NewDocument())
	if len(nodes) != 1 {
		t.Fatalf("expected a single placeholder node, got %d", len(nodes))
	}
	if !strings.Contains(nodes[0].HTML, "No content yet") {
		t.Errorf("unexpected empty-document output: %s", nodes[0].HTML)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	reg := block.NewDefaultRegistry()
	doc := block.Document{Blocks: []block.Block{
		{Type: "quote", Data: map[string]any{"text": "stay", "caption": "me"}},
		{Type: "delimiter", Data: map[string]any{}},
	}}

	first := Render(reg, doc)
	second := Render(reg, doc)
	if !reflect.DeepEqual(first, second) {
		t.Error("re-rendering an unchanged document produced different nodes")
	}
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	reg := block.NewDefaultRegistry()
	doc := block.Document{Blocks: []block.Block{
		{Type: "paragraph", Data: map[string]any{"text": "original"}},
	}}
	Render(reg, doc)
	if doc.Blocks[0].Data["text"] != "original" {
		t.Error("render mutated input document")
	}
}
