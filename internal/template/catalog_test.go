package template

import (
	"context"
	"strings"
	"testing"

	"studio/api/internal/block"
	"studio/api/internal/editor"
	"studio/api/internal/rbac"
)

func TestSearchHeroAsViewerHidesGatedTemplates(t *testing.T) {
	catalog := NewCatalog()
	results := catalog.Search("hero", "all", rbac.RoleViewer)

	if len(results) == 0 {
		t.Fatal("expected at least one viewer-visible hero template")
	}
	for _, tpl := range results {
		if tpl.Access != rbac.AccessAny {
			t.Errorf("template %s requires %s and must be hidden from viewers", tpl.ID, tpl.Access)
		}
		if !matches(tpl, "hero") {
			t.Errorf("template %s does not match query", tpl.ID)
		}
	}
}

func TestSearchAdminSeesEverything(t *testing.T) {
	catalog := NewCatalog()
	all := catalog.Search("", "all", rbac.RoleAdmin)
	if len(all) != len(builtinTemplates()) {
		t.Errorf("admin should see the full catalog, got %d of %d", len(all), len(builtinTemplates()))
	}
}

func TestSearchMentorSeesMentorOnlyButNotAdminOnly(t *testing.T) {
	catalog := NewCatalog()
	results := catalog.Search("", "education", rbac.RoleMentor)
	if len(results) == 0 {
		t.Fatal("mentor should see education templates")
	}
	for _, tpl := range results {
		if tpl.Access == rbac.AccessAdminOnly {
			t.Errorf("mentor must not see adminOnly template %s", tpl.ID)
		}
	}
	for _, tpl := range catalog.Search("", "all", rbac.RoleMentor) {
		if tpl.Access == rbac.AccessAdminOnly {
			t.Errorf("mentor must not see adminOnly template %s", tpl.ID)
		}
	}
}

func TestSearchCategoryFilter(t *testing.T) {
	catalog := NewCatalog()
	for _, tpl := range catalog.Search("", "marketing", rbac.RoleAdmin) {
		if tpl.Category != CategoryMarketing {
			t.Errorf("category filter leaked %s", tpl.ID)
		}
	}
}

func TestSearchEmptyQueryPreservesCatalogOrder(t *testing.T) {
	catalog := NewCatalog()
	results := catalog.Search("", "all", rbac.RoleAdmin)
	source := builtinTemplates()
	for i := range results {
		if results[i].ID != source[i].ID {
			t.Fatalf("catalog order not preserved at %d: %s vs %s", i, results[i].ID, source[i].ID)
		}
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	catalog := NewCatalog()
	lower := catalog.Search("pricing", "all", rbac.RoleAdmin)
	upper := catalog.Search("PRICING", "all", rbac.RoleAdmin)
	if len(lower) == 0 || len(lower) != len(upper) {
		t.Errorf("case-insensitive search mismatch: %d vs %d", len(lower), len(upper))
	}
}

func TestRoleAliasesNormalize(t *testing.T) {
	catalog := NewCatalog()
	editorResults := catalog.Search("", "all", rbac.Normalize("content_editor"))
	studentResults := catalog.Search("", "all", rbac.Normalize("student"))
	for _, tpl := range editorResults {
		if tpl.Access != rbac.AccessAny {
			t.Errorf("content_editor must not see gated template %s", tpl.ID)
		}
	}
	for _, tpl := range studentResults {
		if tpl.Access != rbac.AccessAny {
			t.Errorf("student must not see gated template %s", tpl.ID)
		}
	}
}

func newReadyAdapter(t *testing.T) *editor.Adapter {
	t.Helper()
	adapter := editor.New(block.NewDefaultRegistry(), editor.NewMemoryEngine())
	if err := adapter.Initialize(context.Background(), block.NewDocument()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return adapter
}

func TestInstantiateInsertsAllBlocksInOrder(t *testing.T) {
	catalog := NewCatalog()
	tpl, _ := catalog.Get("tpl_article")
	adapter := newReadyAdapter(t)

	report := Instantiate(context.Background(), tpl, adapter)
	if report.Attempted != len(tpl.Blocks) || report.Succeeded != len(tpl.Blocks) {
		t.Fatalf("expected full success, got %+v", report)
	}

	doc, err := adapter.ReadDocument(context.Background())
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if len(doc.Blocks) != len(tpl.Blocks) {
		t.Fatalf("expected %d blocks, got %d", len(tpl.Blocks), len(doc.Blocks))
	}
	for i := range tpl.Blocks {
		if doc.Blocks[i].Type != tpl.Blocks[i].Type {
			t.Errorf("block %d: expected %s, got %s", i, tpl.Blocks[i].Type, doc.Blocks[i].Type)
		}
	}
}

// brokenAfterEngine behaves normally until a given number of inserts have
// happened, then rejects everything, modeling an engine that died mid-way.
type brokenAfterEngine struct {
	*editor.MemoryEngine
	allow int
	seen  int
}

func (e *brokenAfterEngine) Insert(ctx context.Context, b block.Block) error {
	e.seen++
	if e.seen > e.allow {
		return context.DeadlineExceeded
	}
	return e.MemoryEngine.Insert(ctx, b)
}

func TestInstantiatePartialFailure(t *testing.T) {
	catalog := NewCatalog()
	tpl, _ := catalog.Get("tpl_article")
	n := len(tpl.Blocks)
	k := n // block k (1-indexed) and everything after it fails

	engine := &brokenAfterEngine{MemoryEngine: editor.NewMemoryEngine(), allow: k - 1}
	adapter := editor.New(block.NewDefaultRegistry(), engine)
	if err := adapter.Initialize(context.Background(), block.NewDocument()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	report := Instantiate(context.Background(), tpl, adapter)
	if report.Attempted != n {
		t.Errorf("expected attempted=%d, got %d", n, report.Attempted)
	}
	if report.Succeeded != k-1 {
		t.Errorf("expected succeeded=%d, got %d", k-1, report.Succeeded)
	}
	if len(report.Failures) != 1 || report.Failures[0].Reason != editor.ReasonInsertFailed {
		t.Errorf("unexpected failures: %+v", report.Failures)
	}

	doc, err := adapter.ReadDocument(context.Background())
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if len(doc.Blocks) != k-1 {
		t.Fatalf("expected exactly the first %d template blocks, got %d", k-1, len(doc.Blocks))
	}
	for i := 0; i < k-1; i++ {
		if doc.Blocks[i].Type != tpl.Blocks[i].Type {
			t.Errorf("block %d: expected %s, got %s", i, tpl.Blocks[i].Type, doc.Blocks[i].Type)
		}
	}
}

func TestInstantiateContinuesPastMiddleFailure(t *testing.T) {
	tpl := BlockTemplate{
		ID:   "tpl_test",
		Name: "Test",
		Blocks: []block.Block{
			{Type: "paragraph", Data: map[string]any{"text": "one"}},
			{Type: "holograph", Data: map[string]any{}},
			{Type: "paragraph", Data: map[string]any{"text": "three"}},
		},
	}
	adapter := newReadyAdapter(t)

	report := Instantiate(context.Background(), tpl, adapter)
	if report.Attempted != 3 || report.Succeeded != 2 {
		t.Fatalf("expected 2 of 3 to succeed, got %+v", report)
	}
	if report.Failures[0].Index != 1 || report.Failures[0].Reason != editor.ReasonUnknownType {
		t.Errorf("unexpected failure record: %+v", report.Failures[0])
	}
}

func TestInstantiateDoesNotShareDataWithCatalog(t *testing.T) {
	catalog := NewCatalog()
	tpl, _ := catalog.Get("tpl_landing_intro")
	adapter := newReadyAdapter(t)
	Instantiate(context.Background(), tpl, adapter)

	doc, _ := adapter.ReadDocument(context.Background())
	doc.Blocks[0].Data["text"] = "tampered"

	fresh, _ := catalog.Get("tpl_landing_intro")
	if strings.Contains(fresh.Blocks[0].Data["text"].(string), "tampered") {
		t.Error("instantiation leaked mutable data back into the catalog")
	}
}
