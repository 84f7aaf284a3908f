package search

import (
	"strings"
	"testing"
)

func seededMemory() *Memory {
	m := NewMemory()
	m.IndexContent(Record{
		ID: "cnt_1", Title: "Welcome to the Studio", Slug: "welcome",
		Type: "page", Status: "published", Tags: []string{"onboarding"},
		Body: "Start here. This guide walks new teams through the studio basics.",
	})
	m.IndexContent(Record{
		ID: "cnt_2", Title: "Pricing Overview", Slug: "pricing",
		Type: "page", Status: "draft", Tags: []string{"marketing"},
		Body: "Plans for every team size, with a studio discount for schools.",
	})
	m.IndexContent(Record{
		ID: "cnt_3", Title: "Course Syllabus", Slug: "syllabus",
		Type: "lesson", Status: "published", Tags: []string{"education"},
		Body: "Week by week outline of the automation course.",
	})
	return m
}

func TestMemorySearchTitleRanksAboveBody(t *testing.T) {
	m := seededMemory()
	results, total, err := m.Search(Query{Text: "studio"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 hits, got %d", total)
	}
	if results[0].ID != "cnt_1" {
		t.Errorf("title match should rank first, got %s", results[0].ID)
	}
	if results[1].ID != "cnt_2" {
		t.Errorf("body match should rank second, got %s", results[1].ID)
	}
}

func TestMemorySearchStatusFilter(t *testing.T) {
	m := seededMemory()
	results, _, err := m.Search(Query{Text: "studio", FilterStatus: "published"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, r := range results {
		if r.Status != "published" {
			t.Errorf("status filter leaked %s (%s)", r.ID, r.Status)
		}
	}
}

func TestMemorySearchTypeFilter(t *testing.T) {
	m := seededMemory()
	results, total, err := m.Search(Query{Text: "course", FilterType: "lesson"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 1 || results[0].ID != "cnt_3" {
		t.Errorf("expected only the lesson, got %+v", results)
	}
}

func TestMemorySearchTagMatch(t *testing.T) {
	m := seededMemory()
	_, total, err := m.Search(Query{Text: "onboarding"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected tag match, got %d hits", total)
	}
}

func TestMemorySearchEmptyQuery(t *testing.T) {
	m := seededMemory()
	results, total, err := m.Search(Query{Text: "   "})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("blank query must return nothing, got %d", total)
	}
}

func TestMemorySearchPagination(t *testing.T) {
	m := seededMemory()
	page, total, err := m.Search(Query{Text: "studio", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 2 || len(page) != 1 || page[0].ID != "cnt_2" {
		t.Errorf("expected second page of one, got total=%d %+v", total, page)
	}
}

func TestMemoryDeleteContent(t *testing.T) {
	m := seededMemory()
	if err := m.DeleteContent("cnt_1"); err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}
	_, total, _ := m.Search(Query{Text: "welcome"})
	if total != 0 {
		t.Errorf("deleted record still searchable, %d hits", total)
	}
}

func TestSnippetCentersOnMatch(t *testing.T) {
	body := strings.Repeat("padding ", 40) + "the needle sits here" + strings.Repeat(" trailing", 40)
	m := NewMemory()
	m.IndexContent(Record{ID: "cnt_x", Title: "Long", Body: body, Status: "draft"})

	results, _, err := m.Search(Query{Text: "needle"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatal("expected one hit")
	}
	snippet := results[0].Snippet
	if !strings.Contains(snippet, "needle") {
		t.Errorf("snippet does not contain the match: %q", snippet)
	}
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Errorf("mid-body snippet should be elided on both sides: %q", snippet)
	}
}

func TestServiceFallsBackWithoutMeili(t *testing.T) {
	svc := NewService(nil, seededMemory())
	resp := svc.Search(Query{Text: "pricing"})
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected one hit from memory, got %+v", resp)
	}
	if resp.Query != "pricing" {
		t.Errorf("response must echo the query, got %q", resp.Query)
	}
}

func TestServiceResultsNeverNil(t *testing.T) {
	svc := NewService(nil, NewMemory())
	resp := svc.Search(Query{Text: "nothing"})
	if resp.Results == nil {
		t.Error("Results must be an empty slice, not nil")
	}
}

func TestServiceIndexAndDelete(t *testing.T) {
	svc := NewService(nil, NewMemory())
	svc.IndexContent(Record{ID: "cnt_9", Title: "Launch Notes", Status: "draft"})
	if resp := svc.Search(Query{Text: "launch"}); resp.Total != 1 {
		t.Fatalf("expected indexed record to be searchable, got %d", resp.Total)
	}
	svc.DeleteContent("cnt_9")
	if resp := svc.Search(Query{Text: "launch"}); resp.Total != 0 {
		t.Errorf("expected record gone after delete, got %d", resp.Total)
	}
}

func TestServiceReindexAll(t *testing.T) {
	svc := NewService(nil, NewMemory())
	svc.ReindexAll([]Record{
		{ID: "cnt_1", Title: "Alpha", Status: "draft"},
		{ID: "cnt_2", Title: "Beta", Status: "draft"},
	})
	if resp := svc.Search(Query{Text: "alpha"}); resp.Total != 1 {
		t.Errorf("expected reindexed record searchable, got %d", resp.Total)
	}
}
