// Package template holds the static library of named block sequences and
// bulk-inserts them into a document through the editor adapter.
package template

import (
	"strings"

	"studio/api/internal/block"
	"studio/api/internal/rbac"
)

type Category string

const (
	CategoryMarketing  Category = "marketing"
	CategoryContent    Category = "content"
	CategoryEducation  Category = "education"
	CategoryEngagement Category = "engagement"
	CategorySystem     Category = "system"
	CategoryInternal   Category = "internal"
)

// BlockTemplate is immutable and defined at process start; it is not
// user-editable at runtime.
type BlockTemplate struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    Category         `json:"category"`
	Tags        []string         `json:"tags"`
	Access      rbac.AccessLevel `json:"accessLevel"`
	Blocks      []block.Block    `json:"blocks"`
}

type Catalog struct {
	templates []BlockTemplate
}

func NewCatalog() *Catalog {
	return &Catalog{templates: builtinTemplates()}
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (BlockTemplate, bool) {
	for _, tpl := range c.templates {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return BlockTemplate{}, false
}

// Search filters by role visibility first, then category ("all" or empty
// bypasses), then a case-insensitive substring match against name,
// description, or any tag. An empty query returns the full role/category
// filtered set in catalog order.
func (c *Catalog) Search(query, category string, role rbac.Role) []BlockTemplate {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]BlockTemplate, 0, len(c.templates))
	for _, tpl := range c.templates {
		if !rbac.CanAccess(role, tpl.Access) {
			continue
		}
		if category != "" && category != "all" && string(tpl.Category) != category {
			continue
		}
		if needle != "" && !matches(tpl, needle) {
			continue
		}
		out = append(out, tpl)
	}
	return out
}

func matches(tpl BlockTemplate, needle string) bool {
	if strings.Contains(strings.ToLower(tpl.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(tpl.Description), needle) {
		return true
	}
	for _, tag := range tpl.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func builtinTemplates() []BlockTemplate {
	return []BlockTemplate{
		{
			ID:          "tpl_hero_landing",
			Name:        "Hero Landing",
			Description: "Full landing page opener with hero, feature grid, and call to action.",
			Category:    CategoryMarketing,
			Tags:        []string{"hero", "landing"},
			Access:      rbac.AccessAdminOnly,
			Blocks: []block.Block{
				{Type: "hero", Data: map[string]any{"title": "Ship faster", "subtitle": "Everything your team needs in one place.", "ctaText": "Start free", "ctaUrl": "/signup", "backgroundUrl": ""}},
				{Type: "featureGrid", Data: map[string]any{"columns": 3, "features": []any{
					map[string]any{"title": "Blocks", "description": "Compose pages from reusable blocks."},
					map[string]any{"title": "Versions", "description": "Every change is a snapshot away."},
					map[string]any{"title": "Publishing", "description": "Draft, schedule, publish."},
				}}},
				{Type: "callToAction", Data: map[string]any{"text": "Ready to try it?", "buttonText": "Get started", "buttonUrl": "/signup"}},
			},
		},
		{
			ID:          "tpl_landing_intro",
			Name:        "Landing Intro",
			Description: "Lightweight hero alternative built from core blocks only.",
			Category:    CategoryMarketing,
			Tags:        []string{"hero", "intro"},
			Access:      rbac.AccessAny,
			Blocks: []block.Block{
				{Type: "header", Data: map[string]any{"text": "A better way to build", "level": 1}},
				{Type: "paragraph", Data: map[string]any{"text": "Introduce your product in one sentence."}},
				{Type: "image", Data: map[string]any{"url": "", "caption": "", "stretched": true}},
			},
		},
		{
			ID:          "tpl_pricing_page",
			Name:        "Pricing Page",
			Description: "Plan comparison with a closing call to action.",
			Category:    CategoryMarketing,
			Tags:        []string{"pricing", "plans"},
			Access:      rbac.AccessAdminOnly,
			Blocks: []block.Block{
				{Type: "header", Data: map[string]any{"text": "Pricing", "level": 1}},
				{Type: "pricing", Data: map[string]any{"plans": []any{
					map[string]any{"name": "Starter", "price": "$0"},
					map[string]any{"name": "Team", "price": "$29"},
					map[string]any{"name": "Business", "price": "$79"},
				}}},
				{Type: "callToAction", Data: map[string]any{"text": "Questions about plans?", "buttonText": "Talk to us", "buttonUrl": "/contact"}},
			},
		},
		{
			ID:          "tpl_article",
			Name:        "Article",
			Description: "Standard long-form article scaffold.",
			Category:    CategoryContent,
			Tags:        []string{"blog", "article"},
			Access:      rbac.AccessAny,
			Blocks: []block.Block{
				{Type: "header", Data: map[string]any{"text": "", "level": 1}},
				{Type: "paragraph", Data: map[string]any{"text": ""}},
				{Type: "quote", Data: map[string]any{"text": "", "caption": ""}},
				{Type: "paragraph", Data: map[string]any{"text": ""}},
			},
		},
		{
			ID:          "tpl_changelog",
			Name:        "Changelog Entry",
			Description: "Release notes with a highlights list.",
			Category:    CategoryContent,
			Tags:        []string{"release", "changelog"},
			Access:      rbac.AccessAny,
			Blocks: []block.Block{
				{Type: "header", Data: map[string]any{"text": "What's new", "level": 2}},
				{Type: "list", Data: map[string]any{"style": "unordered", "items": []any{}}},
				{Type: "delimiter", Data: map[string]any{}},
			},
		},
		{
			ID:          "tpl_faq",
			Name:        "FAQ",
			Description: "Question and answer pairs.",
			Category:    CategoryContent,
			Tags:        []string{"faq", "support"},
			Access:      rbac.AccessAny,
			Blocks: []block.Block{
				{Type: "header", Data: map[string]any{"text": "Frequently asked questions", "level": 2}},
				{Type: "header", Data: map[string]any{"text": "", "level": 3}},
				{Type: "paragraph", Data: map[string]any{"text": ""}},
			},
		},
		{
			ID:          "tpl_lesson_module",
			Name:        "Lesson Module",
			Description: "Lesson body with a checkpoint quiz.",
			Category:    CategoryEducation,
			Tags:        []string{"lesson", "course"},
			Access:      rbac.AccessMentorOnly,
			Blocks: []block.Block{
				{Type: "lessonContent", Data: map[string]any{"title": "", "body": "", "durationMinutes": 10}},
				{Type: "list", Data: map[string]any{"style": "ordered", "items": []any{}}},
				{Type: "quiz", Data: map[string]any{"question": "", "options": []any{}, "correctIndex": 0}},
			},
		},
		{
			ID:          "tpl_course_overview",
			Name:        "Course Overview",
			Description: "Course introduction linking to the full curriculum.",
			Category:    CategoryEducation,
			Tags:        []string{"course", "overview"},
			Access:      rbac.AccessMentorOnly,
			Blocks: []block.Block{
				{Type: "header", Data: map[string]any{"text": "", "level": 1}},
				{Type: "paragraph", Data: map[string]any{"text": ""}},
				{Type: "courseReference", Data: map[string]any{"courseId": "", "label": "View curriculum"}},
			},
		},
		{
			ID:          "tpl_testimonial_wall",
			Name:        "Testimonial Wall",
			Description: "Social proof section with customer quotes.",
			Category:    CategoryEngagement,
			Tags:        []string{"social-proof", "testimonial"},
			Access:      rbac.AccessAdminOnly,
			Blocks: []block.Block{
				{Type: "testimonial", Data: map[string]any{"quote": "", "author": "", "role": "", "avatarUrl": ""}},
				{Type: "testimonial", Data: map[string]any{"quote": "", "author": "", "role": "", "avatarUrl": ""}},
				{Type: "callToAction", Data: map[string]any{"text": "Join them", "buttonText": "Start free", "buttonUrl": "/signup"}},
			},
		},
		{
			ID:          "tpl_data_digest",
			Name:        "Data Digest",
			Description: "Live metrics table fed by dynamic data sources.",
			Category:    CategorySystem,
			Tags:        []string{"metrics", "dynamic"},
			Access:      rbac.AccessAdminOnly,
			Blocks: []block.Block{
				{Type: "dynamicData", Data: map[string]any{"source": "analytics", "field": "weekly_active", "fallback": "n/a"}},
				{Type: "table", Data: map[string]any{"withHeadings": true, "content": []any{}}},
			},
		},
		{
			ID:          "tpl_automation_hook",
			Name:        "Automation Hook",
			Description: "Workflow trigger placed inside published content.",
			Category:    CategoryInternal,
			Tags:        []string{"workflow", "automation"},
			Access:      rbac.AccessAdminOnly,
			Blocks: []block.Block{
				{Type: "automationTrigger", Data: map[string]any{"event": "page_view", "workflowId": ""}},
			},
		},
	}
}
