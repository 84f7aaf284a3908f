package block

import (
	"fmt"
	"html"
	"strings"

	"studio/api/internal/rbac"
)

// NewDefaultRegistry registers the core block types plus the platform
// extension types. Extension types carry access tags so the template catalog
// and insert checks can gate them per role.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("header", Definition{
		Default: func() map[string]any {
			return map[string]any{"text": "", "level": 2}
		},
		Render: func(data map[string]any) string {
			level := dataInt(data, "level", 2)
			if level < 1 || level > 6 {
				level = 2
			}
			return fmt.Sprintf("<h%d>%s</h%d>\n", level, escape(data, "text"), level)
		},
		Toolbox: Toolbox{Title: "Heading", Icon: "type"},
		Access:  rbac.AccessAny,
	})

	r.Register("paragraph", Definition{
		Default: func() map[string]any {
			return map[string]any{"text": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf("<p>%s</p>\n", escape(data, "text"))
		},
		Toolbox: Toolbox{Title: "Text", Icon: "align-left"},
		Access:  rbac.AccessAny,
	})

	r.Register("list", Definition{
		Default: func() map[string]any {
			return map[string]any{"style": "unordered", "items": []any{}}
		},
		Render: func(data map[string]any) string {
			tag := "ul"
			if s, _ := data["style"].(string); s == "ordered" {
				tag = "ol"
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "<%s>\n", tag)
			for _, item := range dataItems(data) {
				fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(item))
			}
			fmt.Fprintf(&sb, "</%s>\n", tag)
			return sb.String()
		},
		Toolbox: Toolbox{Title: "List", Icon: "list"},
		Access:  rbac.AccessAny,
	})

	r.Register("quote", Definition{
		Default: func() map[string]any {
			return map[string]any{"text": "", "caption": ""}
		},
		Render: func(data map[string]any) string {
			caption := escape(data, "caption")
			if caption != "" {
				caption = fmt.Sprintf("<cite>%s</cite>\n", caption)
			}
			return fmt.Sprintf("<blockquote>\n<p>%s</p>\n%s</blockquote>\n", escape(data, "text"), caption)
		},
		Toolbox: Toolbox{Title: "Quote", Icon: "quote"},
		Access:  rbac.AccessAny,
	})

	r.Register("delimiter", Definition{
		Default: func() map[string]any { return map[string]any{} },
		Render: func(map[string]any) string {
			return "<hr>\n"
		},
		Toolbox: Toolbox{Title: "Divider", Icon: "minus"},
		Access:  rbac.AccessAny,
	})

	r.Register("code", Definition{
		Default: func() map[string]any {
			return map[string]any{"code": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf("<pre><code>%s</code></pre>\n", escape(data, "code"))
		},
		Toolbox: Toolbox{Title: "Code", Icon: "code"},
		Access:  rbac.AccessAny,
	})

	r.Register("table", Definition{
		Default: func() map[string]any {
			return map[string]any{"withHeadings": false, "content": []any{}}
		},
		Render: func(data map[string]any) string {
			rows, _ := data["content"].([]any)
			withHeadings, _ := data["withHeadings"].(bool)
			var sb strings.Builder
			sb.WriteString("<table>\n")
			for i, raw := range rows {
				cells, _ := raw.([]any)
				cellTag := "td"
				if withHeadings && i == 0 {
					cellTag = "th"
				}
				sb.WriteString("<tr>")
				for _, cell := range cells {
					text, _ := cell.(string)
					fmt.Fprintf(&sb, "<%s>%s</%s>", cellTag, html.EscapeString(text), cellTag)
				}
				sb.WriteString("</tr>\n")
			}
			sb.WriteString("</table>\n")
			return sb.String()
		},
		Toolbox: Toolbox{Title: "Table", Icon: "table"},
		Access:  rbac.AccessAny,
	})

	r.Register("image", Definition{
		Default: func() map[string]any {
			return map[string]any{"url": "", "caption": "", "stretched": false}
		},
		Render: func(data map[string]any) string {
			caption := escape(data, "caption")
			img := fmt.Sprintf(`<img src="%s" alt="%s">`, escape(data, "url"), caption)
			if caption != "" {
				return fmt.Sprintf("<figure>%s<figcaption>%s</figcaption></figure>\n", img, caption)
			}
			return fmt.Sprintf("<figure>%s</figure>\n", img)
		},
		Toolbox: Toolbox{Title: "Image", Icon: "image"},
		Access:  rbac.AccessAny,
	})

	r.Register("embed", Definition{
		Default: func() map[string]any {
			return map[string]any{"service": "", "source": "", "embed": "", "caption": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf(`<iframe src="%s" frameborder="0" allowfullscreen></iframe>`+"\n", escape(data, "embed"))
		},
		Toolbox: Toolbox{Title: "Embed", Icon: "film"},
		Access:  rbac.AccessAny,
	})

	r.Register("attaches", Definition{
		Default: func() map[string]any {
			return map[string]any{"url": "", "title": "", "size": 0}
		},
		Render: func(data map[string]any) string {
			title := escape(data, "title")
			if title == "" {
				title = "Download"
			}
			return fmt.Sprintf(`<a class="attachment" href="%s" download>%s</a>`+"\n", escape(data, "url"), title)
		},
		Toolbox: Toolbox{Title: "File", Icon: "paperclip"},
		Access:  rbac.AccessAny,
	})

	registerExtensions(r)
	return r
}

func registerExtensions(r *Registry) {
	r.Register("hero", Definition{
		Default: func() map[string]any {
			return map[string]any{"title": "", "subtitle": "", "ctaText": "", "ctaUrl": "", "backgroundUrl": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf(
				"<section class=\"hero\">\n<h1>%s</h1>\n<p>%s</p>\n<a href=\"%s\">%s</a>\n</section>\n",
				escape(data, "title"), escape(data, "subtitle"), escape(data, "ctaUrl"), escape(data, "ctaText"))
		},
		Toolbox: Toolbox{Title: "Hero", Icon: "layout"},
		Access:  rbac.AccessAdminOnly,
	})

	r.Register("callToAction", Definition{
		Default: func() map[string]any {
			return map[string]any{"text": "", "buttonText": "Get started", "buttonUrl": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf(
				"<aside class=\"cta\">\n<p>%s</p>\n<a class=\"button\" href=\"%s\">%s</a>\n</aside>\n",
				escape(data, "text"), escape(data, "buttonUrl"), escape(data, "buttonText"))
		},
		Toolbox: Toolbox{Title: "Call to Action", Icon: "megaphone"},
		Access:  rbac.AccessAdminOnly,
	})

	r.Register("featureGrid", Definition{
		Default: func() map[string]any {
			return map[string]any{"columns": 3, "features": []any{}}
		},
		Render: func(data map[string]any) string {
			features, _ := data["features"].([]any)
			var sb strings.Builder
			sb.WriteString("<div class=\"feature-grid\">\n")
			for _, raw := range features {
				feature, _ := raw.(map[string]any)
				fmt.Fprintf(&sb, "<div class=\"feature\"><h3>%s</h3><p>%s</p></div>\n",
					escape(feature, "title"), escape(feature, "description"))
			}
			sb.WriteString("</div>\n")
			return sb.String()
		},
		Toolbox: Toolbox{Title: "Feature Grid", Icon: "grid"},
		Access:  rbac.AccessAdminOnly,
	})

	r.Register("testimonial", Definition{
		Default: func() map[string]any {
			return map[string]any{"quote": "", "author": "", "role": "", "avatarUrl": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf(
				"<figure class=\"testimonial\">\n<blockquote>%s</blockquote>\n<figcaption>%s · %s</figcaption>\n</figure>\n",
				escape(data, "quote"), escape(data, "author"), escape(data, "role"))
		},
		Toolbox: Toolbox{Title: "Testimonial", Icon: "message-circle"},
		Access:  rbac.AccessAdminOnly,
	})

	r.Register("lessonContent", Definition{
		Default: func() map[string]any {
			return map[string]any{"title": "", "body": "", "durationMinutes": 0}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf(
				"<section class=\"lesson\">\n<h2>%s</h2>\n<div>%s</div>\n</section>\n",
				escape(data, "title"), escape(data, "body"))
		},
		Toolbox: Toolbox{Title: "Lesson Content", Icon: "book-open"},
		Access:  rbac.AccessMentorOnly,
	})

	r.Register("quiz", Definition{
		Default: func() map[string]any {
			return map[string]any{"question": "", "options": []any{}, "correctIndex": 0}
		},
		Render: func(data map[string]any) string {
			var sb strings.Builder
			fmt.Fprintf(&sb, "<div class=\"quiz\">\n<p class=\"question\">%s</p>\n<ol>\n", escape(data, "question"))
			if options, ok := data["options"].([]any); ok {
				for _, option := range options {
					text, _ := option.(string)
					fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(text))
				}
			}
			sb.WriteString("</ol>\n</div>\n")
			return sb.String()
		},
		Toolbox: Toolbox{Title: "Quiz", Icon: "help-circle"},
		Access:  rbac.AccessMentorOnly,
	})

	r.Register("courseReference", Definition{
		Default: func() map[string]any {
			return map[string]any{"courseId": "", "label": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf(
				"<a class=\"course-ref\" data-course=\"%s\">%s</a>\n",
				escape(data, "courseId"), escape(data, "label"))
		},
		Toolbox: Toolbox{Title: "Course Reference", Icon: "graduation-cap"},
		Access:  rbac.AccessMentorOnly,
	})

	r.Register("automationTrigger", Definition{
		Default: func() map[string]any {
			return map[string]any{"event": "", "workflowId": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf(
				"<div class=\"automation\" data-event=\"%s\" data-workflow=\"%s\"></div>\n",
				escape(data, "event"), escape(data, "workflowId"))
		},
		Toolbox: Toolbox{Title: "Automation Trigger", Icon: "zap"},
		Access:  rbac.AccessAdminOnly,
	})

	r.Register("dynamicData", Definition{
		Default: func() map[string]any {
			return map[string]any{"source": "", "field": "", "fallback": ""}
		},
		Render: func(data map[string]any) string {
			return fmt.Sprintf(
				"<span class=\"dynamic\" data-source=\"%s\" data-field=\"%s\">%s</span>\n",
				escape(data, "source"), escape(data, "field"), escape(data, "fallback"))
		},
		Toolbox: Toolbox{Title: "Dynamic Data", Icon: "database"},
		Access:  rbac.AccessAdminOnly,
	})

	r.Register("pricing", Definition{
		Default: func() map[string]any {
			return map[string]any{"plans": []any{}}
		},
		Render: func(data map[string]any) string {
			plans, _ := data["plans"].([]any)
			var sb strings.Builder
			sb.WriteString("<div class=\"pricing\">\n")
			for _, raw := range plans {
				plan, _ := raw.(map[string]any)
				fmt.Fprintf(&sb, "<div class=\"plan\"><h3>%s</h3><p class=\"price\">%s</p></div>\n",
					escape(plan, "name"), escape(plan, "price"))
			}
			sb.WriteString("</div>\n")
			return sb.String()
		},
		Toolbox: Toolbox{Title: "Pricing", Icon: "credit-card"},
		Access:  rbac.AccessAdminOnly,
	})
}

func escape(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return html.EscapeString(s)
}

func dataInt(data map[string]any, key string, fallback int) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func dataItems(data map[string]any) []string {
	raw, _ := data["items"].([]any)
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			items = append(items, s)
		}
	}
	return items
}
