package export

import (
	"bytes"
	"html/template"
	"time"
)

// PageData holds data for the export page template. ContentHTML comes from
// the block renderer, which escapes user data itself.
type PageData struct {
	Title       string
	Author      string
	Status      string
	UpdatedAt   time.Time
	ContentHTML template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// RenderPageHTML renders the standalone export page.
func RenderPageHTML(data PageData) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const pageSource = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #1a1a1a; }
    h1.page-title { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    blockquote { border-left: 3px solid #333; margin-left: 0; padding-left: 1rem; color: #444; }
    pre { background: #f5f5f5; padding: 1rem; overflow-x: auto; }
    table { border-collapse: collapse; width: 100%; }
    td, th { border: 1px solid #ccc; padding: 0.4rem 0.6rem; }
    img { max-width: 100%; }
    hr.delimiter { border: none; text-align: center; }
    hr.delimiter::after { content: "***"; }
    .unsupported { background: #fff3cd; padding: 0.5rem 1rem; border: 1px dashed #b8a200; }
    .placeholder { color: #999; font-style: italic; }
  </style>
</head>
<body>
  <h1 class="page-title">{{.Title}}</h1>
  <div class="meta">{{.Author}} | {{.Status}} | {{.UpdatedAt.Format "Jan 2, 2006"}}</div>
  <div class="content">{{.ContentHTML}}</div>
</body>
</html>`
