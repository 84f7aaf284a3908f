// Package render projects a block document to a read-only sequence of view
// nodes, dispatching per block type through the registry.
package render

import (
	"fmt"
	"html"
	"strings"

	"studio/api/internal/block"
)

// Node is one rendered block. Unsupported is set when no renderer is
// registered for the block's type; the HTML then carries a visible
// placeholder instead of failing the whole document.
type Node struct {
	Type        string `json:"type"`
	HTML        string `json:"html"`
	Unsupported bool   `json:"unsupported,omitempty"`
}

// Render is a pure function of the document: it never mutates its input and
// re-rendering an unchanged document yields the same nodes. An empty document
// produces an explicit no-content placeholder so callers cannot mistake it
// for an error.
func Render(reg *block.Registry, doc block.Document) []Node {
	if len(doc.Blocks) == 0 {
		return []Node{{
			Type: "empty",
			HTML: `<p class="placeholder">No content yet.</p>` + "\n",
		}}
	}

	nodes := make([]Node, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		renderFn := reg.Renderer(b.Type)
		if renderFn == nil {
			nodes = append(nodes, Node{
				Type:        b.Type,
				HTML:        fmt.Sprintf(`<div class="unsupported">Unsupported block type: %s</div>`+"\n", html.EscapeString(b.Type)),
				Unsupported: true,
			})
			continue
		}
		nodes = append(nodes, Node{Type: b.Type, HTML: renderFn(b.Data)})
	}
	return nodes
}

// HTML joins the rendered nodes into a single fragment for previews and
// export.
func HTML(reg *block.Registry, doc block.Document) string {
	var sb strings.Builder
	for _, node := range Render(reg, doc) {
		sb.WriteString(node.HTML)
	}
	return sb.String()
}
