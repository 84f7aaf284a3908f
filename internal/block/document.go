// Package block defines the document model (typed, ordered blocks inside a
// versioned envelope) and the registry that maps block types to behavior.
package block

import (
	"strings"
	"time"
)

// SchemaVersion tags the document envelope for forward compatibility.
const SchemaVersion = "2.28.2"

// Block is a typed unit of document content. Data is opaque to everything
// except the registry definition for its type.
type Block struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Document is an ordered sequence of blocks. Order is display and semantic
// order.
type Document struct {
	Time    int64   `json:"time"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version"`
}

// NewDocument returns an empty document stamped with the current time.
func NewDocument() Document {
	return Document{
		Time:    time.Now().UnixMilli(),
		Blocks:  []Block{},
		Version: SchemaVersion,
	}
}

// Clone returns a deep copy. Components that need independently mutable
// copies of a document must go through this; blocks are value snapshots and
// are never mutated in place across an ownership boundary.
func (d Document) Clone() Document {
	out := Document{Time: d.Time, Version: d.Version, Blocks: make([]Block, len(d.Blocks))}
	for i, b := range d.Blocks {
		out.Blocks[i] = b.Clone()
	}
	return out
}

// Clone deep-copies the block and its data map.
func (b Block) Clone() Block {
	return Block{Type: b.Type, Data: cloneMap(b.Data)}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// PlainText extracts the human-readable text of a document for search
// indexing. Only well-known string-bearing fields are considered.
func (d Document) PlainText() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		for _, key := range []string{"text", "title", "subtitle", "caption", "code", "quote", "question"} {
			if s, ok := b.Data[key].(string); ok && s != "" {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(s)
			}
		}
		if items, ok := b.Data["items"].([]any); ok {
			for _, item := range items {
				if s, ok := item.(string); ok && s != "" {
					if sb.Len() > 0 {
						sb.WriteString(" ")
					}
					sb.WriteString(s)
				}
			}
		}
	}
	return sb.String()
}
