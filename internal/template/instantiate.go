package template

import (
	"context"

	"studio/api/internal/editor"
)

// BlockInserter is the slice of the editor adapter that instantiation needs.
type BlockInserter interface {
	InsertBlock(ctx context.Context, blockType string, data map[string]any) editor.InsertResult
}

// Failure records one block that could not be inserted.
type Failure struct {
	Index     int                 `json:"index"`
	BlockType string              `json:"blockType"`
	Reason    editor.InsertReason `json:"reason"`
	Detail    string              `json:"detail,omitempty"`
}

// Report summarizes an instantiation. Partial success is a valid, reportable
// outcome, not an error.
type Report struct {
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Instantiate inserts the template's blocks in sequence order, continuing
// past individual failures.
func Instantiate(ctx context.Context, tpl BlockTemplate, ed BlockInserter) Report {
	report := Report{Attempted: len(tpl.Blocks)}
	for i, b := range tpl.Blocks {
		result := ed.InsertBlock(ctx, b.Type, b.Clone().Data)
		if result.OK {
			report.Succeeded++
			continue
		}
		report.Failures = append(report.Failures, Failure{
			Index:     i,
			BlockType: b.Type,
			Reason:    result.Reason,
			Detail:    result.Detail,
		})
	}
	return report
}
