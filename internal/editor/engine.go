package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"studio/api/internal/block"
)

// MemoryEngine is the in-process editing engine. It keeps the document in
// memory and models the focus-relative insertion behavior of the interactive
// engine it stands in for.
type MemoryEngine struct {
	mu      sync.Mutex
	doc     block.Document
	focus   int // index of the focused block, -1 when nothing is focused
	started bool
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{focus: -1}
}

func (e *MemoryEngine) Boot(ctx context.Context, doc block.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = doc.Clone()
	if e.doc.Blocks == nil {
		e.doc.Blocks = []block.Block{}
	}
	e.focus = -1
	e.started = true
	return nil
}

// Focus marks a block index as focused. Out-of-range indexes clear the
// focus, matching "insert at end" semantics.
func (e *MemoryEngine) Focus(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.doc.Blocks) {
		e.focus = -1
		return
	}
	e.focus = index
}

func (e *MemoryEngine) Insert(ctx context.Context, b block.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return errors.New("engine not booted")
	}
	if b.Type == "" {
		return errors.New("block type is empty")
	}
	if b.Data == nil {
		return errors.New("block data is missing")
	}

	inserted := b.Clone()
	at := len(e.doc.Blocks)
	if e.focus >= 0 && e.focus < len(e.doc.Blocks) {
		at = e.focus + 1
	}
	e.doc.Blocks = append(e.doc.Blocks, block.Block{})
	copy(e.doc.Blocks[at+1:], e.doc.Blocks[at:])
	e.doc.Blocks[at] = inserted
	e.focus = at
	return nil
}

func (e *MemoryEngine) Save(ctx context.Context) (block.Document, error) {
	if err := ctx.Err(); err != nil {
		return block.Document{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return block.Document{}, errors.New("engine not booted")
	}
	out := e.doc.Clone()
	out.Time = time.Now().UnixMilli()
	out.Version = block.SchemaVersion
	return out, nil
}

func (e *MemoryEngine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = block.Document{}
	e.focus = -1
	e.started = false
}
