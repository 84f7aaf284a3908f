// Package editor wraps an interactive rich-text editing engine behind a
// minimal imperative facade so the rest of the system never depends on the
// engine's native API.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"studio/api/internal/block"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateDisposed      State = "disposed"
)

// Engine is the external editing engine contract. Boot must complete before
// any other call; Destroy releases the instance.
type Engine interface {
	Boot(ctx context.Context, doc block.Document) error
	Insert(ctx context.Context, b block.Block) error
	Save(ctx context.Context) (block.Document, error)
	Destroy()
}

type InsertReason string

const (
	ReasonEditorNotReady InsertReason = "EDITOR_NOT_READY"
	ReasonUnknownType    InsertReason = "UNKNOWN_BLOCK_TYPE"
	ReasonInsertFailed   InsertReason = "INSERT_FAILED"
)

// InsertResult is the typed outcome of InsertBlock. Failures are returned,
// never thrown, so the calling UI can always render a specific message.
type InsertResult struct {
	OK     bool         `json:"ok"`
	Reason InsertReason `json:"reason,omitempty"`
	Detail string       `json:"detail,omitempty"`
}

var (
	ErrNotReady           = errors.New("editor is not ready")
	ErrDisposed           = errors.New("editor is disposed")
	ErrAlreadyInitialized = errors.New("editor is already initialized")
)

// Adapter drives an Engine through the state machine
// uninitialized -> initializing -> ready -> disposed. A disposed adapter
// cannot be resurrected; callers construct a fresh one.
type Adapter struct {
	mu       sync.Mutex
	state    State
	engine   Engine
	registry *block.Registry
	onChange func(block.Document)
}

func New(registry *block.Registry, engine Engine) *Adapter {
	return &Adapter{
		state:    StateUninitialized,
		engine:   engine,
		registry: registry,
	}
}

// OnChange registers the change notification used for autosave. Must be set
// before Initialize.
func (a *Adapter) OnChange(fn func(block.Document)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// Initialize boots the engine with the initial document. The adapter only
// accepts commands once the engine reports ready.
func (a *Adapter) Initialize(ctx context.Context, doc block.Document) error {
	a.mu.Lock()
	switch a.state {
	case StateDisposed:
		a.mu.Unlock()
		return ErrDisposed
	case StateInitializing, StateReady:
		a.mu.Unlock()
		return ErrAlreadyInitialized
	}
	a.state = StateInitializing
	a.mu.Unlock()

	if err := a.engine.Boot(ctx, doc.Clone()); err != nil {
		a.mu.Lock()
		a.state = StateUninitialized
		a.mu.Unlock()
		return fmt.Errorf("boot engine: %w", err)
	}

	a.mu.Lock()
	// Dispose may have raced the boot; do not come back to life.
	if a.state == StateInitializing {
		a.state = StateReady
	}
	a.mu.Unlock()
	return nil
}

func (a *Adapter) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateReady
}

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// InsertBlock inserts a block of the given type after the currently focused
// block (or at the end when nothing is focused). A nil data map means "use
// the registry default for the type".
func (a *Adapter) InsertBlock(ctx context.Context, blockType string, data map[string]any) InsertResult {
	if !a.IsReady() {
		return InsertResult{OK: false, Reason: ReasonEditorNotReady, Detail: "initialize has not completed"}
	}
	if data == nil {
		defaultData, ok := a.registry.Default(blockType)
		if !ok {
			return InsertResult{OK: false, Reason: ReasonUnknownType, Detail: blockType}
		}
		data = defaultData
	} else if !a.registry.Has(blockType) {
		return InsertResult{OK: false, Reason: ReasonUnknownType, Detail: blockType}
	}

	if err := a.engine.Insert(ctx, block.Block{Type: blockType, Data: data}); err != nil {
		return InsertResult{OK: false, Reason: ReasonInsertFailed, Detail: err.Error()}
	}

	a.notifyChange(ctx)
	return InsertResult{OK: true}
}

// ReadDocument serializes the current engine state. Callers must read after
// every mutation they need reflected; there is no background sync beyond the
// engine's own change notifications.
func (a *Adapter) ReadDocument(ctx context.Context) (block.Document, error) {
	if !a.IsReady() {
		return block.Document{}, ErrNotReady
	}
	doc, err := a.engine.Save(ctx)
	if err != nil {
		return block.Document{}, fmt.Errorf("read document: %w", err)
	}
	return doc, nil
}

// Dispose releases the engine and drops readiness. Safe to call more than
// once.
func (a *Adapter) Dispose() {
	a.mu.Lock()
	if a.state == StateDisposed {
		a.mu.Unlock()
		return
	}
	a.state = StateDisposed
	a.mu.Unlock()
	a.engine.Destroy()
}

func (a *Adapter) notifyChange(ctx context.Context) {
	a.mu.Lock()
	fn := a.onChange
	a.mu.Unlock()
	if fn == nil {
		return
	}
	doc, err := a.engine.Save(ctx)
	if err != nil {
		return
	}
	fn(doc)
}
