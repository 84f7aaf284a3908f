package editor

import (
	"context"
	"errors"
	"testing"

	"studio/api/internal/block"
)

func newReadyAdapter(t *testing.T) (*Adapter, *MemoryEngine) {
	t.Helper()
	engine := NewMemoryEngine()
	adapter := New(block.NewDefaultRegistry(), engine)
	if err := adapter.Initialize(context.Background(), block.NewDocument()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return adapter, engine
}

func TestInsertBeforeInitializeReturnsNotReady(t *testing.T) {
	adapter := New(block.NewDefaultRegistry(), NewMemoryEngine())

	result := adapter.InsertBlock(context.Background(), "paragraph", nil)
	if result.OK {
		t.Fatal("expected failure before initialize")
	}
	if result.Reason != ReasonEditorNotReady {
		t.Errorf("expected EDITOR_NOT_READY, got %s", result.Reason)
	}

	// The document must not have been touched.
	if err := adapter.Initialize(context.Background(), block.NewDocument()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	doc, err := adapter.ReadDocument(context.Background())
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if len(doc.Blocks) != 0 {
		t.Errorf("expected empty document, got %d blocks", len(doc.Blocks))
	}
}

func TestInsertAndReadRoundTrip(t *testing.T) {
	adapter, _ := newReadyAdapter(t)

	result := adapter.InsertBlock(context.Background(), "header", map[string]any{"text": "Hi", "level": 1})
	if !result.OK {
		t.Fatalf("insert failed: %s %s", result.Reason, result.Detail)
	}

	doc, err := adapter.ReadDocument(context.Background())
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if len(doc.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(doc.Blocks))
	}
	b := doc.Blocks[0]
	if b.Type != "header" {
		t.Errorf("expected header block, got %s", b.Type)
	}
	if b.Data["text"] != "Hi" || b.Data["level"] != 1 {
		t.Errorf("unexpected block data: %v", b.Data)
	}
}

func TestInsertUsesRegistryDefaultWhenDataOmitted(t *testing.T) {
	adapter, _ := newReadyAdapter(t)

	if result := adapter.InsertBlock(context.Background(), "quote", nil); !result.OK {
		t.Fatalf("insert failed: %s", result.Reason)
	}
	doc, err := adapter.ReadDocument(context.Background())
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if doc.Blocks[0].Data["text"] != "" || doc.Blocks[0].Data["caption"] != "" {
		t.Errorf("expected default quote data, got %v", doc.Blocks[0].Data)
	}
}

func TestInsertUnknownType(t *testing.T) {
	adapter, _ := newReadyAdapter(t)
	result := adapter.InsertBlock(context.Background(), "holograph", nil)
	if result.OK || result.Reason != ReasonUnknownType {
		t.Errorf("expected UNKNOWN_BLOCK_TYPE, got %+v", result)
	}
}

func TestInsertAfterFocusedBlock(t *testing.T) {
	adapter, engine := newReadyAdapter(t)
	adapter.InsertBlock(context.Background(), "paragraph", map[string]any{"text": "first"})
	adapter.InsertBlock(context.Background(), "paragraph", map[string]any{"text": "second"})

	engine.Focus(0)
	adapter.InsertBlock(context.Background(), "paragraph", map[string]any{"text": "between"})

	doc, err := adapter.ReadDocument(context.Background())
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	got := []string{}
	for _, b := range doc.Blocks {
		got = append(got, b.Data["text"].(string))
	}
	want := []string{"first", "between", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order %v, want %v", got, want)
		}
	}
}

type failingEngine struct {
	MemoryEngine
	failWith error
}

func (e *failingEngine) Insert(ctx context.Context, b block.Block) error {
	if e.failWith != nil {
		return e.failWith
	}
	return e.MemoryEngine.Insert(ctx, b)
}

func TestInsertFailedCarriesDetail(t *testing.T) {
	engine := &failingEngine{failWith: errors.New("node detached")}
	adapter := New(block.NewDefaultRegistry(), engine)
	if err := adapter.Initialize(context.Background(), block.NewDocument()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	result := adapter.InsertBlock(context.Background(), "paragraph", nil)
	if result.OK || result.Reason != ReasonInsertFailed {
		t.Fatalf("expected INSERT_FAILED, got %+v", result)
	}
	if result.Detail != "node detached" {
		t.Errorf("expected error detail, got %q", result.Detail)
	}
}

func TestDisposeIsTerminalAndIdempotent(t *testing.T) {
	adapter, _ := newReadyAdapter(t)

	adapter.Dispose()
	adapter.Dispose()
	if adapter.IsReady() {
		t.Error("disposed adapter reports ready")
	}
	if result := adapter.InsertBlock(context.Background(), "paragraph", nil); result.Reason != ReasonEditorNotReady {
		t.Errorf("expected EDITOR_NOT_READY after dispose, got %+v", result)
	}
	if err := adapter.Initialize(context.Background(), block.NewDocument()); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed on re-initialize, got %v", err)
	}
}

func TestChangeNotificationFiresOnInsert(t *testing.T) {
	engine := NewMemoryEngine()
	adapter := New(block.NewDefaultRegistry(), engine)
	var notified []block.Document
	adapter.OnChange(func(doc block.Document) {
		notified = append(notified, doc)
	})
	if err := adapter.Initialize(context.Background(), block.NewDocument()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	adapter.InsertBlock(context.Background(), "paragraph", map[string]any{"text": "x"})
	if len(notified) != 1 {
		t.Fatalf("expected 1 change notification, got %d", len(notified))
	}
	if len(notified[0].Blocks) != 1 {
		t.Errorf("notification should carry the updated document")
	}
}
