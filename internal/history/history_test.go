package history

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"studio/api/internal/block"
	"studio/api/internal/content"
)

func setupManager(t *testing.T) (*Manager, *content.Store) {
	t.Helper()
	s := miniredis.RunT(t)
	opts, err := redis.ParseURL("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	store := content.NewStoreWithClient(client, "studio-content-items")
	store.Load(context.Background())
	return NewManager(client, "studio-content-versions", store), store
}

func TestSnapshotThenRestoreRoundTrip(t *testing.T) {
	manager, store := setupManager(t)
	ctx := context.Background()

	item := store.Create(ctx, "Round Trip", "avery")
	doc := block.Document{
		Version: block.SchemaVersion,
		Blocks: []block.Block{
			{Type: "header", Data: map[string]any{"text": "v1", "level": float64(2)}},
			{Type: "paragraph", Data: map[string]any{"text": "body"}},
		},
	}
	if err := store.UpdateDocument(ctx, item.ID, doc); err != nil {
		t.Fatalf("UpdateDocument failed: %v", err)
	}

	version, err := manager.Snapshot(ctx, item.ID, "avery", "first draft")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if version.BlockCount != 2 {
		t.Errorf("expected blockCount 2, got %d", version.BlockCount)
	}

	// Overwrite the live document, then restore.
	if err := store.UpdateDocument(ctx, item.ID, block.NewDocument()); err != nil {
		t.Fatalf("UpdateDocument failed: %v", err)
	}
	restored, ok := manager.Restore(ctx, item.ID, version.ID)
	if !ok {
		t.Fatal("Restore reported missing version")
	}
	if !reflect.DeepEqual(restored.Blocks, doc.Blocks) {
		t.Errorf("restored document differs from snapshot:\n%+v\n%+v", restored.Blocks, doc.Blocks)
	}

	live, _ := store.Get(item.ID)
	if !reflect.DeepEqual(live.Document.Blocks, doc.Blocks) {
		t.Error("restore did not write back through the content store")
	}
}

func TestRestoreUnknownVersion(t *testing.T) {
	manager, store := setupManager(t)
	ctx := context.Background()

	item := store.Create(ctx, "Missing", "avery")
	if _, ok := manager.Restore(ctx, item.ID, "ver_missing"); ok {
		t.Error("expected Restore to report missing version")
	}
}

func TestRestoreDoesNotCreateVersion(t *testing.T) {
	manager, store := setupManager(t)
	ctx := context.Background()

	item := store.Create(ctx, "NoExtra", "avery")
	version, err := manager.Snapshot(ctx, item.ID, "avery", "only one")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, ok := manager.Restore(ctx, item.ID, version.ID); !ok {
		t.Fatal("Restore failed")
	}
	if got := len(manager.List(ctx, item.ID)); got != 1 {
		t.Errorf("restore must not record a version of its own, got %d entries", got)
	}
}

func TestVersionListCappedAtFifty(t *testing.T) {
	manager, store := setupManager(t)
	ctx := context.Background()

	item := store.Create(ctx, "Capped", "avery")
	var oldest string
	for i := 0; i < MaxVersions+5; i++ {
		version, err := manager.Snapshot(ctx, item.ID, "avery", fmt.Sprintf("change %d", i))
		if err != nil {
			t.Fatalf("Snapshot %d failed: %v", i, err)
		}
		if i == 0 {
			oldest = version.ID
		}
	}

	versions := manager.List(ctx, item.ID)
	if len(versions) != MaxVersions {
		t.Fatalf("expected %d versions, got %d", MaxVersions, len(versions))
	}
	if versions[0].ChangeSummary != fmt.Sprintf("change %d", MaxVersions+4) {
		t.Errorf("expected newest first, got %q", versions[0].ChangeSummary)
	}
	for _, version := range versions {
		if version.ID == oldest {
			t.Error("oldest version should have been evicted")
		}
	}
}

func TestSnapshotUnknownContent(t *testing.T) {
	manager, _ := setupManager(t)
	if _, err := manager.Snapshot(context.Background(), "cnt_missing", "avery", "x"); err != content.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	manager, store := setupManager(t)
	ctx := context.Background()

	item := store.Create(ctx, "Order", "avery")
	for _, summary := range []string{"a", "b", "c"} {
		if _, err := manager.Snapshot(ctx, item.ID, "avery", summary); err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
	}
	versions := manager.List(ctx, item.ID)
	got := []string{versions[0].ChangeSummary, versions[1].ChangeSummary, versions[2].ChangeSummary}
	want := []string{"c", "b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected newest first %v, got %v", want, got)
	}
}
