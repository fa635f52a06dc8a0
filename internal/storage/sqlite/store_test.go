package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fableroom/fableroom/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open() with blank path, want error")
	}
}

func TestSaveLoadDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := storage.RoomRecord{RoomID: "r1", Snapshot: []byte(`{"id":"r1"}`)}
	if err := store.SaveSnapshot(ctx, record); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	got, err := store.LoadSnapshot(ctx, "r1")
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if string(got.Snapshot) != `{"id":"r1"}` {
		t.Fatalf("Snapshot = %s, want stored payload", got.Snapshot)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt is zero, want a stamped save time")
	}

	if err := store.DeleteSnapshot(ctx, "r1"); err != nil {
		t.Fatalf("DeleteSnapshot() error = %v", err)
	}
	if _, err := store.LoadSnapshot(ctx, "r1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("LoadSnapshot() after delete = %v, want ErrNotFound", err)
	}
}

func TestSaveSnapshot_Upserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveSnapshot(ctx, storage.RoomRecord{RoomID: "r1", Snapshot: []byte(`v1`)}); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := store.SaveSnapshot(ctx, storage.RoomRecord{RoomID: "r1", Snapshot: []byte(`v2`)}); err != nil {
		t.Fatalf("SaveSnapshot() second write error = %v", err)
	}

	got, err := store.LoadSnapshot(ctx, "r1")
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if string(got.Snapshot) != "v2" {
		t.Fatalf("Snapshot = %s, want latest write", got.Snapshot)
	}

	records, err := store.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListSnapshots() = %d records, want 1", len(records))
	}
}

func TestListSnapshots_OrderedByRoom(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := store.SaveSnapshot(ctx, storage.RoomRecord{RoomID: id, Snapshot: []byte(`{}`)}); err != nil {
			t.Fatalf("SaveSnapshot(%s) error = %v", id, err)
		}
	}

	records, err := store.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(records) != len(want) {
		t.Fatalf("ListSnapshots() = %d records, want %d", len(records), len(want))
	}
	for i, record := range records {
		if record.RoomID != want[i] {
			t.Fatalf("records[%d] = %s, want %s", i, record.RoomID, want[i])
		}
	}
}
