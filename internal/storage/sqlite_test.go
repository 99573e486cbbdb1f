package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/shapes"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := store.SaveHeight(7, 120, ""); err != nil {
		t.Fatalf("SaveHeight() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	if best, ok, _ := store.Best(7); !ok || best != 120 {
		t.Errorf("Best() = %v, %v, expected 120, true", best, ok)
	}
}

func arrangement() shapes.ShapesVec {
	return shapes.ShapesVec{
		{Shape: 3, State: shapes.StateFixed, Location: shapes.Location{Position: core.V(0, -350), Angle: 1.5}},
		{Shape: 4, State: shapes.StateNormal, Modifiers: shapes.ModifiersLowFriction, Location: shapes.Location{Position: core.V(12.5, -240)}},
		{Shape: 0, State: shapes.StateVoid, Location: shapes.Location{Position: core.V(-200, -420)}},
	}
}

func TestStoreArrangementRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if _, ok, err := store.LoadArrangement("01-first-steps"); err != nil || ok {
		t.Fatalf("LoadArrangement(empty) = ok %v, err %v, expected nothing", ok, err)
	}

	saved := arrangement()
	if err := store.SaveArrangement("01-first-steps", saved); err != nil {
		t.Fatalf("SaveArrangement() failed: %v", err)
	}

	got, ok, err := store.LoadArrangement("01-first-steps")
	if err != nil || !ok {
		t.Fatalf("LoadArrangement() = ok %v, err %v", ok, err)
	}
	if len(got) != len(saved) {
		t.Fatalf("loaded %d shapes, expected %d", len(got), len(saved))
	}
	for i := range saved {
		if got[i] != saved[i] {
			t.Errorf("shape %d = %+v, expected %+v", i, got[i], saved[i])
		}
	}
}

func TestStoreArrangementReplaces(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveArrangement("lvl", arrangement()); err != nil {
		t.Fatalf("SaveArrangement() failed: %v", err)
	}
	if err := store.SaveArrangement("lvl", arrangement()[:1]); err != nil {
		t.Fatalf("second SaveArrangement() failed: %v", err)
	}
	if err := store.SaveArrangement("other", arrangement()); err != nil {
		t.Fatalf("SaveArrangement(other) failed: %v", err)
	}

	got, _, _ := store.LoadArrangement("lvl")
	if len(got) != 1 {
		t.Errorf("loaded %d shapes, expected 1 after replacing", len(got))
	}

	if err := store.DeleteArrangement("lvl"); err != nil {
		t.Fatalf("DeleteArrangement() failed: %v", err)
	}
	if _, ok, _ := store.LoadArrangement("lvl"); ok {
		t.Error("arrangement still present after delete")
	}
	if other, ok, _ := store.LoadArrangement("other"); !ok || len(other) != 3 {
		t.Error("deleting one level affected another")
	}
}

func TestStoreEmptyArrangement(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveArrangement("empty", nil); err != nil {
		t.Fatalf("SaveArrangement(nil) failed: %v", err)
	}
	got, ok, err := store.LoadArrangement("empty")
	if err != nil || !ok || len(got) != 0 {
		t.Errorf("LoadArrangement() = %v, %v, %v, expected empty and found", got, ok, err)
	}
}

func TestStoreBestHeights(t *testing.T) {
	store := openTestStore(t)

	for _, h := range []float32{150, 300.5, 50, 220} {
		if _, err := store.SaveHeight(42, h, "code"); err != nil {
			t.Fatalf("SaveHeight() failed: %v", err)
		}
	}
	store.SaveHeight(99, 1000, "")

	entries, err := store.BestHeights(42, 3)
	if err != nil {
		t.Fatalf("BestHeights() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 heights with limit, got %d", len(entries))
	}

	expected := []float32{300.5, 220, 150}
	for i, e := range entries {
		if e.Height != expected[i] {
			t.Errorf("entry %d height = %v, expected %v", i, e.Height, expected[i])
		}
		if e.LevelHash != 42 || e.ShareCode != "code" {
			t.Errorf("entry %d = %+v", i, e)
		}
	}
}

func TestStoreBest(t *testing.T) {
	store := openTestStore(t)

	if _, ok, err := store.Best(1); err != nil || ok {
		t.Errorf("Best(empty) = ok %v, err %v, expected none", ok, err)
	}

	store.SaveHeight(1, 100, "")
	store.SaveHeight(1, 300, "")
	store.SaveHeight(1, 200, "")

	best, ok, err := store.Best(1)
	if err != nil || !ok {
		t.Fatalf("Best() = ok %v, err %v", ok, err)
	}
	if best != 300 {
		t.Errorf("Best() = %v, expected 300", best)
	}
}

func TestStoreClearHeights(t *testing.T) {
	store := openTestStore(t)

	store.SaveHeight(1, 100, "")
	store.SaveHeight(2, 200, "")

	if err := store.ClearHeights(1); err != nil {
		t.Fatalf("ClearHeights() failed: %v", err)
	}

	if entries, _ := store.BestHeights(1, 10); len(entries) != 0 {
		t.Errorf("Expected 0 heights after clear, got %d", len(entries))
	}
	if entries, _ := store.BestHeights(2, 10); len(entries) != 1 {
		t.Error("clearing one hash affected another")
	}
}

func TestStoreLevelStats(t *testing.T) {
	store := openTestStore(t)

	empty, err := store.GetLevelStats(5)
	if err != nil {
		t.Fatalf("GetLevelStats(empty) failed: %v", err)
	}
	if empty.Completions != 0 || !empty.LastPlayed.IsZero() {
		t.Errorf("GetLevelStats(empty) = %+v", empty)
	}

	store.SaveHeight(5, 100, "")
	store.SaveHeight(5, 200, "")

	stats, err := store.GetLevelStats(5)
	if err != nil {
		t.Fatalf("GetLevelStats() failed: %v", err)
	}
	if stats.Completions != 2 || stats.BestHeight != 200 || stats.AvgHeight != 150 {
		t.Errorf("GetLevelStats() = %+v", stats)
	}
	if stats.LastPlayed.IsZero() {
		t.Error("LastPlayed not set")
	}
}
