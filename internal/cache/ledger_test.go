package cache

import (
	"os"
	"path/filepath"
	"testing"

	"warbler/internal/dataset"
	"warbler/internal/logging"
)

func TestLedgerLoadMissingFile(t *testing.T) {
	ledger := NewLedger(t.TempDir(), logging.NewNop())

	progress, err := ledger.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(progress.Completed) != 0 {
		t.Fatalf("expected empty progress, got %d entries", len(progress.Completed))
	}
}

func TestLedgerLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(dir, logging.NewNop())

	if err := os.WriteFile(ledger.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	progress, err := ledger.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(progress.Completed) != 0 {
		t.Fatal("expected corrupt ledger to yield fresh progress")
	}
}

func TestLedgerMarkCompletedPersists(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(dir, logging.NewNop())

	record := dataset.Record{
		Key:            "northern-cardinal",
		CommonName:     "Northern Cardinal",
		ScientificName: "Cardinalis cardinalis",
	}
	if err := ledger.MarkCompleted("run-1", record.Key, record); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}

	reloaded := NewLedger(dir, logging.NewNop())
	progress, err := reloaded.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	entry, ok := progress.Completed["northern-cardinal"]
	if !ok {
		t.Fatal("expected completed entry for northern-cardinal")
	}
	if entry.Data.ScientificName != "Cardinalis cardinalis" {
		t.Fatalf("unexpected record: %+v", entry.Data)
	}
	if entry.CompletedAt.IsZero() {
		t.Fatal("expected completed_at to be set")
	}
	if progress.RunID != "run-1" {
		t.Fatalf("expected run ID to be recorded, got %q", progress.RunID)
	}
	if progress.StartedAt.IsZero() || progress.LastUpdated.IsZero() {
		t.Fatal("expected started_at and last_updated to be set")
	}
}

func TestLedgerMarkCompletedMergesExisting(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(dir, logging.NewNop())

	first := dataset.Record{Key: "blue-jay", ScientificName: "Cyanocitta cristata"}
	if err := ledger.MarkCompleted("run-1", first.Key, first); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}

	// A second ledger instance simulating a resumed run must not erase the
	// first entry.
	resumed := NewLedger(dir, logging.NewNop())
	second := dataset.Record{Key: "american-robin", ScientificName: "Turdus migratorius"}
	if err := resumed.MarkCompleted("run-2", second.Key, second); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}

	progress, err := ledger.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(progress.Completed) != 2 {
		t.Fatalf("expected 2 completed species, got %d", len(progress.Completed))
	}
	if _, ok := progress.Completed["blue-jay"]; !ok {
		t.Fatal("expected earlier entry to survive a resumed run")
	}
}

func TestLedgerSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(dir, logging.NewNop())

	record := dataset.Record{Key: "house-finch"}
	if err := ledger.MarkCompleted("", record.Key, record); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}

	if _, err := os.Stat(ledger.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("expected temp file to be renamed away")
	}
}

func TestLedgerClear(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(dir, logging.NewNop())

	if err := ledger.MarkCompleted("", "key", dataset.Record{Key: "key"}); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}
	if err := ledger.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "progress.json")); !os.IsNotExist(err) {
		t.Fatal("expected progress file to be removed")
	}

	// Clearing again is a no-op.
	if err := ledger.Clear(); err != nil {
		t.Fatalf("Clear on missing file returned error: %v", err)
	}
}
