package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"warbler/internal/dataset"
	"warbler/internal/logging"
)

// CompletedEntry records one fully collected species and when it finished.
type CompletedEntry struct {
	Data        dataset.Record `json:"data"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Progress is the on-disk resume state for a collection run.
type Progress struct {
	RunID       string                    `json:"run_id,omitempty"`
	Completed   map[string]CompletedEntry `json:"completed_species"`
	StartedAt   time.Time                 `json:"started_at"`
	LastUpdated time.Time                 `json:"last_updated"`
}

// Ledger persists collection progress so interrupted runs can resume.
type Ledger struct {
	path   string
	logger *slog.Logger
}

// NewLedger creates a ledger rooted at dir. The progress file is created on
// first save.
func NewLedger(dir string, logger *slog.Logger) *Ledger {
	return &Ledger{
		path:   filepath.Join(dir, "progress.json"),
		logger: logging.NewComponentLogger(logger, "ledger"),
	}
}

// Path returns the location of the progress file.
func (l *Ledger) Path() string {
	return l.path
}

// Load reads the saved progress. A missing or unreadable file yields fresh
// empty progress rather than an error; corruption is logged and discarded.
func (l *Ledger) Load() (*Progress, error) {
	progress := &Progress{Completed: make(map[string]CompletedEntry)}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return progress, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	if err := json.Unmarshal(data, progress); err != nil {
		l.logger.Warn("progress file corrupt, starting fresh",
			logging.String(logging.FieldPath, l.path),
			logging.Error(err))
		return &Progress{Completed: make(map[string]CompletedEntry)}, nil
	}
	if progress.Completed == nil {
		progress.Completed = make(map[string]CompletedEntry)
	}
	return progress, nil
}

// MarkCompleted records a finished species and persists the updated ledger.
// The on-disk state is re-read first so concurrent or resumed runs never
// erase each other's entries.
func (l *Ledger) MarkCompleted(runID, key string, record dataset.Record) error {
	progress, err := l.Load()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if progress.StartedAt.IsZero() {
		progress.StartedAt = now
	}
	if runID != "" {
		progress.RunID = runID
	}
	progress.Completed[key] = CompletedEntry{Data: record, CompletedAt: now}
	progress.LastUpdated = now

	return l.save(progress)
}

// Clear removes the progress file. Clearing an absent ledger is not an error.
func (l *Ledger) Clear() error {
	err := os.Remove(l.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove progress file: %w", err)
	}
	if err == nil {
		l.logger.Info("cleared progress", logging.String(logging.FieldPath, l.path))
	}
	return nil
}

func (l *Ledger) save(progress *Progress) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}

	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write progress temp file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}
