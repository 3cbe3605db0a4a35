// Package builder orchestrates a collection run: for each species it gathers
// the description, photos, and recordings, downloads the media, records
// progress, and finally merges the results into the dataset document.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/dataset"
	"warbler/internal/download"
	"warbler/internal/logging"
	"warbler/internal/providers"
	"warbler/internal/providers/wikipedia"
	"warbler/internal/species"
)

// SummarySource provides species descriptions.
type SummarySource interface {
	Summary(ctx context.Context, title string) (*wikipedia.Summary, error)
}

// RecordingSource provides audio recording metadata.
type RecordingSource interface {
	Recordings(ctx context.Context, genus, speciesEpithet string, limit int) ([]dataset.Recording, error)
}

// MediaDownloader fetches and validates media files.
type MediaDownloader interface {
	Download(ctx context.Context, url, dest string, opts download.Options) (bool, error)
}

// ResponseCache stores provider responses between runs. A nil cache disables
// caching entirely.
type ResponseCache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Deps bundles the collaborators a Builder needs.
type Deps struct {
	Summaries  SummarySource
	Photos     providers.PhotoSource
	Recordings RecordingSource
	Downloader MediaDownloader
	Cache      ResponseCache
	Ledger     *cache.Ledger
}

// Options control a single collection run.
type Options struct {
	// TestLimit truncates the species list when positive.
	TestLimit int
	// Resume reuses ledger entries instead of re-collecting those species.
	Resume bool
	// OutputPath overrides the configured dataset file when non-empty.
	OutputPath string
}

// Summary reports the outcome of a collection run.
type Summary struct {
	RunID           string
	Processed       int
	Succeeded       int
	Failed          int
	Skipped         int
	TotalPhotos     int
	TotalRecordings int
	Elapsed         time.Duration
	OutputPath      string
}

// Builder runs the collection pipeline.
type Builder struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "builder"),
	}
}

// Build collects data for every species in list and writes the merged dataset
// document. A failure for one species is logged and counted; the run
// continues with the rest. Only a run-level problem (lock contention, dataset
// write failure) returns an error.
func (b *Builder) Build(ctx context.Context, list []species.Species, opts Options) (*dataset.Document, *Summary, error) {
	lock := flock.New(filepath.Join(b.cfg.Paths.DataDir, ".warbler.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("another collection run is already in progress")
	}
	defer func() { _ = lock.Unlock() }()

	if opts.TestLimit > 0 && len(list) > opts.TestLimit {
		b.logger.Info("test mode, truncating species list",
			logging.Int("limit", opts.TestLimit),
			logging.Int("total", len(list)))
		list = list[:opts.TestLimit]
	}

	var completed map[string]cache.CompletedEntry
	if opts.Resume {
		progress, err := b.deps.Ledger.Load()
		if err != nil {
			return nil, nil, err
		}
		completed = progress.Completed
		b.logger.Info("resuming run",
			logging.Int("already_completed", len(completed)))
	}

	runID := uuid.NewString()
	started := time.Now()
	summary := &Summary{RunID: runID, Processed: len(list)}
	logger := b.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("starting collection run",
		logging.Int("species", len(list)),
		logging.String(logging.FieldProvider, b.deps.Photos.Tag()),
		logging.Bool("test_mode", opts.TestLimit > 0))

	records := make([]dataset.Record, 0, len(list))
	for _, sp := range list {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if entry, done := completed[sp.Key]; done {
			logger.Info("skipping completed species",
				logging.String(logging.FieldSpecies, sp.Key))
			records = append(records, entry.Data)
			summary.Skipped++
			summary.TotalPhotos += len(entry.Data.Photos)
			summary.TotalRecordings += len(entry.Data.Recordings)
			continue
		}

		record, err := b.collect(ctx, logger, sp)
		if err != nil {
			logger.Error("species collection failed",
				logging.String(logging.FieldSpecies, sp.Key),
				logging.Error(err))
			summary.Failed++
			continue
		}

		if err := b.deps.Ledger.MarkCompleted(runID, sp.Key, record); err != nil {
			logger.Warn("could not record progress",
				logging.String(logging.FieldSpecies, sp.Key),
				logging.Error(err))
		}

		records = append(records, record)
		summary.Succeeded++
		summary.TotalPhotos += len(record.Photos)
		summary.TotalRecordings += len(record.Recordings)
	}

	doc, err := b.writeDataset(records, opts)
	if err != nil {
		return nil, nil, err
	}

	summary.Elapsed = time.Since(started)
	summary.OutputPath = b.outputPath(opts)
	logger.Info("run complete",
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped))
	return doc, summary, nil
}

// collect gathers everything for one species.
func (b *Builder) collect(ctx context.Context, logger *slog.Logger, sp species.Species) (dataset.Record, error) {
	logger = logger.With(logging.String(logging.FieldSpecies, sp.Key))
	logger.Info("collecting species",
		logging.String("scientific_name", sp.ScientificName))

	description, err := b.fetchDescription(ctx, sp)
	if err != nil {
		return dataset.Record{}, err
	}

	photos, err := b.collectPhotos(ctx, logger, sp)
	if err != nil {
		return dataset.Record{}, err
	}
	if len(photos) < b.cfg.Photos.MinPhotos {
		logger.Warn("below minimum photo count",
			logging.Int(logging.FieldCount, len(photos)),
			logging.Int("minimum", b.cfg.Photos.MinPhotos))
	}

	recordings, err := b.collectRecordings(ctx, logger, sp)
	if err != nil {
		return dataset.Record{}, err
	}
	if len(recordings) < b.cfg.XenoCanto.MinRecordings {
		logger.Warn("below minimum recording count",
			logging.Int(logging.FieldCount, len(recordings)),
			logging.Int("minimum", b.cfg.XenoCanto.MinRecordings))
	}

	return dataset.Record{
		Key:            sp.Key,
		CommonName:     sp.CommonName,
		ScientificName: sp.ScientificName,
		Description:    description,
		Photos:         photos,
		Recordings:     recordings,
		Stats:          dataset.DeriveStats(photos, recordings),
	}, nil
}

func (b *Builder) fetchDescription(ctx context.Context, sp species.Species) (string, error) {
	var summary *wikipedia.Summary
	key := "wikipedia:" + sp.CommonName
	err := b.cached(ctx, key, &summary, func() (any, error) {
		return b.deps.Summaries.Summary(ctx, sp.CommonName)
	})
	if err != nil {
		return "", err
	}
	if summary == nil {
		return "", nil
	}
	return summary.Extract, nil
}

func (b *Builder) collectPhotos(ctx context.Context, logger *slog.Logger, sp species.Species) ([]dataset.Photo, error) {
	var candidates []dataset.Photo
	key := fmt.Sprintf("%s_photos:%s", b.deps.Photos.Tag(), sp.ScientificName)
	err := b.cached(ctx, key, &candidates, func() (any, error) {
		return b.deps.Photos.Photos(ctx, sp.ScientificName, sp.CommonName, b.cfg.Photos.MaxPhotos)
	})
	if err != nil {
		return nil, err
	}

	photos := make([]dataset.Photo, 0, len(candidates))
	for idx, candidate := range candidates {
		filename := fmt.Sprintf("%s-photo%d.jpg", sp.Key, idx+1)
		dest := filepath.Join(b.cfg.Paths.PhotosDir, filename)

		ok, err := b.deps.Downloader.Download(ctx, candidate.URL, dest, download.Options{
			Kind:     download.KindPhoto,
			MinBytes: b.cfg.Photos.MinBytes,
			MaxBytes: b.cfg.Photos.MaxBytes,
		})
		if err != nil {
			logger.Warn("photo download failed",
				logging.String(logging.FieldURL, candidate.URL),
				logging.Error(err))
			continue
		}
		if !ok {
			continue
		}

		candidate.Cached = filepath.Join("photos", filename)
		photos = append(photos, candidate)
	}
	return photos, nil
}

func (b *Builder) collectRecordings(ctx context.Context, logger *slog.Logger, sp species.Species) ([]dataset.Recording, error) {
	var candidates []dataset.Recording
	key := fmt.Sprintf("xenocanto:%s:%s", sp.Genus, sp.Species)
	err := b.cached(ctx, key, &candidates, func() (any, error) {
		return b.deps.Recordings.Recordings(ctx, sp.Genus, sp.Species, b.cfg.XenoCanto.MaxRecordings)
	})
	if err != nil {
		return nil, err
	}

	recordings := make([]dataset.Recording, 0, len(candidates))
	for idx, candidate := range candidates {
		filename := fmt.Sprintf("%s-audio%d.mp3", sp.Key, idx+1)
		dest := filepath.Join(b.cfg.Paths.AudioDir, filename)

		ok, err := b.deps.Downloader.Download(ctx, candidate.AudioURL, dest, download.Options{
			Kind:     download.KindAudio,
			MinBytes: b.cfg.XenoCanto.MinAudioBytes,
		})
		if err != nil {
			logger.Warn("audio download failed",
				logging.String(logging.FieldURL, candidate.AudioURL),
				logging.Error(err))
			continue
		}
		if !ok {
			continue
		}

		candidate.CachedAudio = filepath.Join("audio", filename)
		recordings = append(recordings, candidate)
	}
	return recordings, nil
}

// cached fills target from the cache when possible, otherwise calls fetch
// and stores the result. Cache read/write problems degrade to a fetch; they
// never fail the species.
func (b *Builder) cached(ctx context.Context, key string, target any, fetch func() (any, error)) error {
	if b.deps.Cache != nil {
		raw, hit, err := b.deps.Cache.Get(ctx, key)
		if err != nil {
			b.logger.Warn("cache read failed", logging.String("key", key), logging.Error(err))
		} else if hit {
			if err := json.Unmarshal(raw, target); err == nil {
				return nil
			}
			b.logger.Warn("cached value unreadable, refetching", logging.String("key", key))
		}
	}

	value, err := fetch()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s result: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s result: %w", key, err)
	}

	if b.deps.Cache != nil {
		if err := b.deps.Cache.Set(ctx, key, value, 0); err != nil {
			b.logger.Warn("cache write failed", logging.String("key", key), logging.Error(err))
		}
	}
	return nil
}

func (b *Builder) outputPath(opts Options) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}
	return b.cfg.Paths.DatasetFile
}

// writeDataset merges this run's records into the existing document and
// persists it. An unreadable existing document is logged and treated as
// empty rather than aborting the run.
func (b *Builder) writeDataset(records []dataset.Record, opts Options) (*dataset.Document, error) {
	path := b.outputPath(opts)

	existing, err := dataset.Load(path)
	if err != nil {
		b.logger.Warn("existing dataset unreadable, starting fresh",
			logging.String(logging.FieldPath, path),
			logging.Error(err))
		existing = &dataset.Document{}
	}

	merged := dataset.Merge(existing.Species, records)
	doc := &dataset.Document{
		Species: merged,
		Metadata: dataset.Metadata{
			Version:      dataset.DocumentVersion,
			Created:      time.Now().UTC(),
			TotalSpecies: len(merged),
			DataSources:  []string{"wikipedia", "xeno-canto", b.deps.Photos.Tag()},
			TestMode:     opts.TestLimit > 0,
		},
	}

	if err := doc.Write(path); err != nil {
		return nil, err
	}
	b.logger.Info("dataset written",
		logging.String(logging.FieldPath, path),
		logging.Int("total_species", len(merged)))
	return doc, nil
}
