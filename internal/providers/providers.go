// Package providers wires the configured photo source to its client. Each
// provider lives in its own subpackage; this package owns the interface they
// satisfy and the closed tag registry that maps configuration to a client.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warbler/internal/config"
	"warbler/internal/dataset"
	"warbler/internal/fetch"
	"warbler/internal/providers/inaturalist"
	"warbler/internal/providers/wikimedia"
	"warbler/internal/retry"
)

// PhotoSource is a provider that can search photos for a species.
type PhotoSource interface {
	// Tag identifies the source in configuration and dataset records.
	Tag() string
	// Photos returns up to limit photos. An empty result is not an error.
	Photos(ctx context.Context, scientificName, commonName string, limit int) ([]dataset.Photo, error)
}

// NewPhotoSource constructs the photo source selected in the configuration.
// The tag set is closed: anything outside it is a configuration error, caught
// here at startup rather than at first use.
func NewPhotoSource(cfg *config.Config, logger *slog.Logger) (PhotoSource, error) {
	switch cfg.Photos.Source {
	case inaturalist.Tag:
		client := NewFetchClient(cfg, cfg.INaturalist.BaseURL, logger)
		return inaturalist.New(client, logger), nil
	case wikimedia.Tag:
		client := NewFetchClient(cfg, cfg.Wikimedia.BaseURL, logger)
		return wikimedia.New(client, wikimedia.Options{
			MinBytes:     cfg.Photos.MinBytes,
			SkipKeywords: cfg.Photos.SkipKeywords,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown photo source %q (valid: %v)", cfg.Photos.Source, config.PhotoSourceTags)
	}
}

// NewFetchClient builds a fetch client with the shared HTTP settings and the
// given base URL. The builder uses it for the providers that sit outside the
// photo registry and for the media downloader.
func NewFetchClient(cfg *config.Config, baseURL string, logger *slog.Logger) *fetch.Client {
	return fetch.NewClient(fetch.Options{
		BaseURL:   baseURL,
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   time.Duration(cfg.HTTP.RequestTimeout) * time.Second,
		Retry: retry.Policy{
			MaxAttempts: cfg.HTTP.MaxRetries,
			BaseDelay:   time.Duration(cfg.HTTP.RetryDelaySeconds) * time.Second,
		},
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		ChunkSize:         cfg.HTTP.ChunkSize,
		Logger:            logger,
	})
}
