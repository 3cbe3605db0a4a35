// Package download fetches media files to disk and validates the result.
// Files that fail validation are removed so partial or bogus downloads never
// pollute the dataset directories.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"warbler/internal/fetch"
	"warbler/internal/logging"
)

// Kind selects the validation rules applied after a download.
type Kind string

const (
	// KindPhoto validates file size bounds and that the content sniffs as
	// an image.
	KindPhoto Kind = "photo"
	// KindAudio validates a minimum file size only.
	KindAudio Kind = "audio"
)

// Options control validation for a single download.
type Options struct {
	Kind     Kind
	MinBytes int64
	MaxBytes int64
}

// Downloader retrieves remote media and enforces per-kind validation.
type Downloader struct {
	client *fetch.Client
	logger *slog.Logger
}

// New creates a Downloader on top of an existing fetch client.
func New(client *fetch.Client, logger *slog.Logger) *Downloader {
	return &Downloader{
		client: client,
		logger: logging.NewComponentLogger(logger, "download"),
	}
}

// Download fetches url into dest and validates the written file. It reports
// whether the file was kept; validation failures are logged, the file is
// removed, and false is returned without an error so callers can continue
// with the remaining media.
func (d *Downloader) Download(ctx context.Context, url, dest string, opts Options) (bool, error) {
	if err := d.client.Download(ctx, url, dest); err != nil {
		return false, err
	}

	if err := d.validate(dest, opts); err != nil {
		d.logger.Warn("discarding invalid download",
			logging.String(logging.FieldURL, url),
			logging.String(logging.FieldPath, dest),
			logging.Error(err))
		_ = os.Remove(dest)
		return false, nil
	}
	return true, nil
}

func (d *Downloader) validate(path string, opts Options) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat downloaded file: %w", err)
	}
	size := info.Size()

	if opts.MinBytes > 0 && size < opts.MinBytes {
		return fmt.Errorf("file too small: %d bytes (minimum %d)", size, opts.MinBytes)
	}
	if opts.MaxBytes > 0 && size > opts.MaxBytes {
		return fmt.Errorf("file too large: %d bytes (maximum %d)", size, opts.MaxBytes)
	}

	if opts.Kind == KindPhoto {
		if err := checkImage(path); err != nil {
			return err
		}
	}
	return nil
}

// checkImage sniffs the file header and rejects anything that isn't an image.
func checkImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open downloaded file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// DetectContentType considers at most the first 512 bytes.
	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return fmt.Errorf("read downloaded file: %w", err)
	}

	contentType := http.DetectContentType(header[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("not an image: detected %s", contentType)
	}
	return nil
}
