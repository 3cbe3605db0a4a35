// Package xenocanto fetches audio recording metadata from the xeno-canto API.
package xenocanto

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"warbler/internal/dataset"
	"warbler/internal/fetch"
	"warbler/internal/logging"
)

// Client queries the xeno-canto recordings endpoint.
type Client struct {
	fetch         *fetch.Client
	apiKey        string
	qualityGrades []string
	logger        *slog.Logger
}

// New builds a Client. qualityGrades is the allow-list applied to results;
// an empty list disables quality filtering.
func New(client *fetch.Client, apiKey string, qualityGrades []string, logger *slog.Logger) *Client {
	return &Client{
		fetch:         client,
		apiKey:        apiKey,
		qualityGrades: qualityGrades,
		logger:        logging.NewComponentLogger(logger, "xenocanto"),
	}
}

// apiRecording mirrors the fields of a xeno-canto recording entry we consume.
type apiRecording struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Quality   string `json:"q"`
	Length    string `json:"length"`
	Location  string `json:"loc"`
	Recordist string `json:"rec"`
	Date      string `json:"date"`
	License   string `json:"lic"`
}

type apiResponse struct {
	Recordings []apiRecording `json:"recordings"`
}

// Recordings fetches recording metadata for a species. The quality allow-list
// is applied before truncating to limit, so a page of low-quality results
// never crowds out acceptable ones.
func (c *Client) Recordings(ctx context.Context, genus, species string, limit int) ([]dataset.Recording, error) {
	genus = strings.TrimSpace(genus)
	species = strings.TrimSpace(species)
	if genus == "" || species == "" {
		return nil, fmt.Errorf("genus and species must not be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	params := url.Values{}
	params.Set("query", fmt.Sprintf("gen:%s sp:%s", genus, species))
	params.Set("key", c.apiKey)
	params.Set("per_page", strconv.Itoa(limit))

	c.logger.Debug("fetching recordings",
		logging.String("genus", genus),
		logging.String("species_epithet", species))

	var resp apiResponse
	if err := c.fetch.GetJSON(ctx, "", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch recordings for %s %s: %w", genus, species, err)
	}

	filtered := resp.Recordings
	if len(c.qualityGrades) > 0 {
		filtered = filtered[:0:0]
		for _, rec := range resp.Recordings {
			if slices.Contains(c.qualityGrades, rec.Quality) {
				filtered = append(filtered, rec)
			}
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	recordings := make([]dataset.Recording, 0, len(filtered))
	for _, rec := range filtered {
		recordings = append(recordings, normalize(rec))
	}

	c.logger.Info("found recordings",
		logging.String("genus", genus),
		logging.String("species_epithet", species),
		logging.Int(logging.FieldCount, len(recordings)))
	return recordings, nil
}

// DownloadURL returns the canonical audio download URL for a recording ID.
func DownloadURL(id string) string {
	return fmt.Sprintf("https://xeno-canto.org/%s/download", id)
}

func normalize(rec apiRecording) dataset.Recording {
	return dataset.Recording{
		ID:        rec.ID,
		Type:      valueOr(rec.Type, "call"),
		AudioURL:  DownloadURL(rec.ID),
		Quality:   valueOr(rec.Quality, "no score"),
		Duration:  valueOr(rec.Length, "Unknown"),
		Location:  valueOr(rec.Location, "Unknown"),
		Recordist: valueOr(rec.Recordist, "Unknown"),
		Date:      valueOr(rec.Date, "Unknown"),
		License:   valueOr(rec.License, "Unknown"),
	}
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
