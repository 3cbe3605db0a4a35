// Package inaturalist fetches species photos from the iNaturalist
// observations API. Photos come from research-grade observations ordered by
// community votes, one photo per observation.
package inaturalist

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"warbler/internal/dataset"
	"warbler/internal/fetch"
	"warbler/internal/logging"
)

// Tag identifies this photo source in configuration and dataset records.
const Tag = "inaturalist"

// maxPerPage caps the observation page size regardless of the configured
// photo limit.
const maxPerPage = 50

// Client queries the iNaturalist taxa and observations endpoints.
type Client struct {
	fetch  *fetch.Client
	logger *slog.Logger
}

func New(client *fetch.Client, logger *slog.Logger) *Client {
	return &Client{
		fetch:  client,
		logger: logging.NewComponentLogger(logger, "inaturalist"),
	}
}

// Tag reports the photo-source tag for dataset attribution.
func (c *Client) Tag() string { return Tag }

type taxaResponse struct {
	Results []struct {
		ID int `json:"id"`
	} `json:"results"`
}

type observationsResponse struct {
	Results []struct {
		ID           int    `json:"id"`
		QualityGrade string `json:"quality_grade"`
		User         struct {
			Name  string `json:"name"`
			Login string `json:"login"`
		} `json:"user"`
		Photos []struct {
			URL         string `json:"url"`
			LicenseCode string `json:"license_code"`
		} `json:"photos"`
	} `json:"results"`
}

// Photos fetches up to limit photos for a species. The scientific name drives
// the taxa lookup; the common name is unused by this source. A species with
// no matching taxon yields an empty slice, not an error.
func (c *Client) Photos(ctx context.Context, scientificName, commonName string, limit int) ([]dataset.Photo, error) {
	scientificName = strings.TrimSpace(scientificName)
	if scientificName == "" {
		return nil, fmt.Errorf("scientific name must not be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	taxonID, err := c.taxonID(ctx, scientificName)
	if err != nil {
		return nil, err
	}
	if taxonID == 0 {
		c.logger.Warn("no taxon found", logging.String("scientific_name", scientificName))
		return nil, nil
	}

	photos, err := c.observationPhotos(ctx, taxonID, limit)
	if err != nil {
		return nil, err
	}

	c.logger.Info("found photos",
		logging.String("scientific_name", scientificName),
		logging.Int(logging.FieldCount, len(photos)))
	return photos, nil
}

func (c *Client) taxonID(ctx context.Context, scientificName string) (int, error) {
	params := url.Values{}
	params.Set("q", scientificName)
	params.Set("rank", "species")
	params.Set("is_active", "true")

	var resp taxaResponse
	if err := c.fetch.GetJSON(ctx, "taxa", params, &resp); err != nil {
		return 0, fmt.Errorf("look up taxon for %q: %w", scientificName, err)
	}
	if len(resp.Results) == 0 {
		return 0, nil
	}
	// First result is the best match.
	return resp.Results[0].ID, nil
}

func (c *Client) observationPhotos(ctx context.Context, taxonID, limit int) ([]dataset.Photo, error) {
	perPage := limit * 2
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	params := url.Values{}
	params.Set("taxon_id", strconv.Itoa(taxonID))
	params.Set("quality_grade", "research")
	params.Set("has[]", "photos")
	params.Set("order", "desc")
	params.Set("order_by", "votes")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("locale", "en")

	var resp observationsResponse
	if err := c.fetch.GetJSON(ctx, "observations", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch observations for taxon %d: %w", taxonID, err)
	}

	photos := make([]dataset.Photo, 0, limit)
	seen := make(map[string]struct{})

	for _, obs := range resp.Results {
		if len(photos) >= limit {
			break
		}
		if len(obs.Photos) == 0 {
			continue
		}

		// The first photo of an observation is its representative shot.
		photo := obs.Photos[0]
		if photo.URL == "" {
			continue
		}
		if _, dup := seen[photo.URL]; dup {
			continue
		}
		seen[photo.URL] = struct{}{}

		attribution := obs.User.Name
		if attribution == "" {
			attribution = obs.User.Login
		}
		if attribution == "" {
			attribution = "Unknown"
		}

		license := photo.LicenseCode
		if license == "" {
			license = "all-rights-reserved"
		}

		photos = append(photos, dataset.Photo{
			URL:            strings.Replace(photo.URL, "square", "medium", 1),
			Source:         Tag,
			License:        license,
			Attribution:    attribution,
			ObservationURL: fmt.Sprintf("https://www.inaturalist.org/observations/%d", obs.ID),
		})
	}
	return photos, nil
}
