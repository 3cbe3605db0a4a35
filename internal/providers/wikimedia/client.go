// Package wikimedia fetches species photos from the Wikimedia Commons
// MediaWiki API. Search results are over-fetched and aggressively filtered:
// icons, maps, diagrams, and other non-photographic files dominate Commons
// search output for species names.
package wikimedia

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"warbler/internal/dataset"
	"warbler/internal/fetch"
	"warbler/internal/logging"
)

// Tag identifies this photo source in configuration and dataset records.
const Tag = "wikimedia"

// Options configure the Commons search filters.
type Options struct {
	// MinBytes screens out small files, which are almost always icons.
	MinBytes int64
	// SkipKeywords excludes files whose title contains any entry.
	SkipKeywords []string
}

// Client queries the Wikimedia Commons search API.
type Client struct {
	fetch  *fetch.Client
	opts   Options
	logger *slog.Logger
}

func New(client *fetch.Client, opts Options, logger *slog.Logger) *Client {
	return &Client{
		fetch:  client,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "wikimedia"),
	}
}

// Tag reports the photo-source tag for dataset attribution.
func (c *Client) Tag() string { return Tag }

type searchPage struct {
	PageID    int64  `json:"pageid"`
	Index     int    `json:"index"`
	Title     string `json:"title"`
	ImageInfo []struct {
		URL         string `json:"url"`
		Size        int64  `json:"size"`
		Mime        string `json:"mime"`
		ExtMetadata struct {
			LicenseShortName struct {
				Value string `json:"value"`
			} `json:"LicenseShortName"`
			Artist struct {
				Value string `json:"value"`
			} `json:"Artist"`
		} `json:"extmetadata"`
	} `json:"imageinfo"`
}

type searchResponse struct {
	Query struct {
		Pages map[string]searchPage `json:"pages"`
	} `json:"query"`
}

// Photos fetches up to limit photos. The scientific name is the primary
// search query; when it yields nothing and the common name differs, the
// common name is tried as a fallback.
func (c *Client) Photos(ctx context.Context, scientificName, commonName string, limit int) ([]dataset.Photo, error) {
	scientificName = strings.TrimSpace(scientificName)
	if scientificName == "" {
		return nil, fmt.Errorf("scientific name must not be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	photos, err := c.search(ctx, scientificName, limit)
	if err != nil {
		return nil, err
	}

	fallback := strings.TrimSpace(commonName)
	if len(photos) == 0 && fallback != "" && fallback != scientificName {
		c.logger.Info("no photos for scientific name, trying common name",
			logging.String("query", fallback))
		photos, err = c.search(ctx, fallback, limit)
		if err != nil {
			return nil, err
		}
	}

	c.logger.Info("found photos",
		logging.String("scientific_name", scientificName),
		logging.Int(logging.FieldCount, len(photos)))
	return photos, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]dataset.Photo, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrnamespace", "6")
	// Over-fetch: most results fall to the MIME, size, and keyword filters.
	params.Set("gsrlimit", strconv.Itoa(limit*3))
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|size|mime|extmetadata")
	params.Set("iiurlwidth", "1024")

	var resp searchResponse
	if err := c.fetch.GetJSON(ctx, "", params, &resp); err != nil {
		return nil, fmt.Errorf("search commons for %q: %w", query, err)
	}

	// The API keys pages by ID in a JSON object, which decodes into an
	// unordered map. Each page carries the generator's search rank in
	// its index field; restore that order before filtering so identical
	// responses always yield the same photos.
	pages := make([]searchPage, 0, len(resp.Query.Pages))
	for _, page := range resp.Query.Pages {
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Index != pages[j].Index {
			return pages[i].Index < pages[j].Index
		}
		return pages[i].PageID < pages[j].PageID
	})

	photos := make([]dataset.Photo, 0, limit)
	seen := make(map[string]struct{})

	for _, page := range pages {
		if len(photos) >= limit {
			break
		}
		if len(page.ImageInfo) == 0 {
			continue
		}
		info := page.ImageInfo[0]

		if !strings.HasPrefix(info.Mime, "image/") {
			continue
		}
		if info.Size < c.opts.MinBytes {
			continue
		}
		if c.titleExcluded(page.Title) {
			c.logger.Debug("skipping file", logging.String("title", page.Title))
			continue
		}
		if info.URL == "" {
			continue
		}
		if _, dup := seen[info.URL]; dup {
			continue
		}
		seen[info.URL] = struct{}{}

		license := info.ExtMetadata.LicenseShortName.Value
		if license == "" {
			license = "Unknown"
		}
		attribution := info.ExtMetadata.Artist.Value
		if attribution == "" {
			attribution = "Unknown"
		}

		photos = append(photos, dataset.Photo{
			URL:         info.URL,
			Source:      Tag,
			License:     license,
			Attribution: attribution,
		})
	}
	return photos, nil
}

func (c *Client) titleExcluded(title string) bool {
	title = strings.ToLower(title)
	for _, keyword := range c.opts.SkipKeywords {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}
