// Package wikipedia fetches species descriptions from the Wikipedia REST
// summary endpoint.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"warbler/internal/fetch"
	"warbler/internal/logging"
)

// Summary is the subset of the REST summary response the collector keeps.
type Summary struct {
	Title   string
	Extract string
	URL     string
}

// Client queries the Wikipedia REST API.
type Client struct {
	fetch  *fetch.Client
	logger *slog.Logger
}

func New(client *fetch.Client, logger *slog.Logger) *Client {
	return &Client{
		fetch:  client,
		logger: logging.NewComponentLogger(logger, "wikipedia"),
	}
}

type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary fetches the article summary for title. A missing article (HTTP 404)
// is not an error: it returns (nil, nil) so the caller can proceed without a
// description. Other failures propagate.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}

	c.logger.Debug("fetching summary", logging.String("title", title))

	var resp summaryResponse
	err := c.fetch.GetJSON(ctx, url.PathEscape(title), nil, &resp)
	if err != nil {
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			c.logger.Info("no article found", logging.String("title", title))
			return nil, nil
		}
		return nil, fmt.Errorf("fetch summary for %q: %w", title, err)
	}

	if resp.Extract == "" {
		c.logger.Info("article has no summary", logging.String("title", title))
		return nil, nil
	}

	summary := &Summary{
		Title:   resp.Title,
		Extract: resp.Extract,
		URL:     resp.ContentURLs.Desktop.Page,
	}
	if summary.Title == "" {
		summary.Title = title
	}

	c.logger.Info("found summary", logging.String("title", title))
	return summary, nil
}
