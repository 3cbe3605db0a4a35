// Package fetch provides the bounded HTTP client every provider borrows:
// shared user agent, timeout, request rate limiting, URL normalization, and
// retry with exponential backoff on transport failures.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"warbler/internal/logging"
	"warbler/internal/retry"
)

// ErrDecode marks a successful response whose body could not be parsed.
// Decode failures are never retried; the transfer already succeeded.
var ErrDecode = errors.New("decode response body")

// ErrEmptyFile marks a download that produced a zero-byte file. The empty
// file is removed before the error is returned.
var ErrEmptyFile = errors.New("downloaded file is empty")

// StatusError reports a non-2xx response status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.StatusCode)
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	Retry             retry.Policy
	RequestsPerSecond float64
	ChunkSize         int
	Logger            *slog.Logger
}

// Client issues GET requests and streamed downloads on behalf of the
// provider clients and the media downloader.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
	chunkSize  int
	logger     *slog.Logger
}

// NewClient builds a Client from options, filling unset fields with safe
// defaults.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	policy := opts.Retry
	if policy.MaxAttempts < 1 {
		policy = retry.DefaultPolicy()
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		userAgent:  strings.TrimSpace(opts.UserAgent),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		policy:     policy,
		chunkSize:  chunkSize,
		logger:     logging.NewComponentLogger(opts.Logger, "fetch"),
	}
}

// NormalizeURL rewrites protocol-relative URLs to https.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}

func (c *Client) resolveURL(raw string, params url.Values) (string, error) {
	raw = NormalizeURL(strings.TrimSpace(raw))
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if c.baseURL == "" {
			return "", fmt.Errorf("relative url %q with no base url configured", raw)
		}
		if raw == "" {
			raw = c.baseURL
		} else {
			raw = c.baseURL + "/" + strings.TrimLeft(raw, "/")
		}
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if len(params) > 0 {
		query := parsed.Query()
		for key, values := range params {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func (c *Client) newRequest(ctx context.Context, target string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	// Caller headers win on conflicts, including User-Agent.
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// Get performs a GET request and returns the response body. Transport errors
// and non-2xx statuses are retried with exponential backoff before being
// surfaced.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) ([]byte, error) {
	target, err := c.resolveURL(rawURL, params)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("GET", logging.String(logging.FieldURL, target))

	var body []byte
	err = retry.Do(ctx, c.logger, "GET "+target, c.policy, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := c.newRequest(ctx, target, headers)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			// Drain so the connection can be reused across attempts.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return &StatusError{StatusCode: resp.StatusCode, URL: target}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON performs a GET request and unmarshals the body into v. A malformed
// body on a successful response is reported as ErrDecode and never retried.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	body, err := c.Get(ctx, rawURL, params, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Download streams the response body to dest, creating parent directories and
// overwriting any existing file. The whole transfer is the retry unit: a
// failure partway through restarts from byte zero. A zero-byte result is
// removed and reported as ErrEmptyFile. A Content-Length mismatch is logged
// as a warning but does not fail the download; providers are known to
// misreport length.
func (c *Client) Download(ctx context.Context, rawURL, dest string) error {
	target, err := c.resolveURL(rawURL, nil)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	c.logger.Debug("download",
		logging.String(logging.FieldURL, target),
		logging.String(logging.FieldPath, dest))

	err = retry.Do(ctx, c.logger, "download "+target, c.policy, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := c.newRequest(ctx, target, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return &StatusError{StatusCode: resp.StatusCode, URL: target}
		}

		out, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		written, err := io.CopyBuffer(out, resp.Body, make([]byte, c.chunkSize))
		if err != nil {
			out.Close()
			return fmt.Errorf("write file: %w", err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("close file: %w", err)
		}

		if resp.ContentLength > 0 && written != resp.ContentLength {
			c.logger.Warn("file size mismatch",
				logging.String(logging.FieldPath, dest),
				logging.Int64("expected_bytes", resp.ContentLength),
				logging.Int64("written_bytes", written))
		}
		return nil
	})
	if err != nil {
		return err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("stat downloaded file: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(dest)
		return fmt.Errorf("%w: %s", ErrEmptyFile, dest)
	}

	c.logger.Debug("downloaded",
		logging.String(logging.FieldPath, dest),
		logging.Int64("bytes", info.Size()))
	return nil
}
