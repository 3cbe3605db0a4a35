package wikipedia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"warbler/internal/fetch"
	"warbler/internal/logging"
	"warbler/internal/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fc := fetch.NewClient(fetch.Options{
		BaseURL:           server.URL,
		Retry:             retry.Policy{MaxAttempts: 1},
		RequestsPerSecond: 1000,
		Logger:            logging.NewNop(),
	})
	return New(fc, logging.NewNop())
}

func TestSummaryFound(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"title":   "Northern cardinal",
			"extract": "The northern cardinal is a bird in the genus Cardinalis.",
			"content_urls": map[string]any{
				"desktop": map[string]any{
					"page": "https://en.wikipedia.org/wiki/Northern_cardinal",
				},
			},
		})
	})

	summary, err := client.Summary(context.Background(), "Northern Cardinal")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if gotPath != "/Northern%20Cardinal" {
		t.Fatalf("unexpected request path: %q", gotPath)
	}
	if summary.Title != "Northern cardinal" {
		t.Fatalf("unexpected title: %q", summary.Title)
	}
	if summary.URL != "https://en.wikipedia.org/wiki/Northern_cardinal" {
		t.Fatalf("unexpected url: %q", summary.URL)
	}
}

func TestSummaryNotFoundIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	summary, err := client.Summary(context.Background(), "No Such Bird")
	if err != nil {
		t.Fatalf("expected 404 to be tolerated, got error: %v", err)
	}
	if summary != nil {
		t.Fatalf("expected nil summary for missing article, got %+v", summary)
	}
}

func TestSummaryServerErrorPropagates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.Summary(context.Background(), "Blue Jay"); err == nil {
		t.Fatal("expected error for server failure")
	}
}

func TestSummaryEmptyExtract(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"title": "Stub"})
	})

	summary, err := client.Summary(context.Background(), "Stub")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary != nil {
		t.Fatal("expected nil summary when the article has no extract")
	}
}

func TestSummaryEmptyTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty title")
	})

	if _, err := client.Summary(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank title")
	}
}
