// Package testutil provides testing utilities shared across packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/config"
	"github.com/cinematch/cinematch/internal/metadata/tmdb"
)

// Catalog is a fake TMDB API served by httptest. Unknown paths return 404.
type Catalog struct {
	Server *httptest.Server

	mu              sync.Mutex
	searches        map[string][]tmdb.Result
	details         map[string]tmdb.Details
	recommendations map[string][]tmdb.Result
	failures        map[string]int
	requests        []string
}

// NewCatalog starts a fake catalog that is closed when the test ends.
func NewCatalog(t *testing.T) *Catalog {
	t.Helper()

	c := &Catalog{
		searches:        make(map[string][]tmdb.Result),
		details:         make(map[string]tmdb.Details),
		recommendations: make(map[string][]tmdb.Result),
		failures:        make(map[string]int),
	}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.Server.Close)
	return c
}

// Config returns a TMDB config pointing at the fake server.
func (c *Catalog) Config() config.TMDBConfig {
	return config.TMDBConfig{
		APIKey:       "test-key",
		BaseURL:      c.Server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p",
		Language:     "en-US",
		Timeout:      5,
	}
}

// Client returns a catalog client for the fake server.
func (c *Catalog) Client() *tmdb.Client {
	return tmdb.NewClient(c.Config(), zerolog.Nop())
}

// SetSearch sets the results of /search/{kind} for query.
func (c *Catalog) SetSearch(kind, query string, results ...tmdb.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches[kind+"|"+query] = results
}

// SetDetails sets the detail record served at /{mediaType}/{d.ID}.
func (c *Catalog) SetDetails(mediaType string, d tmdb.Details) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[fmt.Sprintf("/%s/%d", mediaType, d.ID)] = d
}

// SetRecommendations sets the list served at /{mediaType}/{id}/recommendations.
func (c *Catalog) SetRecommendations(mediaType string, id int, results ...tmdb.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recommendations[fmt.Sprintf("/%s/%d/recommendations", mediaType, id)] = results
}

// Fail makes requests to path answer with status.
func (c *Catalog) Fail(path string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[path] = status
}

// Requests returns the paths requested so far, in arrival order.
func (c *Catalog) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

func (c *Catalog) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.requests = append(c.requests, r.URL.Path)
	status, failing := c.failures[r.URL.Path]
	var body any
	switch {
	case failing:
	case strings.HasPrefix(r.URL.Path, "/search/"):
		kind := strings.TrimPrefix(r.URL.Path, "/search/")
		body = tmdb.ResultsResponse{Page: 1, Results: c.searches[kind+"|"+r.URL.Query().Get("query")]}
	case strings.HasSuffix(r.URL.Path, "/recommendations"):
		if results, ok := c.recommendations[r.URL.Path]; ok {
			body = tmdb.ResultsResponse{Page: 1, Results: results}
		}
	case r.URL.Path == "/configuration":
		body = map[string]any{"images": map[string]string{"secure_base_url": "https://image.tmdb.org/t/p/"}}
	default:
		if d, ok := c.details[r.URL.Path]; ok {
			body = d
		}
	}
	c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case failing:
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(tmdb.ErrorResponse{StatusCode: status, StatusMessage: "injected failure"})
	case body == nil:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(tmdb.ErrorResponse{StatusCode: 34, StatusMessage: "The resource you requested could not be found."})
	default:
		json.NewEncoder(w).Encode(body)
	}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// StringPtr returns a pointer to a string.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to a float64.
func Float64Ptr(f float64) *float64 {
	return &f
}
