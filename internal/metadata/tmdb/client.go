package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cinematch/cinematch/internal/config"
	"github.com/cinematch/cinematch/internal/metrics"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("TMDB resource not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
	ErrDecode        = errors.New("TMDB response could not be decoded")
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		limiter:    limiter,
		logger:     logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	var result struct {
		Images struct {
			SecureBaseURL string `json:"secure_base_url"`
		} `json:"images"`
	}

	return c.doRequest(ctx, "configuration", c.endpoint("configuration"), c.params(), &result)
}

// Search runs a search against /search/{kind}, where kind is movie, tv or multi.
// The results come back in the API's relevance order, unfiltered.
func (c *Client) Search(ctx context.Context, kind, query string) ([]Result, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params()
	params.Set("query", query)
	params.Set("language", c.language())

	var response ResultsResponse
	if err := c.doRequest(ctx, "search/"+kind, c.endpoint("search", kind), params, &response); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("kind", kind).
		Str("query", query).
		Int("results", len(response.Results)).
		Msg("Search completed")

	return response.Results, nil
}

// GetDetails gets the detail record of a movie or series.
func (c *Client) GetDetails(ctx context.Context, mediaType string, id int) (*Details, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params()
	params.Set("language", c.language())

	var details Details
	if err := c.doRequest(ctx, "details", c.endpoint(mediaType, strconv.Itoa(id)), params, &details); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("mediaType", mediaType).
		Int("id", id).
		Msg("Got details")

	return &details, nil
}

// GetRecommendations gets the recommendation list of a movie or series.
func (c *Client) GetRecommendations(ctx context.Context, mediaType string, id int) ([]Result, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params()
	params.Set("language", c.language())

	var response ResultsResponse
	endpoint := c.endpoint(mediaType, strconv.Itoa(id), "recommendations")
	if err := c.doRequest(ctx, "recommendations", endpoint, params, &response); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("mediaType", mediaType).
		Int("id", id).
		Int("results", len(response.Results)).
		Msg("Got recommendations")

	return response.Results, nil
}

// GetImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w200", "w342", "w500", "original"
func (c *Client) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

func (c *Client) endpoint(segments ...string) string {
	u := c.config.BaseURL
	for _, s := range segments {
		u += "/" + url.PathEscape(s)
	}
	return u
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	return params
}

func (c *Client) language() string {
	if c.config.Language == "" {
		return "en-US"
	}
	return c.config.Language
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, label, endpoint string, params url.Values, result interface{}) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.CatalogRequestsTotal.WithLabelValues(label, status).Inc()
		metrics.CatalogRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Str("url", endpoint).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return nil
}
