package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	cfg := config.TMDBConfig{
		APIKey:       "test-api-key",
		BaseURL:      server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p",
		Language:     "en-US",
		Timeout:      5,
	}
	return NewClient(cfg, zerolog.Nop())
}

func floatPtr(f float64) *float64 { return &f }

func TestClient_Name(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	if client.Name() != "tmdb" {
		t.Errorf("Name() = %q, want %q", client.Name(), "tmdb")
	}
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"with key", "abc123", true},
		{"without key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.TMDBConfig{APIKey: tt.apiKey}, zerolog.Nop())
			if got := client.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("query") != "batman begins" {
			t.Errorf("unexpected query: %s", q.Get("query"))
		}
		if q.Get("api_key") != "test-api-key" {
			t.Errorf("unexpected api_key: %s", q.Get("api_key"))
		}
		if q.Get("language") != "en-US" {
			t.Errorf("unexpected language: %s", q.Get("language"))
		}

		poster := "/bb.jpg"
		json.NewEncoder(w).Encode(ResultsResponse{
			Page: 1,
			Results: []Result{
				{ID: 272, Title: "Batman Begins", ReleaseDate: "2005-06-10", VoteAverage: floatPtr(7.7), PosterPath: &poster},
				{ID: 268, Title: "Batman", ReleaseDate: "1989-06-21"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.Search(context.Background(), MediaMovie, "batman begins")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Title != "Batman Begins" {
		t.Errorf("results[0].Title = %q, want %q", results[0].Title, "Batman Begins")
	}
	if results[0].VoteAverage == nil || *results[0].VoteAverage != 7.7 {
		t.Errorf("results[0].VoteAverage = %v, want 7.7", results[0].VoteAverage)
	}
	if results[1].VoteAverage != nil {
		t.Errorf("results[1].VoteAverage = %v, want nil", *results[1].VoteAverage)
	}
	if results[1].PosterPath != nil {
		t.Errorf("results[1].PosterPath should be nil")
	}
}

func TestClient_Search_MissingResultsField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.Search(context.Background(), SearchMulti, "anything")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(results))
	}
}

func TestClient_Search_NoAPIKey(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	_, err := client.Search(context.Background(), MediaMovie, "Matrix")
	if err != ErrAPIKeyMissing {
		t.Errorf("Search() error = %v, want %v", err, ErrAPIKeyMissing)
	}
}

func TestClient_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, ErrAPIError},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(ErrorResponse{StatusCode: 7, StatusMessage: "nope"})
			}))
			defer server.Close()

			client := newTestClient(server)
			_, err := client.Search(context.Background(), MediaTV, "x")
			if !errors.Is(err, tt.want) {
				t.Errorf("Search() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.GetRecommendations(context.Background(), MediaMovie, 1)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("GetRecommendations() error = %v, want %v", err, ErrDecode)
	}
}

func TestClient_GetDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/1396" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("language") != "en-US" {
			t.Errorf("missing language parameter")
		}
		json.NewEncoder(w).Encode(Details{
			ID:             1396,
			Name:           "Breaking Bad",
			FirstAirDate:   "2008-01-20",
			VoteAverage:    floatPtr(8.9),
			Genres:         []Genre{{ID: 18, Name: "Drama"}},
			EpisodeRunTime: []int{47},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	details, err := client.GetDetails(context.Background(), MediaTV, 1396)
	if err != nil {
		t.Fatalf("GetDetails() error = %v", err)
	}
	if details.Name != "Breaking Bad" {
		t.Errorf("Name = %q, want %q", details.Name, "Breaking Bad")
	}
	if details.Title != "" {
		t.Errorf("Title = %q, want empty", details.Title)
	}
	if len(details.Genres) != 1 || details.Genres[0].Name != "Drama" {
		t.Errorf("Genres = %v", details.Genres)
	}
}

func TestClient_GetRecommendations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/155/recommendations" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ResultsResponse{
			Results: []Result{
				{ID: 272, MediaType: MediaMovie, Title: "Batman Begins", VoteAverage: floatPtr(7.7)},
				{ID: 27205, MediaType: MediaMovie, Title: "Inception", VoteAverage: floatPtr(8.4)},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.GetRecommendations(context.Background(), MediaMovie, 155)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("GetRecommendations() returned %d results, want 2", len(results))
	}
	// the client preserves API order; ranking happens above it
	if results[0].ID != 272 {
		t.Errorf("results[0].ID = %d, want 272", results[0].ID)
	}
}

func TestClient_Test(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"images":{"secure_base_url":"https://image.tmdb.org/t/p/"}}`))
	}))
	defer server.Close()

	if err := newTestClient(server).Test(context.Background()); err != nil {
		t.Errorf("Test() error = %v", err)
	}
}

func TestClient_GetImageURL(t *testing.T) {
	client := NewClient(config.TMDBConfig{ImageBaseURL: "https://image.tmdb.org/t/p"}, zerolog.Nop())

	if got := client.GetImageURL("/abc.jpg", ImageSizeThumbnail); got != "https://image.tmdb.org/t/p/w92/abc.jpg" {
		t.Errorf("GetImageURL() = %q", got)
	}
	if got := client.GetImageURL("", ImageSizePoster); got != "" {
		t.Errorf("GetImageURL(\"\") = %q, want empty", got)
	}
}

func TestBreakerClient_OpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewBreakerClient(newTestClient(server), config.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.5,
	}, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := client.Search(context.Background(), MediaMovie, "x")
		if !errors.Is(err, ErrAPIError) {
			t.Fatalf("attempt %d: error = %v, want %v", i, err, ErrAPIError)
		}
	}

	_, err := client.Search(context.Background(), MediaMovie, "x")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want %v", err, ErrCircuitOpen)
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3", hits.Load())
	}
	if client.State() != "open" {
		t.Errorf("State() = %q, want open", client.State())
	}
}

func TestBreakerClient_NotFoundDoesNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewBreakerClient(newTestClient(server), config.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := client.GetDetails(context.Background(), MediaMovie, 1)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("attempt %d: error = %v, want %v", i, err, ErrNotFound)
		}
	}
	if client.State() != "closed" {
		t.Errorf("State() = %q, want closed", client.State())
	}
}
