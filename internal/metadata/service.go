package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinematch/cinematch/internal/metadata/tmdb"
	"github.com/cinematch/cinematch/internal/metrics"
)

// Result caps applied after filtering and ranking.
const (
	MaxSearchResults         = 10
	MaxRecommendationResults = 20
)

// Service dispatches searches and resolves recommendations against the catalog.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	catalog CatalogClient
	logger  zerolog.Logger
}

// NewService creates a new metadata service backed by catalog.
func NewService(catalog CatalogClient, logger zerolog.Logger) *Service {
	return &Service{
		catalog: catalog,
		logger:  logger.With().Str("component", "metadata").Logger(),
	}
}

// CatalogName returns the name of the backing catalog.
func (s *Service) CatalogName() string {
	return s.catalog.Name()
}

// CatalogConfigured reports whether the catalog has credentials.
func (s *Service) CatalogConfigured() bool {
	return s.catalog.IsConfigured()
}

// Probe checks catalog connectivity.
func (s *Service) Probe(ctx context.Context) error {
	return s.catalog.Test(ctx)
}

// Search runs q against the catalog. Blank text returns an empty list without
// a network call. Person results are dropped and the rest keep API order, capped
// at MaxSearchResults.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]MediaItem, error) {
	if strings.TrimSpace(q.Text) == "" {
		return []MediaItem{}, nil
	}

	filter := q.Filter
	if filter == "" {
		filter = FilterMovie
	}
	if _, err := ParseSearchFilter(string(filter)); err != nil {
		return nil, err
	}

	results, err := s.catalog.Search(ctx, filter.endpoint(), q.Text)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(string(filter), outcome(ctx, err)).Inc()
		s.logger.Warn().Err(err).Str("query", q.Text).Str("filter", string(filter)).Msg("Search failed")
		return nil, fmt.Errorf("%w: %w", ErrAPIConnection, err)
	}

	items := make([]MediaItem, 0, min(len(results), MaxSearchResults))
	for _, r := range results {
		if r.MediaType == tmdb.MediaPerson {
			continue
		}
		items = append(items, s.toMediaItem(r, filter.fallbackType()))
		if len(items) == MaxSearchResults {
			break
		}
	}

	metrics.SearchesTotal.WithLabelValues(string(filter), "success").Inc()
	s.logger.Debug().
		Str("query", q.Text).
		Str("filter", string(filter)).
		Int("received", len(results)).
		Int("returned", len(items)).
		Msg("Search completed")

	return items, nil
}

// Resolve fetches the details and recommendations of one item concurrently.
// Either fetch failing fails the pair with a *ResolveError. Recommendations are
// ranked and capped at MaxRecommendationResults.
func (s *Service) Resolve(ctx context.Context, id int, mediaType MediaType) (*SelectedItem, []MediaItem, error) {
	if !mediaType.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mediaType)
	}

	var (
		details *tmdb.Details
		results []tmdb.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.catalog.GetDetails(gctx, string(mediaType), id)
		if err != nil {
			return fmt.Errorf("%w: fetch details: %w", ErrAPIConnection, err)
		}
		details = d
		return nil
	})
	g.Go(func() error {
		r, err := s.catalog.GetRecommendations(gctx, string(mediaType), id)
		if err != nil {
			return fmt.Errorf("%w: fetch recommendations: %w", ErrAPIConnection, err)
		}
		results = r
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.ResolvesTotal.WithLabelValues(string(mediaType), outcome(ctx, err)).Inc()
		s.logger.Warn().Err(err).Int("id", id).Str("mediaType", string(mediaType)).Msg("Resolve failed")
		return nil, nil, &ResolveError{ID: id, MediaType: mediaType, Err: err}
	}

	selected := s.toSelectedItem(details, mediaType)

	items := make([]MediaItem, 0, len(results))
	for _, r := range results {
		items = append(items, s.toMediaItem(r, mediaType))
	}
	ranked := RankRecommendations(items)
	if len(ranked) > MaxRecommendationResults {
		ranked = ranked[:MaxRecommendationResults]
	}

	metrics.ResolvesTotal.WithLabelValues(string(mediaType), "success").Inc()
	s.logger.Debug().
		Int("id", id).
		Str("mediaType", string(mediaType)).
		Str("title", selected.Title).
		Int("recommendations", len(ranked)).
		Msg("Resolve completed")

	return selected, ranked, nil
}

func outcome(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, tmdb.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}
