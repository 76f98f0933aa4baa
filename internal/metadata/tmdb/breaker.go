package tmdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cinematch/cinematch/internal/config"
	"github.com/cinematch/cinematch/internal/metrics"
)

// ErrCircuitOpen is returned while the breaker rejects catalog calls.
var ErrCircuitOpen = errors.New("TMDB circuit breaker is open")

// BreakerClient wraps Client with a circuit breaker so a failing catalog is
// shed quickly instead of stacking up hung requests. It never retries.
type BreakerClient struct {
	*Client
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger zerolog.Logger
}

// NewBreakerClient wraps client with a breaker configured by cfg.
func NewBreakerClient(client *Client, cfg config.BreakerConfig, logger zerolog.Logger) *BreakerClient {
	name := "tmdb-api"
	log := logger.With().Str("component", "tmdb").Str("breaker", name).Logger()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 10
	}
	ratio := cfg.FailureRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.6
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			// a missing title or a caller giving up says nothing about catalog health
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerClient{
		Client: client,
		cb:     cb,
		name:   name,
		logger: log,
	}
}

// State returns the breaker state as a string.
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}

// Search runs Client.Search through the breaker.
func (b *BreakerClient) Search(ctx context.Context, kind, query string) ([]Result, error) {
	result, err := b.execute(func() (any, error) {
		return b.Client.Search(ctx, kind, query)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Result), nil
}

// GetDetails runs Client.GetDetails through the breaker.
func (b *BreakerClient) GetDetails(ctx context.Context, mediaType string, id int) (*Details, error) {
	result, err := b.execute(func() (any, error) {
		return b.Client.GetDetails(ctx, mediaType, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Details), nil
}

// GetRecommendations runs Client.GetRecommendations through the breaker.
func (b *BreakerClient) GetRecommendations(ctx context.Context, mediaType string, id int) ([]Result, error) {
	result, err := b.execute(func() (any, error) {
		return b.Client.GetRecommendations(ctx, mediaType, id)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Result), nil
}

func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Warn().Err(err).Msg("Catalog request rejected by circuit breaker")
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		return nil, err
	}
	return result, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
