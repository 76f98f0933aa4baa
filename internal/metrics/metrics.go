// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinematch",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinematch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"})

	CatalogRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinematch",
		Name:      "catalog_requests_total",
		Help:      "Total requests to the catalog service by endpoint and result status.",
	}, []string{"endpoint", "status"})

	CatalogRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinematch",
		Name:      "catalog_request_duration_seconds",
		Help:      "Catalog service request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinematch",
		Name:      "searches_total",
		Help:      "Dispatched searches by media type filter and outcome.",
	}, []string{"filter", "outcome"})

	ResolvesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinematch",
		Name:      "resolves_total",
		Help:      "Recommendation resolves by media type and outcome.",
	}, []string{"media_type", "outcome"})

	StaleResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinematch",
		Name:      "stale_responses_total",
		Help:      "Responses discarded because a newer request superseded them.",
	}, []string{"kind"})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinematch",
		Name:      "active_sessions",
		Help:      "Number of live interaction sessions.",
	})

	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cinematch",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
	}, []string{"name"})

	CircuitBreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinematch",
		Name:      "circuit_breaker_transitions_total",
		Help:      "Circuit breaker state transitions.",
	}, []string{"name", "from", "to"})
)

// Register registers every collector with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CatalogRequestsTotal,
		CatalogRequestDuration,
		SearchesTotal,
		ResolvesTotal,
		StaleResponsesTotal,
		ActiveSessions,
		CircuitBreakerState,
		CircuitBreakerTransitions,
	)
}
