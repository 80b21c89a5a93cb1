package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider metrics
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_provider_requests_total",
			Help: "Total number of outbound provider requests",
		},
		[]string{"provider", "status"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsdesk_provider_request_duration_seconds",
			Help:    "Provider request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ArticlesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_articles_dropped_total",
			Help: "Articles dropped during normalization",
		},
		[]string{"provider", "reason"},
	)

	// Cache metrics
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_cache_lookups_total",
			Help: "Aggregation cache lookups by result",
		},
		[]string{"kind", "result"},
	)

	// Aggregator metrics
	CollectionUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_collection_updates_total",
			Help: "Collection fetch completions by outcome",
		},
		[]string{"outcome"},
	)

	RefreshRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_refresh_runs_total",
			Help: "Number of full refresh cycles started",
		},
	)

	// Preference store metrics
	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_preference_persist_failures_total",
			Help: "Preference writes that failed after retry",
		},
	)
)
