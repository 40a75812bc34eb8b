package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Funnel stages reported by MatchStageSurvivors
const (
	StageFetched  = "fetched"
	StageTrigram  = "trigram"
	StageSalient  = "salient"
	StageAdvanced = "advanced"
)

// Cache lookup results reported by CacheLookups
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	MatchStageSurvivors = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitchenledger_match_stage_survivors",
			Help:    "Candidates remaining after each stage of the match funnel",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"stage"},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kitchenledger_match_duration_seconds",
			Help:    "Duration of one fuzzy match call in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MappingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchenledger_mapping_decisions_total",
			Help: "Vendor item mapping outcomes by state",
		},
		[]string{"state"},
	)

	UnitCostFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchenledger_unit_cost_failures_total",
			Help: "Unit cost calculations that could not be completed",
		},
		[]string{"reason"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchenledger_cache_lookups_total",
			Help: "Match cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchenledger_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitchenledger_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
