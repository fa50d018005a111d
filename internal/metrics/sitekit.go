package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitekit"

// Completion proxy metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Total number of chat completion requests by outcome",
		},
		[]string{"model", "outcome"}, // "ok" or a failure kind
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_request_duration_seconds",
			Help:      "Chat completion round-trip duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	SecretCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "secret_cache_total",
			Help:      "Secret cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Search filter metrics.
var (
	FilterAppliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_applies_total",
			Help:      "Total number of search filter applies by result",
		},
		[]string{"result"}, // applied, cleared, failed, superseded, unknown_category
	)

	FilterApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_apply_duration_seconds",
			Help:      "Time spent querying the catalog for a filter apply",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	PageSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "page_sessions_active",
			Help:      "Number of live page sessions",
		},
	)
)

var registerOnce sync.Once

// RegisterDomainMetrics registers completion and search metrics. Safe to call more than once.
func RegisterDomainMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(CompletionRequestsTotal)
		prometheus.MustRegister(CompletionRequestDuration)
		prometheus.MustRegister(SecretCacheTotal)
		prometheus.MustRegister(FilterAppliesTotal)
		prometheus.MustRegister(FilterApplyDuration)
		prometheus.MustRegister(PageSessionsActive)
	})
}
