// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package metrics provides Prometheus instrumentation for the feed engine:
// request latency, plan cache efficiency, index pool health, session store
// errors, and hydration degradation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed serving

	FeedRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_request_duration_seconds",
			Help:    "Duration of feed generation requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.15, 0.25, 0.5, 1, 2.5},
		},
		[]string{"feed_type", "path"}, // path: "plan_hit" or "generated"
	)

	FeedPlanHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_plan_hits_total",
			Help: "Requests served entirely from the precomputed feed plan",
		},
	)

	FeedPlanMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_plan_misses_total",
			Help: "Requests that fell through to batch generation",
		},
	)

	FeedBucketShortfall = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_bucket_shortfall_total",
			Help: "Times a mixing bucket returned fewer candidates than its target",
		},
		[]string{"bucket"}, // trending, personalized, friend
	)

	FeedItemsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_served_total",
			Help: "Feed items returned to clients by source",
		},
		[]string{"source"},
	)

	// Index pool

	IndexPoolRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_pool_refreshes_total",
			Help: "Index pool loads by bucket and outcome",
		},
		[]string{"bucket", "outcome"}, // outcome: loaded, empty
	)

	IndexPoolSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "index_pool_size",
			Help: "Number of candidates in the most recently loaded pool",
		},
		[]string{"bucket"},
	)

	// Session store

	SessionStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_store_errors_total",
			Help: "Session store operation failures by operation",
		},
		[]string{"operation"},
	)

	SessionStoreGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_store_gc_runs_total",
			Help: "Value log garbage collection passes that reclaimed space",
		},
	)

	// Hydration

	HydrationStubs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hydration_stub_items_total",
			Help: "Feed items synthesized because the content dictionary had no entry",
		},
	)

	ContentDictionarySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "content_dictionary_size",
			Help: "Entries in the most recently loaded content dictionary",
		},
	)

	// HTTP layer

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// ObserveFeedRequest records one feed request observation.
func ObserveFeedRequest(feedType string, planHit bool, duration time.Duration) {
	path := "generated"
	if planHit {
		path = "plan_hit"
		FeedPlanHits.Inc()
	} else {
		FeedPlanMisses.Inc()
	}
	FeedRequestDuration.WithLabelValues(feedType, path).Observe(duration.Seconds())
}

// ObserveHTTPRequest records one HTTP request observation.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}
