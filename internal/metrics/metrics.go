// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Update pipeline runs partitioned by outcome ("success" or an error kind)
	// and whether the body came from the cache.
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelsurcharge_pipeline_runs_total",
			Help: "Update pipeline runs by outcome",
		},
		[]string{"outcome", "from_cache"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fuelsurcharge_pipeline_duration_seconds",
			Help:    "Update pipeline latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Records written by the upsert, partitioned by result
	// (inserted, updated, skipped, errors).
	RecordsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelsurcharge_records_total",
			Help: "Price records processed by the upsert",
		},
		[]string{"result"},
	)

	FetchAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fuelsurcharge_fetch_attempts_total",
			Help: "HTTP attempts made against the price API",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelsurcharge_cache_lookups_total",
			Help: "Price cache lookups by result",
		},
		[]string{"result"},
	)

	// Total HTTP requests partitioned by method, route, and status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
