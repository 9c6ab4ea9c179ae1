// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

// Package metrics exposes Prometheus instrumentation for recommendation runs,
// the catalog store, snapshots, events and the HTTP API.
//
// Metrics are served at /metrics in Prometheus text format.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/peerrec/internal/recommend"
)

const namespace = "peerrec"

var (
	// Recommendation runs
	RecommendRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_runs_total",
			Help:      "Total recommendation runs by status",
		},
		[]string{"status"}, // success, failure, dry_run
	)

	RecommendRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_run_duration_seconds",
			Help:      "Duration of recommendation runs including store I/O",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	RecommendSlots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recommend_slots",
			Help:      "Attribute permutations in the last successful run",
		},
	)

	RecommendCatalogRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recommend_catalog_records",
			Help:      "Catalog records read by the last successful run",
		},
	)

	RecommendFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_fallbacks_total",
			Help:      "Short slots by fallback outcome",
		},
		[]string{"kind"}, // peer, global, deferred
	)

	RecommendDegradedSlots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recommend_degraded_slots",
			Help:      "Slots shorter than k in the last successful run",
		},
	)

	RecommendLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recommend_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		},
	)

	// Store
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Duration of store operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_query_errors_total",
			Help:      "Total failed store operations",
		},
		[]string{"operation", "table"},
	)

	StoreCircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_circuit_breaker_state",
			Help:      "Store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	StoreCircuitBreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_circuit_breaker_rejections_total",
			Help:      "Store calls rejected by an open circuit breaker",
		},
		[]string{"name"},
	)

	// Snapshots and events
	SnapshotSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Snapshot saves by status",
		},
		[]string{"status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Run events published by status",
		},
		[]string{"status"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APICacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_cache_lookups_total",
			Help:      "Recommendation cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)
)

// RecordDBQuery records one store operation.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records one API request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCacheLookup records a recommendation cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		APICacheLookups.WithLabelValues("hit").Inc()
		return
	}
	APICacheLookups.WithLabelValues("miss").Inc()
}

// RecordSnapshotSave records a snapshot save attempt.
func RecordSnapshotSave(err error) {
	SnapshotSaves.WithLabelValues(status(err)).Inc()
}

// RecordEventPublish records an event publish attempt.
func RecordEventPublish(err error) {
	EventsPublished.WithLabelValues(status(err)).Inc()
}

// SetCircuitBreakerState records a breaker state: 0 closed, 1 half-open, 2 open.
func SetCircuitBreakerState(name string, state int) {
	StoreCircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerRejection counts a call rejected by an open breaker.
func RecordCircuitBreakerRejection(name string) {
	StoreCircuitBreakerRejections.WithLabelValues(name).Inc()
}

// RecordRecommendRun records the outcome of one run.
func RecordRecommendRun(report *recommend.RunReport) {
	RecommendRunDuration.Observe(report.Duration.Seconds())

	switch {
	case !report.Succeeded():
		RecommendRunsTotal.WithLabelValues("failure").Inc()
		return
	case report.DryRun:
		RecommendRunsTotal.WithLabelValues("dry_run").Inc()
	default:
		RecommendRunsTotal.WithLabelValues("success").Inc()
		RecommendLastSuccess.Set(float64(report.CompletedAt.Unix()))
	}

	RecommendSlots.Set(float64(report.Slots))
	RecommendCatalogRecords.Set(float64(report.Records))
	RecommendDegradedSlots.Set(float64(report.Fallbacks.Degraded))
	RecommendFallbacks.WithLabelValues("peer").Add(float64(report.Fallbacks.PeerBorrowed))
	RecommendFallbacks.WithLabelValues("global").Add(float64(report.Fallbacks.GlobalFilled))
	RecommendFallbacks.WithLabelValues("deferred").Add(float64(report.Fallbacks.Deferred))
}

// RunListener records every finished run.
type RunListener struct{}

// OnRunFinished implements recommend.RunListener.
func (RunListener) OnRunFinished(_ context.Context, report *recommend.RunReport) error {
	RecordRecommendRun(report)
	return nil
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
