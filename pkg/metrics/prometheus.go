// Package metrics provides Prometheus metrics for the leaderboard and
// achievement engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Snapshot pipeline
	snapshotsUpserted prometheus.Counter
	computeDuration   prometheus.Histogram
	computeErrors     prometheus.Counter
	leaderboardSize   *prometheus.GaugeVec
	leaderboardReads  prometheus.Counter

	// Achievement path
	badgesAwarded   *prometheus.CounterVec
	badgesDuplicate prometheus.Counter
	awardErrors     prometheus.Counter

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sss",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.snapshotsUpserted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_upserted_total",
		Help:      "Total number of snapshot upserts (insert or same-day overwrite)",
	})

	m.computeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compute_duration_milliseconds",
		Help:      "Histogram of aggregate+rank pipeline duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.computeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compute_errors_total",
		Help:      "Total number of failed leaderboard computations",
	})

	m.leaderboardSize = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "entries",
			Help:      "Number of ranked entries in the last computed board per period and scope",
		},
		[]string{"period", "scope"},
	)

	m.leaderboardReads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reads_total",
		Help:      "Total number of leaderboard page reads served",
	})

	m.badgesAwarded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "badges",
			Name:      "awarded_total",
			Help:      "Total number of badges awarded, by slug",
		},
		[]string{"slug"},
	)

	m.badgesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "badges",
		Name:      "duplicate_total",
		Help:      "Total number of award attempts resolved as already-held no-ops",
	})

	m.awardErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "badges",
		Name:      "award_errors_total",
		Help:      "Total number of award attempts swallowed due to store failures",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status code",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_milliseconds",
			Help:      "Histogram of HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method"},
	)
}

// RecordSnapshotUpserted increments the snapshot upsert counter.
func RecordSnapshotUpserted() {
	globalManager.snapshotsUpserted.Inc()
}

// RecordComputeDuration records one aggregate+rank pipeline run.
func RecordComputeDuration(d time.Duration) {
	globalManager.computeDuration.Observe(float64(d.Milliseconds()))
}

// RecordComputeError increments the compute error counter.
func RecordComputeError() {
	globalManager.computeErrors.Inc()
}

// UpdateLeaderboardSize sets the entry count of the last computed board.
func UpdateLeaderboardSize(period, scope string, n int) {
	globalManager.leaderboardSize.WithLabelValues(period, scope).Set(float64(n))
}

// RecordLeaderboardRead increments the read counter.
func RecordLeaderboardRead() {
	globalManager.leaderboardReads.Inc()
}

// RecordBadgeAwarded increments the award counter for a slug.
func RecordBadgeAwarded(slug string) {
	globalManager.badgesAwarded.WithLabelValues(slug).Inc()
}

// RecordBadgeDuplicate increments the duplicate-award counter.
func RecordBadgeDuplicate() {
	globalManager.badgesDuplicate.Inc()
}

// RecordAwardError increments the swallowed-award-failure counter.
func RecordAwardError() {
	globalManager.awardErrors.Inc()
}

// RecordHTTPRequest increments the request counter for one endpoint.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one request's duration.
func RecordHTTPRequestDuration(endpoint, method string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
