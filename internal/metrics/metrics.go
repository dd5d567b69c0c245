// Package metrics provides Prometheus metrics for the directory connector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scimfile"

var (
	// RefreshTotal counts refresh attempts by outcome.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Total number of cache refreshes",
		},
		[]string{"status"},
	)

	// RefreshDuration measures refresh duration.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of cache refreshes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// CachedUsers reports the size of the generation being served.
	CachedUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_users",
			Help:      "Number of users in the current cache generation",
		},
	)

	// RowsSkipped counts source rows left out of the cache.
	RowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Source rows excluded from the cache",
		},
		[]string{"reason"},
	)

	// ArchiveFailures counts source files that could not be archived.
	ArchiveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_failures_total",
			Help:      "Source files that could not be copied to the processed folder",
		},
	)

	// QueriesTotal counts user queries by kind.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of user queries",
		},
		[]string{"kind"},
	)
)

// RecordRefresh records a finished refresh.
func RecordRefresh(status string, duration time.Duration) {
	RefreshTotal.WithLabelValues(status).Inc()
	RefreshDuration.Observe(duration.Seconds())
}

// RecordSkipped records rows excluded for reason.
func RecordSkipped(reason string, n int) {
	if n <= 0 {
		return
	}
	RowsSkipped.WithLabelValues(reason).Add(float64(n))
}

// SetCachedUsers sets the current cache size.
func SetCachedUsers(n int) {
	CachedUsers.Set(float64(n))
}

// RecordQuery records a user query of the given kind.
func RecordQuery(kind string) {
	QueriesTotal.WithLabelValues(kind).Inc()
}
