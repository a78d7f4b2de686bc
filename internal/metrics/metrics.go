// Package metrics registers Cortex's Prometheus instrumentation:
// one counter/histogram pair per memory/category operation, grounded
// on the teacher's internal/security/metrics.go promauto pattern
// (store-operation latency histogram, request counters), generalized
// from HTTP-request labels to Cortex operation names.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ReindexWarnings   prometheus.Counter
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
)

var once sync.Once

// Init registers Cortex's metrics with the default registerer. Safe to
// call multiple times; only the first call registers.
func Init() {
	once.Do(func() {
		OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cortex_operations_total",
			Help: "Total number of memory/category operations, by operation and outcome.",
		}, []string{"operation", "outcome"})

		OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cortex_operation_duration_seconds",
			Help:    "Operation latency in seconds, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"})

		ReindexWarnings = promauto.NewCounter(prometheus.CounterOpts{
			Name: "cortex_reindex_warnings_total",
			Help: "Total warnings emitted across all reindex runs (malformed memory files skipped).",
		})

		CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "cortex_index_cache_hits_total",
			Help: "Total category-index cache hits in the filesystem adapter.",
		})

		CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "cortex_index_cache_misses_total",
			Help: "Total category-index cache misses in the filesystem adapter.",
		})
	})
}

// CacheHit and CacheMiss are nil-safe: they no-op until Init has run,
// so the index cache can record hits/misses without the CLI having to
// initialize Prometheus for a one-shot command.
func CacheHit() {
	if CacheHitsTotal != nil {
		CacheHitsTotal.Inc()
	}
}

func CacheMiss() {
	if CacheMissesTotal != nil {
		CacheMissesTotal.Inc()
	}
}

// AddReindexWarnings is nil-safe like CacheHit/CacheMiss.
func AddReindexWarnings(n int) {
	if ReindexWarnings != nil && n > 0 {
		ReindexWarnings.Add(float64(n))
	}
}

// Observe records the outcome and latency of a single operation call.
// outcome is typically "ok" or an error code string. A no-op until
// Init has been called (daemon/CLI call Init at startup).
func Observe(operation, outcome string, start time.Time) {
	if OperationsTotal == nil || OperationDuration == nil {
		return
	}
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
