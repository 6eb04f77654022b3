package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for logtrail
var (
	// Record counters
	RecordsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logtrail_records_received_total",
		Help: "Total number of log records read from input",
	})

	RecordsInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logtrail_records_invalid_total",
		Help: "Total number of input lines that could not be decoded",
	})

	RecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logtrail_records_written_total",
			Help: "Total number of records written by appender",
		},
		[]string{"appender"},
	)

	AppendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logtrail_append_errors_total",
			Help: "Total number of records an appender failed to write",
		},
		[]string{"appender"},
	)

	RecordsRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logtrail_records_rate_limited_total",
		Help: "Total number of records rejected by the rate limiter",
	})

	RecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logtrail_records_dropped_total",
		Help: "Total number of records dropped because the async queue was full",
	})

	// Error flattening
	AggregateErrorsFlattened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logtrail_aggregate_errors_flattened_total",
		Help: "Total number of aggregate errors rendered with their causes",
	})

	// Migrations
	MigrationsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logtrail_migrations_applied_total",
			Help: "Total number of migration functions applied, by version",
		},
		[]string{"version"},
	)

	MigrationChainCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logtrail_migration_chain_cache_lookups_total",
			Help: "Total number of migration chain cache lookups",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	// Gauges for current state
	AsyncQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logtrail_async_queue_depth",
		Help: "Number of records waiting in the async appender queue",
	})

	// Histogram for layout rendering latency
	FormatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "logtrail_format_duration_seconds",
		Help:    "Time spent rendering a record through its layout",
		Buckets: prometheus.ExponentialBuckets(0.000001, 2, 12), // 1µs to ~4ms
	})
)

// RecordAppend records the outcome of one appender write
func RecordAppend(appender string, err error) {
	if err != nil {
		AppendErrors.WithLabelValues(appender).Inc()
		return
	}
	RecordsWritten.WithLabelValues(appender).Inc()
}

// RecordMigration records one applied migration function
func RecordMigration(version string) {
	MigrationsApplied.WithLabelValues(version).Inc()
}

// RecordCacheHit records a migration chain cache hit
func RecordCacheHit() {
	MigrationChainCache.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a migration chain cache miss
func RecordCacheMiss() {
	MigrationChainCache.WithLabelValues("miss").Inc()
}
