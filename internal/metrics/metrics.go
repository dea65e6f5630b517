// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for a pipeline run:
// - Source reads (records, objects, malformed lines)
// - Transformation stages and join outcomes
// - Table writes (rows, files, duration)
// - Object store calls, rate limiting and circuit breakers

var (
	// Source Metrics
	SourceRecordsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_records_read_total",
			Help: "Total number of records decoded from the input store",
		},
		[]string{"dataset"}, // "song", "log"
	)

	SourceRecordsMalformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_records_malformed_total",
			Help: "Total number of records skipped because they could not be parsed or lacked a required key",
		},
		[]string{"dataset"},
	)

	SourceObjectsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_objects_read_total",
			Help: "Total number of input objects read",
		},
		[]string{"dataset"},
	)

	// Pipeline Metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"stage"},
	)

	JoinResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songplays_join_results_total",
			Help: "Songplay rows by song lookup outcome",
		},
		[]string{"result"}, // "matched", "unmatched"
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of complete pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	RunLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful pipeline run",
		},
	)

	// Warehouse Metrics
	WarehouseRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_rows_written_total",
			Help: "Total number of rows written per output table",
		},
		[]string{"table"},
	)

	WarehouseFilesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_files_written_total",
			Help: "Total number of Parquet files published per output table",
		},
		[]string{"table"},
	)

	WarehouseWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_write_duration_seconds",
			Help:    "Duration of table writes in seconds (load, export and publish)",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"table"},
	)

	WarehouseWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_write_errors_total",
			Help: "Total number of failed table writes",
		},
		[]string{"table"},
	)

	// Object Store Metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "objstore_operations_total",
			Help: "Total number of object store operations",
		},
		[]string{"backend", "operation", "result"}, // result: "success", "error"
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "objstore_operation_duration_seconds",
			Help:    "Duration of object store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreRateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "objstore_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the object store rate limiter",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"backend"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordSourceRead records the outcome of reading one input object.
func RecordSourceRead(dataset string, records, malformed int) {
	SourceObjectsRead.WithLabelValues(dataset).Inc()
	SourceRecordsRead.WithLabelValues(dataset).Add(float64(records))
	if malformed > 0 {
		SourceRecordsMalformed.WithLabelValues(dataset).Add(float64(malformed))
	}
}

// RecordMalformed counts records rejected after decoding, such as plays without a timestamp.
func RecordMalformed(dataset string, n int) {
	if n > 0 {
		SourceRecordsMalformed.WithLabelValues(dataset).Add(float64(n))
	}
}

// RecordStage records the duration of a pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordJoin records songplay lookup outcomes.
func RecordJoin(matched, unmatched int) {
	JoinResults.WithLabelValues("matched").Add(float64(matched))
	JoinResults.WithLabelValues("unmatched").Add(float64(unmatched))
}

// RecordTableWrite records a table write metric.
func RecordTableWrite(table string, rows, files int, duration time.Duration, err error) {
	WarehouseWriteDuration.WithLabelValues(table).Observe(duration.Seconds())
	if err != nil {
		WarehouseWriteErrors.WithLabelValues(table).Inc()
		return
	}
	WarehouseRowsWritten.WithLabelValues(table).Add(float64(rows))
	WarehouseFilesWritten.WithLabelValues(table).Add(float64(files))
}

// RecordRun records the outcome of a complete pipeline run.
func RecordRun(duration time.Duration, err error) {
	RunDuration.Observe(duration.Seconds())
	if err != nil {
		RunsTotal.WithLabelValues("failure").Inc()
		return
	}
	RunsTotal.WithLabelValues("success").Inc()
	RunLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordStoreOperation records an object store call.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(backend, operation, result).Inc()
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordRateLimitWait records time spent blocked on the store rate limiter.
func RecordRateLimitWait(backend string, wait time.Duration) {
	StoreRateLimitWait.WithLabelValues(backend).Observe(wait.Seconds())
}
