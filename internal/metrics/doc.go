// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

/*
Package metrics provides Prometheus metrics collection and export for pipeline runs.

All collectors are registered with the default registry through promauto and
are updated through the Record* helpers, so callers never build label sets
by hand.

# Export

A run is a short-lived batch job, so metrics leave the process two ways:

  - Push sends the final values to a pushgateway (metrics.pushgateway_url)
  - Handler serves /metrics and /healthz while the run is in progress
    (metrics.listen_addr)

# Available Metrics

Source:
  - source_records_read_total{dataset}
  - source_records_malformed_total{dataset}
  - source_objects_read_total{dataset}

Pipeline:
  - pipeline_stage_duration_seconds{stage}
  - songplays_join_results_total{result}: matched or unmatched
  - pipeline_runs_total{outcome}
  - pipeline_run_duration_seconds
  - pipeline_last_success_timestamp_seconds

Warehouse:
  - warehouse_rows_written_total{table}
  - warehouse_files_written_total{table}
  - warehouse_write_duration_seconds{table}
  - warehouse_write_errors_total{table}

Object store:
  - objstore_operations_total{backend, operation, result}
  - objstore_operation_duration_seconds{backend, operation}
  - objstore_rate_limit_wait_seconds{backend}

Circuit Breaker:
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name, result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name, from_state, to_state}

# Usage

	start := time.Now()
	err := writer.Write(ctx, table)
	metrics.RecordTableWrite(table.Name, rows, files, time.Since(start), err)
*/
package metrics
