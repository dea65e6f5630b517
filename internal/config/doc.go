// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

/*
Package config provides centralized configuration management for Soundlake.

Configuration is loaded with Koanf v2 from three layers, later layers
overriding earlier ones:

  - Built-in defaults (defaultConfig)
  - An optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/soundlake/config.yaml or /etc/soundlake/config.yml
  - Environment variables, mapped explicitly in envMappings

# Environment Variables

Locations:
  - INPUT_PATH: Source store, e.g. s3://udacity-dend or ./data (required)
  - INPUT_SONG_PATTERN: Glob for song files (default: song_data/**\/*.json)
  - INPUT_LOG_PATTERN: Glob for log files (default: log_data/**\/*.json)
  - OUTPUT_PATH: Destination store, e.g. s3://my-lake/sparkify (required)

AWS:
  - AWS_REGION (default: us-west-2)
  - AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN
  - AWS_ENDPOINT_URL: S3-compatible endpoint such as MinIO
  - AWS_S3_FORCE_PATH_STYLE: Path-style bucket addressing

GCP:
  - GOOGLE_APPLICATION_CREDENTIALS: Service account JSON file
  - GCP_PROJECT_ID

Store resilience:
  - STORE_REQUESTS_PER_SECOND (default: 100, 0 disables)
  - STORE_BURST (default: 20)
  - STORE_BREAKER_FAILURE_THRESHOLD (default: 5, 0 disables)
  - STORE_BREAKER_TIMEOUT (default: 30s)

Pipeline:
  - PIPELINE_WORKERS (default: 0 = number of CPUs)
  - JOIN_DURATION_TOLERANCE: Seconds of slack when matching log length to song duration (default: 0)
  - STAGING_DIR: Local directory for Parquet staging (default: OS temp dir)
  - WRITE_RUN_REPORT (default: true)
  - PIPELINE_TIMEOUT (default: 0 = none)

Database:
  - DUCKDB_MAX_MEMORY (default: 2GB)
  - DUCKDB_THREADS (default: 0 = DuckDB default)

Metrics:
  - METRICS_LISTEN_ADDR: Serve /metrics and /healthz during the run
  - PUSHGATEWAY_URL: Push final metrics to a Prometheus pushgateway
  - METRICS_JOB_NAME (default: soundlake)

Logging:
  - LOG_LEVEL (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER (default: false)

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Error().Err(err).Msg("Failed to load configuration")
	    return 1
	}
	workers := cfg.Pipeline.EffectiveWorkers()
*/
package config
