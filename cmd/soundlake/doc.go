// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

/*
Package main is the entry point for the Soundlake batch job.

Soundlake reads song metadata and user activity logs from an object store,
rebuilds a star schema (songs, artists, users, time, songplays) and writes
it back as Hive-partitioned Parquet. Every run is a full, idempotent rebuild.

# Run Sequence

 1. Configuration: Koanf v2 (defaults, optional YAML file, environment)
 2. Logging: zerolog with JSON/console output
 3. Metrics endpoint (optional): /metrics and /healthz on METRICS_LISTEN_ADDR
 4. Stores: input and output opened by URL scheme (file, s3, gs)
 5. Writer: in-memory DuckDB for Parquet export
 6. Pipeline: one run, bounded by PIPELINE_TIMEOUT when set
 7. Pushgateway (optional): final metrics pushed to PUSHGATEWAY_URL

The process exits 0 when every table was written and 1 otherwise. SIGINT and
SIGTERM cancel the run.

# Configuration

There are no command-line flags. The config file is read from CONFIG_PATH or
the default search paths (config.yaml, /etc/soundlake/config.yaml), and any
setting can be overridden by environment variables.

# Example Usage

Local directories:

	export INPUT_PATH=./data
	export OUTPUT_PATH=./warehouse
	./soundlake

S3:

	export INPUT_PATH=s3://udacity-dend/
	export OUTPUT_PATH=s3://my-bucket/soundlake/
	export AWS_ACCESS_KEY_ID=...
	export AWS_SECRET_ACCESS_KEY=...
	export AWS_REGION=us-west-2
	./soundlake

MinIO:

	export INPUT_PATH=s3://raw/
	export OUTPUT_PATH=s3://lake/
	export AWS_ENDPOINT_URL=http://localhost:9000
	export AWS_S3_FORCE_PATH_STYLE=true
	./soundlake
*/
package main
