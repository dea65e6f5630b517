// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

/*
Package objstore provides a minimal object store abstraction over the local
filesystem, Amazon S3 (and S3-compatible services such as MinIO) and Google
Cloud Storage.

A Store is rooted at a location given as a URL:

	./data                      local directory
	file:///var/lib/lake        local directory
	s3://udacity-dend           S3 bucket root
	s3://my-lake/sparkify       S3 bucket, key prefix "sparkify/"
	gs://my-lake/sparkify       GCS bucket, key prefix "sparkify/"

Keys passed to a Store are slash-separated and relative to that root.

# Globbing

Glob lists the static prefix of a doublestar pattern and filters the result,
so "song_data/**\/*.json" only lists keys under "song_data/".

# Resilience

Open wraps remote backends in a Resilient store that applies a token-bucket
rate limit (golang.org/x/time/rate) and a circuit breaker
(github.com/sony/gobreaker/v2) to every call, and records per-operation
Prometheus metrics. Local stores are wrapped for metrics only.
*/
package objstore
