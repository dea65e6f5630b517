// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package config

import (
	"runtime"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Data locations:
//     - Input: Source store URL and glob patterns for song and log files
//     - Output: Destination store URL for the star-schema tables
//
//  2. Store credentials and resilience:
//     - AWS: S3 (or MinIO) credentials, region and endpoint
//     - GCP: Google Cloud Storage credentials
//     - Store: Rate limiting and circuit breaker settings shared by all backends
//
//  3. Processing:
//     - Pipeline: Worker count, join tolerance, staging directory
//     - Database: DuckDB resource limits for the table writer
//
//  4. Observability:
//     - Metrics: Prometheus endpoint and pushgateway
//     - Logging: Log levels and output formats
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Input    InputConfig    `koanf:"input"`
	Output   OutputConfig   `koanf:"output"`
	AWS      AWSConfig      `koanf:"aws"`
	GCP      GCPConfig      `koanf:"gcp"`
	Store    StoreConfig    `koanf:"store"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Database DatabaseConfig `koanf:"database"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// InputConfig locates the raw song metadata and activity logs.
//
// Path is a bare directory, a file:// URL, or an s3:// / gs:// URL whose
// host is the bucket and whose path is the key prefix. Patterns are
// doublestar globs evaluated relative to Path.
type InputConfig struct {
	Path        string `koanf:"path" validate:"required,storeurl"`
	SongPattern string `koanf:"song_pattern" validate:"required,globpattern"`
	LogPattern  string `koanf:"log_pattern" validate:"required,globpattern"`
}

// OutputConfig locates the destination of the star-schema tables.
type OutputConfig struct {
	Path string `koanf:"path" validate:"required,storeurl"`
}

// AWSConfig configures the S3 backend. Empty credentials fall back to the
// default AWS credential chain (environment, shared config, instance role).
type AWSConfig struct {
	Region          string `koanf:"region"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	SessionToken    string `koanf:"session_token"`

	// EndpointURL points the client at an S3-compatible service such as MinIO.
	EndpointURL    string `koanf:"endpoint_url" validate:"omitempty,url"`
	ForcePathStyle bool   `koanf:"force_path_style"`
}

// GCPConfig configures the Google Cloud Storage backend.
type GCPConfig struct {
	CredentialsFile string `koanf:"credentials_file"`
	ProjectID       string `koanf:"project_id"`
}

// StoreConfig holds resilience settings applied to every object store call.
type StoreConfig struct {
	// RequestsPerSecond limits store calls; 0 disables rate limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int     `koanf:"burst" validate:"gte=0"`

	// BreakerFailureThreshold is the number of consecutive failures that opens
	// the circuit; 0 disables the breaker.
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout" validate:"gte=0"`
}

// PipelineConfig controls how a run is executed.
type PipelineConfig struct {
	// Workers bounds decode and fact-building parallelism; 0 means runtime.NumCPU().
	Workers int `koanf:"workers" validate:"gte=0,lte=1024"`

	// DurationTolerance is the absolute difference in seconds under which a log
	// length matches a song duration. 0 requires exact equality.
	DurationTolerance float64 `koanf:"duration_tolerance" validate:"gte=0"`

	// StagingDir holds Parquet files before they are published; empty uses os.TempDir().
	StagingDir string `koanf:"staging_dir"`

	WriteRunReport bool `koanf:"write_run_report"`

	// Timeout bounds a whole run; 0 means no limit.
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// EffectiveWorkers returns the configured worker count, defaulting to the CPU count.
func (p PipelineConfig) EffectiveWorkers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

// DatabaseConfig holds settings for the embedded DuckDB engine used by the table writer.
type DatabaseConfig struct {
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"` // 0 = runtime.NumCPU()
}

// MetricsConfig configures the optional Prometheus surfaces.
type MetricsConfig struct {
	// ListenAddr serves /metrics and /healthz while the run is in progress; empty disables it.
	ListenAddr     string `koanf:"listen_addr" validate:"omitempty,hostname_port"`
	PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`
	JobName        string `koanf:"job_name" validate:"required"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
