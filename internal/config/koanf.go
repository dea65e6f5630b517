// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/soundlake/config.yaml",
	"/etc/soundlake/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Path:        "", // required
			SongPattern: "song_data/**/*.json",
			LogPattern:  "log_data/**/*.json",
		},
		Output: OutputConfig{
			Path: "", // required
		},
		AWS: AWSConfig{
			Region:         "us-west-2",
			ForcePathStyle: false,
		},
		Store: StoreConfig{
			RequestsPerSecond:       100,
			Burst:                   20,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Pipeline: PipelineConfig{
			Workers:           0, // 0 = use runtime.NumCPU()
			DurationTolerance: 0, // exact match
			StagingDir:        "",
			WriteRunReport:    true,
			Timeout:           0,
		},
		Database: DatabaseConfig{
			MaxMemory: "2GB",
			Threads:   0,
		},
		Metrics: MetricsConfig{
			ListenAddr:     "",
			PushgatewayURL: "",
			JobName:        "soundlake",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// INPUT_PATH -> input.path
	// AWS_ENDPOINT_URL -> aws.endpoint_url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps lowercased environment variable names to koanf config paths.
// Variables not listed here are ignored so unrelated environment does not
// leak into the configuration.
var envMappings = map[string]string{
	// Input and output locations
	"input_path":         "input.path",
	"input_song_pattern": "input.song_pattern",
	"input_log_pattern":  "input.log_pattern",
	"output_path":        "output.path",

	// AWS (standard SDK variable names)
	"aws_region":              "aws.region",
	"aws_access_key_id":       "aws.access_key_id",
	"aws_secret_access_key":   "aws.secret_access_key",
	"aws_session_token":       "aws.session_token",
	"aws_endpoint_url":        "aws.endpoint_url",
	"aws_s3_force_path_style": "aws.force_path_style",

	// GCP
	"google_application_credentials": "gcp.credentials_file",
	"gcp_project_id":                 "gcp.project_id",

	// Store resilience
	"store_requests_per_second":       "store.requests_per_second",
	"store_burst":                     "store.burst",
	"store_breaker_failure_threshold": "store.breaker_failure_threshold",
	"store_breaker_timeout":           "store.breaker_timeout",

	// Pipeline
	"pipeline_workers":        "pipeline.workers",
	"join_duration_tolerance": "pipeline.duration_tolerance",
	"staging_dir":             "pipeline.staging_dir",
	"write_run_report":        "pipeline.write_run_report",
	"pipeline_timeout":        "pipeline.timeout",

	// Database
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Metrics
	"metrics_listen_addr": "metrics.listen_addr",
	"pushgateway_url":     "metrics.pushgateway_url",
	"metrics_job_name":    "metrics.job_name",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - INPUT_PATH -> input.path
//   - AWS_ENDPOINT_URL -> aws.endpoint_url
//   - JOIN_DURATION_TOLERANCE -> pipeline.duration_tolerance
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// For unmapped keys, return empty string to skip them
	return ""
}
