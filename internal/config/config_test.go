// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package config

import (
	"runtime"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Input.Path = "s3://udacity-dend"
	cfg.Output.Path = "s3://lake/sparkify"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid defaults", mutate: func(*Config) {}},
		{
			name:   "local paths",
			mutate: func(c *Config) { c.Input.Path = "./data"; c.Output.Path = "file:///tmp/out" },
		},
		{
			name:    "missing output",
			mutate:  func(c *Config) { c.Output.Path = "" },
			wantErr: "output.path is required",
		},
		{
			name:    "unsupported scheme",
			mutate:  func(c *Config) { c.Input.Path = "hdfs://namenode/data" },
			wantErr: "input.path must be a local path",
		},
		{
			name:    "invalid glob",
			mutate:  func(c *Config) { c.Input.LogPattern = "log_data/[" },
			wantErr: "input.log_pattern must be a valid glob pattern",
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.Pipeline.DurationTolerance = -0.1 },
			wantErr: "pipeline.duration_tolerance must be greater than or equal to 0",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "text" },
			wantErr: "logging.format must be one of",
		},
		{
			name:    "bad listen addr",
			mutate:  func(c *Config) { c.Metrics.ListenAddr = "9090" },
			wantErr: "metrics.listen_addr must be in host:port form",
		},
		{
			name:    "output equals input",
			mutate:  func(c *Config) { c.Output.Path = "s3://udacity-dend/" },
			wantErr: "OUTPUT_PATH must differ from INPUT_PATH",
		},
		{
			name:    "access key without secret",
			mutate:  func(c *Config) { c.AWS.AccessKeyID = "AKIA" },
			wantErr: "must be set together",
		},
		{
			name:    "session token alone",
			mutate:  func(c *Config) { c.AWS.SessionToken = "tok" },
			wantErr: "AWS_SESSION_TOKEN requires",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *Config) { c.Store.Burst = 0 },
			wantErr: "STORE_BURST must be at least 1",
		},
		{
			name:   "rate limit disabled without burst",
			mutate: func(c *Config) { c.Store.RequestsPerSecond = 0; c.Store.Burst = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEffectiveWorkers(t *testing.T) {
	if got := (PipelineConfig{Workers: 3}).EffectiveWorkers(); got != 3 {
		t.Errorf("EffectiveWorkers() = %d, want 3", got)
	}
	if got := (PipelineConfig{}).EffectiveWorkers(); got != runtime.NumCPU() {
		t.Errorf("EffectiveWorkers() = %d, want %d", got, runtime.NumCPU())
	}
}
