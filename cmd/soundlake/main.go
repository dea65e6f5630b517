// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/soundlake/internal/config"
	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/metrics"
	"github.com/tomtom215/soundlake/internal/objstore"
	"github.com/tomtom215/soundlake/internal/pipeline"
	"github.com/tomtom215/soundlake/internal/warehouse"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)

	logging.Ctx(ctx).Info().
		Str("version", version).
		Str("input", cfg.Input.Path).
		Str("output", cfg.Output.Path).
		Msg("Starting Soundlake")

	if cfg.Metrics.ListenAddr != "" {
		stopMetrics := serveMetrics(ctx, cfg.Metrics.ListenAddr)
		defer stopMetrics()
	}

	runErr := execute(ctx, cfg)

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, runID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to push metrics")
		}
		cancel()
	}

	if runErr != nil {
		logging.Ctx(ctx).Error().Err(runErr).Msg("Soundlake run failed")
		return 1
	}
	logging.Ctx(ctx).Info().Msg("Soundlake run completed")
	return 0
}

// execute opens the stores and writer and runs the pipeline once.
func execute(ctx context.Context, cfg *config.Config) error {
	if cfg.Pipeline.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.Timeout)
		defer cancel()
	}

	opts := objstore.OptionsFromConfig(cfg)

	input, err := objstore.Open(ctx, cfg.Input.Path, opts)
	if err != nil {
		return err
	}
	defer closeStore(input, "input")

	output, err := objstore.Open(ctx, cfg.Output.Path, opts)
	if err != nil {
		return err
	}
	defer closeStore(output, "output")

	writer, err := warehouse.NewWriter(ctx, output, cfg.Database, cfg.Pipeline.StagingDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing table writer")
		}
	}()

	_, err = pipeline.New(input, output, writer, pipeline.OptionsFromConfig(cfg)).Run(ctx)
	return err
}

// serveMetrics starts the metrics endpoint and returns a function that stops it.
func serveMetrics(ctx context.Context, addr string) func() {
	srvCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := metrics.NewServer(addr, 5*time.Second).Serve(srvCtx); err != nil {
			logging.Warn().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	logging.Info().Str("addr", addr).Msg("Metrics endpoint listening")

	return func() {
		cancel()
		<-done
	}
}

func closeStore(s objstore.Store, name string) {
	if err := s.Close(); err != nil {
		logging.Warn().Err(err).Str("store", name).Msg("Error closing store")
	}
}
