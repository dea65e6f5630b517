// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package pipeline

import (
	"context"
	"time"

	"github.com/tomtom215/soundlake/internal/config"
	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/metrics"
	"github.com/tomtom215/soundlake/internal/models"
	"github.com/tomtom215/soundlake/internal/objstore"
	"github.com/tomtom215/soundlake/internal/source"
	"github.com/tomtom215/soundlake/internal/transform"
	"github.com/tomtom215/soundlake/internal/warehouse"
)

// Stage names, as reported in StageError, logs and metrics.
const (
	StageReadSongs      = "read_songs"
	StageReadLogs       = "read_logs"
	StageExtractSongs   = "extract_songs"
	StageFilterPlays    = "filter_plays"
	StageExtractUsers   = "extract_users"
	StageBuildSongplays = "build_songplays"
	StageWrite          = "write"
)

// Source dataset labels.
const (
	DatasetSong = "song"
	DatasetLog  = "log"
)

// TableWriter persists one table.
type TableWriter interface {
	Write(ctx context.Context, t warehouse.Table) (warehouse.TableStats, error)
}

// Options configures a run.
type Options struct {
	SongPattern       string
	LogPattern        string
	Workers           int
	DurationTolerance float64
	WriteRunReport    bool
}

// OptionsFromConfig extracts run options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SongPattern:       cfg.Input.SongPattern,
		LogPattern:        cfg.Input.LogPattern,
		Workers:           cfg.Pipeline.EffectiveWorkers(),
		DurationTolerance: cfg.Pipeline.DurationTolerance,
		WriteRunReport:    cfg.Pipeline.WriteRunReport,
	}
}

// Pipeline rebuilds the star schema from input into output.
type Pipeline struct {
	input  objstore.Store
	output objstore.Store
	writer TableWriter
	opts   Options
}

// New creates a Pipeline. output receives the run report; writer publishes tables.
func New(input, output objstore.Store, writer TableWriter, opts Options) *Pipeline {
	return &Pipeline{input: input, output: output, writer: writer, opts: opts}
}

// Run executes one full rebuild. The returned report is never nil; on
// failure err is a *StageError.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = logging.GenerateRunID()
		ctx = logging.ContextWithRunID(ctx, runID)
	}

	start := time.Now()
	report := newRunReport(runID, start)

	logging.Ctx(ctx).Info().
		Str("input", p.input.URI("")).
		Str("output", p.output.URI("")).
		Int("workers", p.opts.Workers).
		Msg("Pipeline run started")

	err := p.run(ctx, report)

	report.finish(time.Now(), err)
	metrics.RecordRun(time.Since(start), err)
	report.Log(ctx)

	if p.opts.WriteRunReport {
		if serr := report.Save(context.WithoutCancel(ctx), p.output); serr != nil {
			logging.Ctx(ctx).Warn().Err(serr).Str("key", report.Key()).Msg("Failed to write run report")
		}
	}
	return report, err
}

func (p *Pipeline) run(ctx context.Context, report *RunReport) error {
	var (
		songParts []source.Partition[models.RawSongRecord]
		logParts  []source.Partition[models.RawLogRecord]
		songs     []models.Song
		artists   []models.Artist
		plays     [][]models.RawLogRecord
		users     []models.User
		times     []models.TimeRow
		songplays []models.Songplay
	)

	err := p.stage(ctx, StageReadSongs, func(ctx context.Context) error {
		r := source.NewReader(p.input, source.DecodeSong, source.Options{Dataset: DatasetSong, Workers: p.opts.Workers})
		parts, stats, err := r.ReadPartitions(ctx, p.opts.SongPattern)
		songParts = parts
		report.Sources[DatasetSong] = stats
		return err
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, StageReadLogs, func(ctx context.Context) error {
		r := source.NewReader(p.input, source.DecodeLog, source.Options{Dataset: DatasetLog, Workers: p.opts.Workers})
		parts, stats, err := r.ReadPartitions(ctx, p.opts.LogPattern)
		logParts = parts
		report.Sources[DatasetLog] = stats
		return err
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, StageExtractSongs, func(context.Context) error {
		records := source.Flatten(songParts)
		songs = transform.ExtractSongs(records)
		artists = transform.ExtractArtists(records)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, StageFilterPlays, func(ctx context.Context) error {
		raw := make([][]models.RawLogRecord, len(logParts))
		for i := range logParts {
			raw[i] = logParts[i].Records
		}
		filtered, skipped, err := transform.FilterPartitions(ctx, raw, p.opts.Workers)
		if err != nil {
			return err
		}
		plays = filtered
		report.SkippedPlays = skipped
		metrics.RecordMalformed(DatasetLog, skipped)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, StageExtractUsers, func(context.Context) error {
		all := make([]models.RawLogRecord, 0)
		for _, part := range plays {
			all = append(all, part...)
		}
		report.Plays = len(all)
		users = transform.ExtractUsers(all)
		times = transform.ExtractTime(all)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, StageBuildSongplays, func(ctx context.Context) error {
		rows, stats, err := transform.BuildSongplays(ctx, plays, songs, artists, transform.JoinOptions{
			DurationTolerance: p.opts.DurationTolerance,
			Workers:           p.opts.Workers,
		})
		if err != nil {
			return err
		}
		songplays = rows
		report.Join = stats
		metrics.RecordJoin(stats.Matched, stats.Unmatched)
		return nil
	})
	if err != nil {
		return err
	}

	tables := []warehouse.Table{
		warehouse.SongsTable(songs),
		warehouse.ArtistsTable(artists),
		warehouse.UsersTable(users),
		warehouse.TimeTable(times),
		warehouse.SongplaysTable(songplays),
	}
	for _, t := range tables {
		if err := p.write(ctx, t, report); err != nil {
			return err
		}
	}
	return nil
}

// stage runs fn with stage-scoped logging and metrics, wrapping failures in a StageError.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: name, Err: err}
	}

	ctx = logging.ContextWithStage(ctx, name)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.RecordStage(name, elapsed)

	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	logging.Ctx(ctx).Debug().Dur("elapsed", elapsed).Msg("Stage complete")
	return nil
}

func (p *Pipeline) write(ctx context.Context, t warehouse.Table, report *RunReport) error {
	err := p.stage(ctx, StageWrite, func(ctx context.Context) error {
		stats, err := p.writer.Write(ctx, t)
		if err != nil {
			return err
		}
		report.Tables[t.Name] = stats
		return nil
	})
	if se, ok := err.(*StageError); ok {
		se.Table = t.Name
	}
	return err
}
