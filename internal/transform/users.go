// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package transform

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/models"
	"github.com/tomtom215/soundlake/internal/source"
)

// FilterNextSong keeps play events. A play without ts is logged as a
// malformed record and skipped; skipped counts those rows.
func FilterNextSong(ctx context.Context, records []models.RawLogRecord) (plays []models.RawLogRecord, skipped int) {
	for i := range records {
		rec := &records[i]
		if !rec.IsPlay() {
			continue
		}
		if rec.TS == nil {
			skipped++
			logging.Ctx(ctx).Warn().
				Err(&source.MalformedRecordError{Object: rec.Origin.Object, Line: rec.Origin.Line, Reason: "missing ts"}).
				Msg("Skipping play without timestamp")
			continue
		}
		plays = append(plays, *rec)
	}
	return plays, skipped
}

// FilterPartitions applies FilterNextSong to each partition in parallel,
// preserving partition order.
func FilterPartitions(ctx context.Context, parts [][]models.RawLogRecord, workers int) ([][]models.RawLogRecord, int, error) {
	out := make([][]models.RawLogRecord, len(parts))
	skipped := make([]int, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i], skipped[i] = FilterNextSong(gctx, parts[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, n := range skipped {
		total += n
	}
	return out, total, nil
}

// ExtractUsers projects plays to the users dimension, one row per user_id.
// The play with the greatest ts supplies the row, so level reflects the
// user's latest subscription state.
func ExtractUsers(plays []models.RawLogRecord) []models.User {
	latest := make(map[string]*models.RawLogRecord)
	for i := range plays {
		rec := &plays[i]
		if rec.TS == nil {
			continue
		}
		id := rec.UserID.String()
		cur, ok := latest[id]
		if !ok || newerPlay(rec, cur) {
			latest[id] = rec
		}
	}

	users := make([]models.User, 0, len(latest))
	for id, rec := range latest {
		users = append(users, models.User{
			UserID:    id,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Gender:    rec.Gender,
			Level:     rec.Level,
		})
	}
	slices.SortFunc(users, func(a, b models.User) int { return cmp.Compare(a.UserID, b.UserID) })
	return users
}

// newerPlay orders plays by ts, then by origin.
func newerPlay(a, b *models.RawLogRecord) bool {
	if *a.TS != *b.TS {
		return *a.TS > *b.TS
	}
	return b.Origin.Before(a.Origin)
}
