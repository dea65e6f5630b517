// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package transform

import (
	"cmp"
	"context"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/soundlake/internal/models"
)

// JoinOptions configures BuildSongplays.
type JoinOptions struct {
	// DurationTolerance is the largest absolute difference, in seconds, at
	// which a play length still matches a song duration. Zero requires exact equality.
	DurationTolerance float64

	// Workers bounds parallel partition processing. Zero means runtime.NumCPU().
	Workers int
}

// JoinStats counts songplay lookup outcomes.
type JoinStats struct {
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

type songKey struct {
	title  string
	artist string
}

type songCandidate struct {
	songID   string
	artistID string
	duration float64
}

// SongIndex resolves (title, artist name, duration) to a song. It is read-only
// after construction and safe for concurrent use.
type SongIndex struct {
	byKey     map[songKey][]songCandidate
	tolerance float64
}

// NewSongIndex joins songs to artists on artist_id. Songs whose artist is not
// in artists cannot be matched.
func NewSongIndex(songs []models.Song, artists []models.Artist, tolerance float64) *SongIndex {
	names := make(map[string]string, len(artists))
	for _, a := range artists {
		names[a.ArtistID] = a.Name
	}

	idx := &SongIndex{byKey: make(map[songKey][]songCandidate), tolerance: tolerance}
	for _, s := range songs {
		name, ok := names[s.ArtistID]
		if !ok {
			continue
		}
		k := songKey{title: s.Title, artist: name}
		idx.byKey[k] = append(idx.byKey[k], songCandidate{songID: s.SongID, artistID: s.ArtistID, duration: s.Duration})
	}
	for k := range idx.byKey {
		slices.SortFunc(idx.byKey[k], func(a, b songCandidate) int { return cmp.Compare(a.songID, b.songID) })
	}
	return idx
}

// Lookup returns the song matching a play. When several songs match, the
// smallest song_id wins. A play without length never matches.
func (idx *SongIndex) Lookup(title, artist string, length *float64) (songID, artistID string, ok bool) {
	if length == nil {
		return "", "", false
	}
	for _, c := range idx.byKey[songKey{title: title, artist: artist}] {
		if idx.durationMatches(c.duration, *length) {
			return c.songID, c.artistID, true
		}
	}
	return "", "", false
}

func (idx *SongIndex) durationMatches(duration, length float64) bool {
	if idx.tolerance == 0 {
		return duration == length
	}
	return math.Abs(duration-length) <= idx.tolerance
}

// BuildSongplays emits one songplay per play. plays holds the filtered play
// events of each input partition, in partition order. Partitions are joined in
// parallel; partition i numbers its rows from the sum of the sizes of the
// partitions before it, so songplay_id runs from 1 to the total play count.
func BuildSongplays(ctx context.Context, plays [][]models.RawLogRecord, songs []models.Song, artists []models.Artist, opts JoinOptions) ([]models.Songplay, JoinStats, error) {
	idx := NewSongIndex(songs, artists, opts.DurationTolerance)

	offsets := make([]int, len(plays))
	total := 0
	for i, p := range plays {
		offsets[i] = total
		total += len(p)
	}

	out := make([]models.Songplay, total)
	matched := make([]int, len(plays))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(opts.Workers))
	for i := range plays {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			base := offsets[i]
			for j := range plays[i] {
				row := newSongplay(int64(base+j+1), &plays[i][j], idx)
				if row.Matched() {
					matched[i]++
				}
				out[base+j] = row
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, JoinStats{}, err
	}

	stats := JoinStats{}
	for _, n := range matched {
		stats.Matched += n
	}
	stats.Unmatched = total - stats.Matched
	return out, stats, nil
}

func newSongplay(id int64, rec *models.RawLogRecord, idx *SongIndex) models.Songplay {
	start := StartTime(0)
	if rec.TS != nil {
		start = StartTime(rec.TS.Int64())
	}

	row := models.Songplay{
		SongplayID: id,
		StartTime:  start,
		UserID:     rec.UserID.String(),
		Level:      rec.Level,
		SessionID:  rec.SessionID,
		Location:   rec.Location,
		UserAgent:  rec.UserAgent,
		Year:       start.Year(),
		Month:      int(start.Month()),
	}
	if songID, artistID, ok := idx.Lookup(rec.Song, rec.Artist, rec.Length); ok {
		row.SongID = &songID
		row.ArtistID = &artistID
	}
	return row
}

func workerLimit(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
