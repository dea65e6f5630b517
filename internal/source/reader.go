// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/metrics"
	"github.com/tomtom215/soundlake/internal/models"
	"github.com/tomtom215/soundlake/internal/objstore"
)

// DefaultMaxLineBytes bounds a single input line.
const DefaultMaxLineBytes = 4 << 20

// Options configures a Reader.
type Options struct {
	// Dataset labels logs and metrics, e.g. "song" or "log".
	Dataset string

	// Workers bounds parallel object decoding. Zero means runtime.NumCPU().
	Workers int

	// MaxLineBytes bounds a single line; longer lines are skipped as
	// malformed. Zero means DefaultMaxLineBytes.
	MaxLineBytes int
}

// Partition holds the records decoded from one object, in line order.
type Partition[T any] struct {
	Object    string
	Records   []T
	Malformed int
}

// Stats summarizes a read.
type Stats struct {
	Dataset   string `json:"dataset"`
	Objects   int    `json:"objects"`
	Bytes     int64  `json:"bytes"`
	Records   int    `json:"records"`
	Malformed int    `json:"malformed"`
}

// Reader decodes records of type T from objects in a store.
type Reader[T any] struct {
	store  objstore.Store
	decode DecodeFunc[T]
	opts   Options
}

// NewReader creates a Reader over store.
func NewReader[T any](store objstore.Store, decode DecodeFunc[T], opts Options) *Reader[T] {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = DefaultMaxLineBytes
	}
	return &Reader[T]{store: store, decode: decode, opts: opts}
}

// list resolves pattern to objects, failing with ErrSourceUnavailable when nothing matches.
func (r *Reader[T]) list(ctx context.Context, pattern string) ([]objstore.ObjectInfo, error) {
	objs, err := objstore.Glob(ctx, r.store, pattern)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("list %s: %w", r.store.URI(pattern), err)
		}
		return nil, fmt.Errorf("%w: list %s: %w", ErrSourceUnavailable, r.store.URI(pattern), err)
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: no objects match %s", ErrSourceUnavailable, r.store.URI(pattern))
	}
	return objs, nil
}

// Records returns a lazy sequence of the records in every object matching
// pattern. Malformed lines are skipped; the sequence yields an error only when
// listing or reading fails, and stops after it.
func (r *Reader[T]) Records(ctx context.Context, pattern string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		objs, err := r.list(ctx, pattern)
		if err != nil {
			yield(zero, err)
			return
		}

		for _, obj := range objs {
			stopped := false
			_, _, err := r.scan(ctx, obj.Key, func(rec T) bool {
				if !yield(rec, nil) {
					stopped = true
					return false
				}
				return true
			})
			if stopped {
				return
			}
			if err != nil {
				yield(zero, err)
				return
			}
		}
	}
}

// ReadPartitions decodes every object matching pattern, one partition per
// object, using up to Options.Workers goroutines. Partitions are ordered by key.
func (r *Reader[T]) ReadPartitions(ctx context.Context, pattern string) ([]Partition[T], Stats, error) {
	stats := Stats{Dataset: r.opts.Dataset}

	objs, err := r.list(ctx, pattern)
	if err != nil {
		return nil, stats, err
	}

	parts := make([]Partition[T], len(objs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, obj := range objs {
		g.Go(func() error {
			var records []T
			_, malformed, err := r.scan(gctx, obj.Key, func(rec T) bool {
				records = append(records, rec)
				return true
			})
			if err != nil {
				return err
			}
			parts[i] = Partition[T]{Object: obj.Key, Records: records, Malformed: malformed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	stats.Objects = len(objs)
	for i := range parts {
		stats.Bytes += objs[i].Size
		stats.Records += len(parts[i].Records)
		stats.Malformed += parts[i].Malformed
	}

	logging.Component(ctx, "source").Info().
		Str("dataset", stats.Dataset).
		Int("objects", stats.Objects).
		Int("records", stats.Records).
		Int("malformed", stats.Malformed).
		Msg("Source read complete")

	return parts, stats, nil
}

// scan decodes key line by line, handing each record to emit until emit
// returns false. It returns the number of records and malformed lines seen.
func (r *Reader[T]) scan(ctx context.Context, key string, emit func(T) bool) (records, malformed int, err error) {
	start := time.Now()

	rc, err := r.store.Open(ctx, key)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", r.store.URI(key), err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			logging.Component(ctx, "source").Warn().Err(cerr).Str("object", key).Msg("Failed to close input object")
		}
	}()

	lines := newLineReader(rc, r.opts.MaxLineBytes)

	defer func() {
		metrics.RecordSourceRead(r.opts.Dataset, records, malformed)
	}()

	line := 0
	for {
		raw, tooLong, rerr := lines.next()
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return records, malformed, fmt.Errorf("read %s line %d: %w", r.store.URI(key), line+1, rerr)
		}

		line++
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return records, malformed, err
			}
		}

		if tooLong {
			malformed++
			r.logMalformed(ctx, &MalformedRecordError{
				Object: key,
				Line:   line,
				Reason: fmt.Sprintf("line exceeds %d bytes", r.opts.MaxLineBytes),
			})
			continue
		}

		b := bytes.TrimSpace(raw)
		if len(b) == 0 {
			continue
		}

		origin := models.Origin{Object: key, Line: line}
		rec, derr := r.decode(b, origin)
		if derr != nil {
			malformed++
			r.logMalformed(ctx, &MalformedRecordError{Object: key, Line: line, Reason: derr.Error()})
			continue
		}

		records++
		if !emit(rec) {
			return records, malformed, nil
		}
	}

	logging.Component(ctx, "source").Debug().
		Str("object", key).
		Int("records", records).
		Dur("elapsed", time.Since(start)).
		Msg("Object decoded")

	return records, malformed, nil
}

func (r *Reader[T]) logMalformed(ctx context.Context, merr *MalformedRecordError) {
	logging.Component(ctx, "source").Warn().
		Str("dataset", r.opts.Dataset).
		Str("object", merr.Object).
		Int("line", merr.Line).
		Err(merr).
		Msg("Skipping malformed record")
}

// lineReader splits input on newlines, bounding the length of a line.
type lineReader struct {
	br  *bufio.Reader
	max int
	buf []byte
}

func newLineReader(rd io.Reader, maxLine int) *lineReader {
	return &lineReader{br: bufio.NewReader(rd), max: maxLine}
}

// next returns the next line, valid until the following call. A line longer
// than the limit is consumed and reported with tooLong set. At end of input
// err is io.EOF.
func (lr *lineReader) next() (line []byte, tooLong bool, err error) {
	lr.buf = lr.buf[:0]
	for {
		chunk, rerr := lr.br.ReadSlice('\n')

		if !tooLong {
			n := len(lr.buf) + len(chunk)
			if rerr == nil {
				n-- // terminating newline
			}
			if n > lr.max {
				tooLong = true
				lr.buf = lr.buf[:0]
			} else {
				lr.buf = append(lr.buf, chunk...)
			}
		}

		switch {
		case errors.Is(rerr, bufio.ErrBufferFull):
			continue
		case errors.Is(rerr, io.EOF):
			if !tooLong && len(lr.buf) == 0 {
				return nil, false, io.EOF
			}
			if tooLong {
				return nil, true, nil
			}
			return lr.buf, false, nil
		case rerr != nil:
			return nil, false, rerr
		case tooLong:
			return nil, true, nil
		default:
			return lr.buf, false, nil
		}
	}
}

// Flatten concatenates partition records in partition order.
func Flatten[T any](parts []Partition[T]) []T {
	n := 0
	for i := range parts {
		n += len(parts[i].Records)
	}
	out := make([]T, 0, n)
	for i := range parts {
		out = append(out, parts[i].Records...)
	}
	return out
}
