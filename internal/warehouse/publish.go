// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package warehouse

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/objstore"
)

// publish replaces everything under <table>/ with files, then writes the
// success marker. On failure, objects uploaded by this call are removed.
func (w *Writer) publish(ctx context.Context, table string, files []stagedFile) error {
	prefix := table + "/"

	removed, err := objstore.DeletePrefix(ctx, w.store, prefix)
	if err != nil {
		return fmt.Errorf("clear %s: %w", w.store.URI(prefix), err)
	}
	if removed > 0 {
		logging.Component(ctx, "warehouse").Debug().Str("table", table).Int("objects", removed).Msg("Removed previous table objects")
	}

	uploaded := make([]string, 0, len(files)+1)
	for _, f := range files {
		key := prefix + f.key
		if err := w.upload(ctx, key, f.path); err != nil {
			w.rollback(ctx, uploaded)
			return err
		}
		uploaded = append(uploaded, key)
	}

	marker := prefix + SuccessMarker
	if err := w.store.Put(ctx, marker, bytes.NewReader(nil)); err != nil {
		w.rollback(ctx, uploaded)
		return fmt.Errorf("write %s: %w", w.store.URI(marker), err)
	}
	return nil
}

func (w *Writer) upload(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer closeWithLog(f, "staged file")

	if err := w.store.Put(ctx, key, f); err != nil {
		return fmt.Errorf("upload %s: %w", w.store.URI(key), err)
	}
	return nil
}

// rollback deletes keys, continuing past errors. It runs even if ctx is canceled.
func (w *Writer) rollback(ctx context.Context, keys []string) {
	cleanup := context.WithoutCancel(ctx)
	failed := 0
	for _, key := range keys {
		if err := w.store.Delete(cleanup, key); err != nil {
			failed++
			logging.Component(ctx, "warehouse").Error().Err(err).Str("key", key).Msg("Failed to remove partially published object")
		}
	}
	logging.Component(ctx, "warehouse").Warn().
		Int("objects", len(keys)).
		Int("failed", failed).
		Msg("Rolled back partial table publish")
}
