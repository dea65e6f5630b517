// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package transform

import (
	"cmp"
	"slices"

	"github.com/tomtom215/soundlake/internal/models"
)

// firstByOrigin keeps, for each key, the record with the earliest origin.
// Records with an empty key are dropped.
func firstByOrigin(records []models.RawSongRecord, key func(*models.RawSongRecord) string) map[string]*models.RawSongRecord {
	winners := make(map[string]*models.RawSongRecord)
	for i := range records {
		rec := &records[i]
		k := key(rec)
		if k == "" {
			continue
		}
		if cur, ok := winners[k]; !ok || rec.Origin.Before(cur.Origin) {
			winners[k] = rec
		}
	}
	return winners
}

// ExtractSongs projects song records to the songs dimension, one row per song_id.
func ExtractSongs(records []models.RawSongRecord) []models.Song {
	winners := firstByOrigin(records, func(r *models.RawSongRecord) string { return r.SongID })

	songs := make([]models.Song, 0, len(winners))
	for _, rec := range winners {
		songs = append(songs, models.Song{
			SongID:   rec.SongID,
			Title:    rec.Title,
			ArtistID: rec.ArtistID,
			Year:     rec.Year,
			Duration: rec.Duration,
		})
	}
	slices.SortFunc(songs, func(a, b models.Song) int { return cmp.Compare(a.SongID, b.SongID) })
	return songs
}

// ExtractArtists projects song records to the artists dimension, one row per artist_id.
// Records without an artist_id contribute no artist.
func ExtractArtists(records []models.RawSongRecord) []models.Artist {
	winners := firstByOrigin(records, func(r *models.RawSongRecord) string { return r.ArtistID })

	artists := make([]models.Artist, 0, len(winners))
	for _, rec := range winners {
		artists = append(artists, models.Artist{
			ArtistID:  rec.ArtistID,
			Name:      rec.ArtistName,
			Location:  rec.ArtistLocation,
			Latitude:  rec.ArtistLatitude,
			Longitude: rec.ArtistLongitude,
		})
	}
	slices.SortFunc(artists, func(a, b models.Artist) int { return cmp.Compare(a.ArtistID, b.ArtistID) })
	return artists
}
