// Package library provides the track catalog the playback queue is built from.
package library

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

// Track is an immutable library entry.
type Track struct {
	ID       uint64 // stable across rescans, derived from Path
	Path     string // asset reference, empty when the track cannot be played
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// Playable reports whether the track has an asset that can be rendered.
func (t Track) Playable() bool {
	return t.Path != ""
}

// String formats the track as "Artist - Title" for logs and notifications.
func (t Track) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// Library resolves persistent track ids and builds playlists.
type Library interface {
	// MakePlaylist returns every track in the library, shuffled if requested.
	MakePlaylist(ctx context.Context, shuffled bool) ([]Track, error)
	// FindTracks returns the tracks for ids in the order given.
	// Unknown ids are skipped.
	FindTracks(ctx context.Context, ids []uint64) ([]Track, error)
	// AreTrackIDsValid reports whether every id resolves to a track.
	AreTrackIDsValid(ctx context.Context, ids []uint64) (bool, error)
}

// Authorizer grants access to the library.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// TrackID derives the persistent id for an asset path.
func TrackID(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return h.Sum64()
}
