package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/rs/zerolog"
)

// musicExtensions lists the formats the audio backend can decode.
var musicExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
}

// IsMusicFile reports whether path has a playable extension.
func IsMusicFile(path string) bool {
	return musicExtensions[strings.ToLower(filepath.Ext(path))]
}

// Prober measures the duration of an audio file.
type Prober func(path string) (time.Duration, error)

// ScanStats summarizes a completed scan.
type ScanStats struct {
	Discovered int
	Added      int
	Updated    int
	Removed    int
	Failed     int
}

// Scanner walks library folders and keeps a Catalog in sync with them.
type Scanner struct {
	catalog *Catalog
	probe   Prober
	log     zerolog.Logger
}

// NewScanner creates a scanner. probe may be nil, in which case durations
// are left at zero.
func NewScanner(catalog *Catalog, probe Prober, log zerolog.Logger) *Scanner {
	return &Scanner{catalog: catalog, probe: probe, log: log}
}

type discovered struct {
	path  string
	mtime int64
}

// Scan walks sources and updates the catalog incrementally: files whose
// modification time is unchanged are skipped, missing files are removed.
func (s *Scanner) Scan(ctx context.Context, sources []string) (ScanStats, error) {
	var stats ScanStats

	files, err := discover(ctx, sources)
	if err != nil {
		return stats, err
	}
	stats.Discovered = len(files)

	existing, err := s.catalog.mtimes(ctx)
	if err != nil {
		return stats, err
	}

	seen := make(map[string]bool, len(files))
	var upserts []entry
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, errors.Wrap(err, "scan canceled")
		}
		seen[f.path] = true
		old, known := existing[f.path]
		if known && old == f.mtime {
			continue
		}
		track, err := s.readTrack(f.path)
		if err != nil {
			stats.Failed++
			s.log.Warn().Err(err).Str("path", f.path).Msg("skipping unreadable file")
			continue
		}
		upserts = append(upserts, entry{Track: track, mtime: f.mtime})
		if known {
			stats.Updated++
		} else {
			stats.Added++
		}
	}

	var removed []string
	for path := range existing {
		if !seen[path] {
			removed = append(removed, path)
		}
	}
	stats.Removed = len(removed)

	if err := s.catalog.apply(ctx, upserts, removed); err != nil {
		return stats, err
	}
	s.log.Debug().
		Int("discovered", stats.Discovered).
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("removed", stats.Removed).
		Msg("library scan complete")
	return stats, nil
}

func discover(ctx context.Context, sources []string) ([]discovered, error) {
	var files []discovered
	for _, src := range sources {
		err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == src {
					return walkErr
				}
				// Skip unreadable subtrees, keep walking
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !IsMusicFile(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil //nolint:nilerr // file vanished during walk
			}
			files = append(files, discovered{path: path, mtime: info.ModTime().Unix()})
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %s", src)
		}
	}
	return files, nil
}

// readTrack builds a Track from file tags, falling back to the file name.
func (s *Scanner) readTrack(path string) (Track, error) {
	t := Track{
		ID:    TrackID(path),
		Path:  path,
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	f, err := os.Open(path)
	if err != nil {
		return Track{}, errors.Wrap(err, "open")
	}
	defer f.Close()

	if m, err := tag.ReadFrom(f); err == nil {
		if m.Title() != "" {
			t.Title = m.Title()
		}
		t.Artist = m.Artist()
		if t.Artist == "" {
			t.Artist = m.AlbumArtist()
		}
		t.Album = m.Album()
	}

	if s.probe != nil {
		d, err := s.probe(path)
		if err != nil {
			return Track{}, errors.Wrap(err, "probe duration")
		}
		t.Duration = d
	}
	return t, nil
}
