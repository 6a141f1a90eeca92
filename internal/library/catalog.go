package library

import (
	"context"
	"database/sql"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	dbutil "github.com/llehouerou/tempo/internal/db"
)

// Verify Catalog implements Library at compile time.
var _ Library = (*Catalog)(nil)

// Catalog is a sqlite-backed Library.
type Catalog struct {
	db      *sql.DB
	shuffle func([]Track)
}

// NewCatalog creates the catalog schema on db if needed.
func NewCatalog(db *sql.DB) (*Catalog, error) {
	if err := initSchema(db); err != nil {
		return nil, errors.Wrap(err, "init library schema")
	}
	if err := initSearchSchema(db); err != nil {
		return nil, errors.Wrap(err, "init search schema")
	}
	return &Catalog{db: db, shuffle: shuffleTracks}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS library_tracks (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			mtime INTEGER NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_library_tracks_artist_album ON library_tracks(artist, album);
	`)
	return err
}

func shuffleTracks(tracks []Track) {
	rand.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
}

// MakePlaylist returns all tracks ordered by artist, album and path,
// or shuffled.
func (c *Catalog) MakePlaylist(ctx context.Context, shuffled bool) ([]Track, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, path, title, artist, album, duration_ms
		FROM library_tracks
		ORDER BY artist COLLATE NOCASE, album COLLATE NOCASE, path
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query library tracks")
	}
	tracks, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}
	if shuffled {
		c.shuffle(tracks)
	}
	return tracks, nil
}

// FindTracks returns the tracks for ids in the given order.
func (c *Catalog) FindTracks(ctx context.Context, ids []uint64) ([]Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := c.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := found[id]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

// AreTrackIDsValid reports whether every id is present in the catalog.
func (c *Catalog) AreTrackIDsValid(ctx context.Context, ids []uint64) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}
	found, err := c.lookup(ctx, ids)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// lookupBatch keeps the number of bound parameters under sqlite's limit.
const lookupBatch = 500

func (c *Catalog) lookup(ctx context.Context, ids []uint64) (map[uint64]Track, error) {
	found := make(map[uint64]Track, len(ids))
	for start := 0; start < len(ids); start += lookupBatch {
		batch := ids[start:min(start+lookupBatch, len(ids))]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = int64(id) //nolint:gosec // ids round-trip through int64 storage
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		rows, err := c.db.QueryContext(ctx, `
			SELECT id, path, title, artist, album, duration_ms
			FROM library_tracks
			WHERE id IN (`+placeholders+`)
		`, args...)
		if err != nil {
			return nil, errors.Wrap(err, "lookup library tracks")
		}
		tracks, err := scanTracks(rows)
		if err != nil {
			return nil, err
		}
		for _, t := range tracks {
			found[t.ID] = t
		}
	}
	return found, nil
}

func scanTracks(rows *sql.Rows) ([]Track, error) {
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var (
			id            int64
			t             Track
			artist, album sql.NullString
			durationMs    int64
		)
		if err := rows.Scan(&id, &t.Path, &t.Title, &artist, &album, &durationMs); err != nil {
			return nil, errors.Wrap(err, "scan library track")
		}
		t.ID = uint64(id) //nolint:gosec // see lookup
		t.Artist = dbutil.NullStringValue(artist)
		t.Album = dbutil.NullStringValue(album)
		t.Duration = time.Duration(durationMs) * time.Millisecond
		tracks = append(tracks, t)
	}
	return tracks, errors.Wrap(rows.Err(), "iterate library tracks")
}

// Count returns the number of tracks in the catalog.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_tracks`).Scan(&n)
	return n, errors.Wrap(err, "count library tracks")
}

// entry is a scanned file ready to be stored.
type entry struct {
	Track
	mtime int64
}

// mtimes returns the stored modification time of every catalogued path.
func (c *Catalog) mtimes(ctx context.Context) (map[string]int64, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT path, mtime FROM library_tracks`)
	if err != nil {
		return nil, errors.Wrap(err, "query track mtimes")
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, errors.Wrap(err, "scan track mtime")
		}
		result[path] = mtime
	}
	return result, errors.Wrap(rows.Err(), "iterate track mtimes")
}

// apply upserts the scanned entries and removes paths that disappeared.
func (c *Catalog) apply(ctx context.Context, upserts []entry, removed []string) error {
	return dbutil.WithTx(ctx, c.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO library_tracks (id, path, mtime, title, artist, album, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				mtime = excluded.mtime,
				title = excluded.title,
				artist = excluded.artist,
				album = excluded.album,
				duration_ms = excluded.duration_ms
		`)
		if err != nil {
			return errors.Wrap(err, "prepare track upsert")
		}
		defer stmt.Close()

		for _, e := range upserts {
			_, err := stmt.ExecContext(ctx,
				int64(e.ID), //nolint:gosec // see lookup
				e.Path, e.mtime, e.Title, e.Artist, e.Album, e.Duration.Milliseconds())
			if err != nil {
				return errors.Wrapf(err, "upsert %s", e.Path)
			}
		}
		for _, path := range removed {
			if _, err := tx.ExecContext(ctx, `DELETE FROM library_tracks WHERE path = ?`, path); err != nil {
				return errors.Wrapf(err, "delete %s", path)
			}
		}
		return rebuildSearch(ctx, tx)
	})
}
