package library

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	punctuationRe   = regexp.MustCompile(`[^\w\s]`)
	multipleSpaceRe = regexp.MustCompile(`\s+`)
)

// normalize lowercases s and turns punctuation runs into single spaces.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = punctuationRe.ReplaceAllString(s, " ")
	s = multipleSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func initSearchSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS library_search USING fts5(
			search_text,
			track_id UNINDEXED,
			tokenize='trigram'
		);
	`)
	return err
}

// rebuildSearch repopulates the search index from library_tracks.
func rebuildSearch(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM library_search`); err != nil {
		return errors.Wrap(err, "clear search index")
	}
	rows, err := tx.QueryContext(ctx, `SELECT id, title, artist, album FROM library_tracks`)
	if err != nil {
		return errors.Wrap(err, "query tracks for search index")
	}
	type doc struct {
		id   int64
		text string
	}
	var docs []doc
	for rows.Next() {
		var (
			id            int64
			title         string
			artist, album sql.NullString
		)
		if err := rows.Scan(&id, &title, &artist, &album); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan track for search index")
		}
		docs = append(docs, doc{id: id, text: normalize(strings.Join([]string{artist.String, album.String, title}, " "))})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate tracks for search index")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO library_search (search_text, track_id) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare search insert")
	}
	defer stmt.Close()
	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.text, d.id); err != nil {
			return errors.Wrap(err, "insert search entry")
		}
	}
	return nil
}

// Search returns up to limit tracks whose artist, album or title contain
// every word of query, best match first. Words shorter than three
// characters never match.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	match := searchQuery(query)
	if match == "" {
		return nil, nil
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT t.id, t.path, t.title, t.artist, t.album, t.duration_ms
		FROM library_search s
		JOIN library_tracks t ON t.id = s.track_id
		WHERE s.search_text MATCH ?
		ORDER BY s.rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, errors.Wrap(err, "search library")
	}
	return scanTracks(rows)
}

// searchQuery quotes each word for trigram substring matching, with an
// implicit AND between words.
func searchQuery(query string) string {
	words := strings.Fields(normalize(query))
	if len(words) == 0 {
		return ""
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
