package state

import (
	"database/sql"
)

const currentSchemaVersion = 1

const (
	keyRepeatMode     = "repeat_mode"
	keyCurrentTrackID = "current_track_id"
	keyTrackIDs       = "track_ids"
	keyLofi           = "lofi_enabled"
	keyDistortion     = "distortion_enabled"
)

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS user_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	return err
}

func loadValues(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM user_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, rows.Err()
}
