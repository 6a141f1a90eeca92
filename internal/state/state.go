package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	dbutil "github.com/llehouerou/tempo/internal/db"
)

const (
	appName      = "tempo"
	dbFileName   = "tempo.db"
	saveDebounce = 500 * time.Millisecond
)

// Manager is a sqlite-backed Store.
//
// Reads are served from an in-memory copy loaded at open. Writes update the
// copy immediately and reach the database after a short debounce, so a
// burst of index changes costs one transaction.
type Manager struct {
	db     *sql.DB
	ownsDB bool
	log    zerolog.Logger

	// writeMu orders batches: a batch is taken and written under it, so an
	// older batch never lands after a newer one.
	writeMu sync.Mutex

	mu        sync.Mutex
	values    map[string]string
	pending   map[string]string
	saveTimer *time.Timer
	saveGen   uint64
	closed    bool
	debounce  time.Duration
}

// DefaultPath returns the database location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens (or creates) the state database at path. An empty path uses
// DefaultPath.
func Open(path string, log zerolog.Logger) (*Manager, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, errors.Wrap(err, "resolve state path")
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create state directory")
	}

	conn, err := dbutil.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := New(conn, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	m.ownsDB = true
	return m, nil
}

// New creates a Manager on an already opened database.
func New(db *sql.DB, log zerolog.Logger) (*Manager, error) {
	if err := initSchema(db); err != nil {
		return nil, errors.Wrap(err, "init state schema")
	}
	values, err := loadValues(db)
	if err != nil {
		return nil, errors.Wrap(err, "load user state")
	}
	return &Manager{
		db:       db,
		log:      log,
		values:   values,
		pending:  make(map[string]string),
		debounce: saveDebounce,
	}, nil
}

// DB returns the underlying database so other stores can share it.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Close flushes pending writes and closes the database if Open created it.
// Values set afterwards stay in memory only.
func (m *Manager) Close() error {
	m.writeMu.Lock()
	err := m.flushLocked()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.writeMu.Unlock()

	if m.ownsDB {
		return errors.CombineErrors(err, m.db.Close())
	}
	return err
}

// Flush writes pending values now.
func (m *Manager) Flush() error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.flushLocked()
}

func (m *Manager) flushLocked() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	if m.saveTimer != nil {
		m.saveTimer.Stop()
		m.saveTimer = nil
	}
	m.saveGen++
	pending := m.pending
	m.pending = make(map[string]string)
	m.mu.Unlock()

	return m.write(pending)
}

// scheduledSave runs when the debounce timer of generation gen fires. A
// timer superseded by a later set, a Flush or Close does nothing.
func (m *Manager) scheduledSave(gen uint64) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	if m.closed || gen != m.saveGen {
		m.mu.Unlock()
		return
	}
	m.saveGen++
	pending := m.pending
	m.pending = make(map[string]string)
	m.saveTimer = nil
	m.mu.Unlock()

	if err := m.write(pending); err != nil {
		m.log.Warn().Err(err).Msg("persist user state")
	}
}

func (m *Manager) write(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().Unix()
	err := dbutil.WithTx(context.Background(), m.db, func(tx *sql.Tx) error {
		for k, v := range values {
			_, err := tx.Exec(`
				INSERT INTO user_state (key, value, updated_at)
				VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET
					value = excluded.value,
					updated_at = excluded.updated_at
			`, k, v, now)
			if err != nil {
				return errors.Wrapf(err, "save %s", k)
			}
		}
		return nil
	})
	return errors.Wrap(err, "save user state")
}

func (m *Manager) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Manager) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	if m.closed {
		return
	}
	m.pending[key] = value

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	m.saveGen++
	gen := m.saveGen
	m.saveTimer = time.AfterFunc(m.debounce, func() { m.scheduledSave(gen) })
}

func (m *Manager) RepeatMode() (string, bool) {
	return m.get(keyRepeatMode)
}

func (m *Manager) SetRepeatMode(mode string) {
	m.set(keyRepeatMode, mode)
}

func (m *Manager) CurrentTrackID() (uint64, bool) {
	v, ok := m.get(keyCurrentTrackID)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (m *Manager) SetCurrentTrackID(id uint64) {
	m.set(keyCurrentTrackID, strconv.FormatUint(id, 10))
}

func (m *Manager) TrackIDs() ([]uint64, bool) {
	v, ok := m.get(keyTrackIDs)
	if !ok {
		return nil, false
	}
	var ids []uint64
	if err := json.Unmarshal([]byte(v), &ids); err != nil {
		m.log.Warn().Err(err).Msg("discarding unreadable track ids")
		return nil, false
	}
	return ids, true
}

func (m *Manager) SetTrackIDs(ids []uint64) {
	if ids == nil {
		ids = []uint64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		m.log.Warn().Err(err).Msg("encode track ids")
		return
	}
	m.set(keyTrackIDs, string(data))
}

func (m *Manager) Lofi() bool {
	return m.getBool(keyLofi)
}

func (m *Manager) SetLofi(enabled bool) {
	m.set(keyLofi, strconv.FormatBool(enabled))
}

func (m *Manager) Distortion() bool {
	return m.getBool(keyDistortion)
}

func (m *Manager) SetDistortion(enabled bool) {
	m.set(keyDistortion, strconv.FormatBool(enabled))
}

func (m *Manager) getBool(key string) bool {
	v, ok := m.get(key)
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}
