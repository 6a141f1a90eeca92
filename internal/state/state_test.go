package state

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbutil "github.com/llehouerou/tempo/internal/db"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	conn, err := dbutil.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	m, err := New(conn, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestManager_EmptyState(t *testing.T) {
	m := newTestManager(t)

	_, ok := m.RepeatMode()
	assert.False(t, ok)
	_, ok = m.CurrentTrackID()
	assert.False(t, ok)
	_, ok = m.TrackIDs()
	assert.False(t, ok)
	assert.False(t, m.Lofi())
	assert.False(t, m.Distortion())
}

func TestManager_ReadsOwnWritesBeforeFlush(t *testing.T) {
	m := newTestManager(t)

	m.SetRepeatMode("all")
	m.SetCurrentTrackID(7)
	m.SetTrackIDs([]uint64{3, 7, 9})

	mode, ok := m.RepeatMode()
	assert.True(t, ok)
	assert.Equal(t, "all", mode)
	id, ok := m.CurrentTrackID()
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)
	ids, ok := m.TrackIDs()
	assert.True(t, ok)
	assert.Equal(t, []uint64{3, 7, 9}, ids)
}

func TestManager_FlushPersistsAcrossReopen(t *testing.T) {
	m := newTestManager(t)

	m.SetRepeatMode("one")
	m.SetCurrentTrackID(1<<63 + 1)
	m.SetTrackIDs([]uint64{1<<63 + 1, 2})
	m.SetLofi(true)
	m.SetDistortion(true)
	m.SetRepeatMode("all") // latest write wins
	require.NoError(t, m.Flush())

	reopened, err := New(m.DB(), zerolog.Nop())
	require.NoError(t, err)

	got := Snapshot(reopened)
	assert.Equal(t, UserState{
		RepeatMode:     "all",
		CurrentTrackID: 1<<63 + 1,
		HasCurrent:     true,
		TrackIDs:       []uint64{1<<63 + 1, 2},
		Lofi:           true,
		Distortion:     true,
	}, got)
}

func TestManager_DebouncedWrite(t *testing.T) {
	m := newTestManager(t)
	m.debounce = 10 * time.Millisecond

	m.SetCurrentTrackID(5)

	assert.Eventually(t, func() bool {
		var v string
		err := m.DB().QueryRow(`SELECT value FROM user_state WHERE key = ?`, keyCurrentTrackID).Scan(&v)
		return err == nil && v == "5"
	}, time.Second, 5*time.Millisecond)
}

func storedValue(t *testing.T, m *Manager, key string) string {
	t.Helper()
	var v string
	err := m.DB().QueryRow(`SELECT value FROM user_state WHERE key = ?`, key).Scan(&v)
	require.NoError(t, err)
	return v
}

func TestManager_StaleSaveAfterFlushIsDropped(t *testing.T) {
	m := newTestManager(t)
	m.debounce = time.Hour

	m.SetRepeatMode("one")
	m.mu.Lock()
	stale := m.saveGen
	m.mu.Unlock()

	m.SetRepeatMode("all")
	require.NoError(t, m.Flush())
	m.SetRepeatMode("off")

	// The first timer fires late, after Flush and a newer set.
	m.scheduledSave(stale)
	assert.Equal(t, "all", storedValue(t, m, keyRepeatMode))

	require.NoError(t, m.Flush())
	assert.Equal(t, "off", storedValue(t, m, keyRepeatMode))
}

func TestManager_ConcurrentSetAndFlushKeepsLatest(t *testing.T) {
	m := newTestManager(t)
	m.debounce = time.Microsecond

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			m.SetCurrentTrackID(uint64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			assert.NoError(t, m.Flush())
		}
	}()
	wg.Wait()
	require.NoError(t, m.Flush())

	// Let any timer still in flight run.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "199", storedValue(t, m, keyCurrentTrackID))
}

func TestManager_NoWritesAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	m, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	m.debounce = time.Hour

	m.SetLofi(true)
	m.mu.Lock()
	gen := m.saveGen
	m.mu.Unlock()
	require.NoError(t, m.Close())

	m.scheduledSave(gen)
	m.SetLofi(false)
	assert.False(t, m.Lofi())
	m.mu.Lock()
	assert.Nil(t, m.saveTimer)
	assert.Empty(t, m.pending)
	m.mu.Unlock()

	m, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer m.Close()
	assert.True(t, m.Lofi())
}

func TestManager_EmptyTrackIDsAreStored(t *testing.T) {
	m := newTestManager(t)

	m.SetTrackIDs(nil)

	ids, ok := m.TrackIDs()
	assert.True(t, ok)
	assert.Empty(t, ids)
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	m, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	m.SetLofi(true)
	require.NoError(t, m.Close())

	m, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer m.Close()
	assert.True(t, m.Lofi())
}

func TestMock_CountsWrites(t *testing.T) {
	m := NewMock()
	m.SetTrackIDs([]uint64{1})
	m.SetCurrentTrackID(1)

	assert.Equal(t, 2, m.Writes())
	ids, ok := m.TrackIDs()
	assert.True(t, ok)
	assert.Equal(t, []uint64{1}, ids)
}
