// internal/state/mock.go
package state

import (
	"slices"
	"sync"
)

// Mock is an in-memory Store for tests.
type Mock struct {
	mu         sync.Mutex
	repeatMode *string
	currentID  *uint64
	trackIDs   []uint64
	hasIDs     bool
	lofi       bool
	distortion bool
	writes     int
}

// NewMock creates an empty mock store.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) RepeatMode() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.repeatMode == nil {
		return "", false
	}
	return *m.repeatMode, true
}

func (m *Mock) SetRepeatMode(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeatMode = &mode
	m.writes++
}

func (m *Mock) CurrentTrackID() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentID == nil {
		return 0, false
	}
	return *m.currentID, true
}

func (m *Mock) SetCurrentTrackID(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentID = &id
	m.writes++
}

func (m *Mock) TrackIDs() ([]uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.trackIDs), m.hasIDs
}

func (m *Mock) SetTrackIDs(ids []uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackIDs = slices.Clone(ids)
	m.hasIDs = true
	m.writes++
}

func (m *Mock) Lofi() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lofi
}

func (m *Mock) SetLofi(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lofi = enabled
	m.writes++
}

func (m *Mock) Distortion() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.distortion
}

func (m *Mock) SetDistortion(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.distortion = enabled
	m.writes++
}

// Test helpers

// Writes returns how many setters were called.
func (m *Mock) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Verify Mock implements Store at compile time.
var _ Store = (*Mock)(nil)
