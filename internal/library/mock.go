// internal/library/mock.go
package library

import (
	"context"
	"slices"
	"sync"
)

// Mock is an in-memory Library for tests.
type Mock struct {
	mu       sync.Mutex
	tracks   []Track
	shuffle  func([]Track)
	err      error
	authErr  error
	calls    []string
	shuffled []bool
}

// NewMock creates a mock library holding tracks in catalog order.
func NewMock(tracks ...Track) *Mock {
	return &Mock{tracks: slices.Clone(tracks)}
}

func (m *Mock) MakePlaylist(_ context.Context, shuffled bool) ([]Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "MakePlaylist")
	m.shuffled = append(m.shuffled, shuffled)
	if m.err != nil {
		return nil, m.err
	}
	tracks := slices.Clone(m.tracks)
	if shuffled && m.shuffle != nil {
		m.shuffle(tracks)
	}
	return tracks, nil
}

func (m *Mock) FindTracks(_ context.Context, ids []uint64) ([]Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "FindTracks")
	if m.err != nil {
		return nil, m.err
	}
	var result []Track
	for _, id := range ids {
		for _, t := range m.tracks {
			if t.ID == id {
				result = append(result, t)
				break
			}
		}
	}
	return result, nil
}

func (m *Mock) AreTrackIDsValid(ctx context.Context, ids []uint64) (bool, error) {
	found, err := m.FindTracks(ctx, ids)
	if err != nil {
		return false, err
	}
	return len(ids) > 0 && len(found) == len(ids), nil
}

// Authorize implements Authorizer.
func (m *Mock) Authorize(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authErr
}

// Test helpers

// SetTracks replaces the library contents.
func (m *Mock) SetTracks(tracks ...Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = slices.Clone(tracks)
}

// SetShuffle sets the permutation applied to shuffled playlists.
// Without one, shuffled playlists keep catalog order.
func (m *Mock) SetShuffle(fn func([]Track)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shuffle = fn
}

// SetError makes every query fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetAuthError makes Authorize fail with err.
func (m *Mock) SetAuthError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authErr = err
}

// ShuffledRequests returns the shuffled argument of every MakePlaylist call.
func (m *Mock) ShuffledRequests() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.shuffled)
}

// Verify Mock implements Library and Authorizer at compile time.
var (
	_ Library    = (*Mock)(nil)
	_ Authorizer = (*Mock)(nil)
)
