package playlist

import (
	"context"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/state"
)

// TrackStore holds the playing queue, the current index and the repeat
// mode, and persists them through a state.Store.
//
// The queue is only ever replaced wholesale (Load, Create); the current
// index is kept inside the queue bounds whenever the queue is non-empty.
type TrackStore struct {
	mu     sync.RWMutex
	lib    library.Library
	store  state.Store
	tracks []library.Track
	index  int
	repeat RepeatMode
}

// NewTrackStore creates an empty store. The repeat mode is restored from
// store right away; the queue is restored by Load.
func NewTrackStore(lib library.Library, store state.Store) *TrackStore {
	s := &TrackStore{lib: lib, store: store}
	if mode, ok := store.RepeatMode(); ok {
		s.repeat = ParseRepeatMode(mode)
	}
	return s
}

// Load rebuilds the queue from the persisted track ids when every one of
// them still resolves in the library, restoring the current track.
// Otherwise it falls back to Create with a shuffled playlist.
func (s *TrackStore) Load(ctx context.Context) error {
	ids, _ := s.store.TrackIDs()
	if len(ids) > 0 {
		valid, err := s.lib.AreTrackIDsValid(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "validate persisted queue")
		}
		if valid {
			tracks, err := s.lib.FindTracks(ctx, ids)
			if err != nil {
				return errors.Wrap(err, "restore persisted queue")
			}
			if len(tracks) == len(ids) {
				s.mu.Lock()
				s.tracks = tracks
				s.index = 0
				if id, ok := s.store.CurrentTrackID(); ok {
					s.index = indexOf(tracks, id)
				}
				s.persistLocked()
				s.mu.Unlock()
				return nil
			}
		}
	}
	return s.Create(ctx, true)
}

// Create replaces the queue with every library track and resets the
// current index to the first track.
func (s *TrackStore) Create(ctx context.Context, shuffled bool) error {
	tracks, err := s.lib.MakePlaylist(ctx, shuffled)
	if err != nil {
		return errors.Wrap(err, "make playlist")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = tracks
	s.index = 0
	s.persistLocked()
	return nil
}

// Prime makes the track with id current, or the first track if id is not
// in the queue.
func (s *TrackStore) Prime(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = indexOf(s.tracks, id)
	s.persistLocked()
}

// Advance returns the index dir would move to without changing anything.
func (s *TrackStore) Advance(dir Direction) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Advance(s.index, len(s.tracks), dir, s.repeat)
}

// Move advances the current index in dir and returns the new current
// track. It changes nothing when there is no neighbour.
func (s *TrackStore) Move(dir Direction) (library.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := Advance(s.index, len(s.tracks), dir, s.repeat)
	if !ok {
		return library.Track{}, false
	}
	s.index = next
	s.persistLocked()
	return s.tracks[next], true
}

// HasNext reports whether Move(Forward) would succeed.
func (s *TrackStore) HasNext() bool {
	_, ok := s.Advance(Forward)
	return ok
}

// HasPrevious reports whether Move(Backward) would succeed.
func (s *TrackStore) HasPrevious() bool {
	_, ok := s.Advance(Backward)
	return ok
}

// Current returns the current track, or false if the queue is empty.
func (s *TrackStore) Current() (library.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index < 0 || s.index >= len(s.tracks) {
		return library.Track{}, false
	}
	return s.tracks[s.index], true
}

// CurrentIndex returns the index of the current track.
func (s *TrackStore) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Tracks returns a copy of the queue.
func (s *TrackStore) Tracks() []library.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tracks)
}

// Len returns the number of tracks in the queue.
func (s *TrackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (s *TrackStore) IsEmpty() bool {
	return s.Len() == 0
}

// RepeatMode returns the current repeat mode.
func (s *TrackStore) RepeatMode() RepeatMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repeat
}

// SetRepeatMode changes and persists the repeat mode.
func (s *TrackStore) SetRepeatMode(mode RepeatMode) {
	s.mu.Lock()
	s.repeat = mode
	s.mu.Unlock()
	s.store.SetRepeatMode(mode.String())
}

// CycleRepeatMode moves to the next repeat mode and returns it.
func (s *TrackStore) CycleRepeatMode() RepeatMode {
	s.mu.Lock()
	s.repeat = s.repeat.Next()
	mode := s.repeat
	s.mu.Unlock()
	s.store.SetRepeatMode(mode.String())
	return mode
}

func (s *TrackStore) persistLocked() {
	ids := make([]uint64, len(s.tracks))
	for i, t := range s.tracks {
		ids[i] = t.ID
	}
	s.store.SetTrackIDs(ids)
	if s.index >= 0 && s.index < len(s.tracks) {
		s.store.SetCurrentTrackID(s.tracks[s.index].ID)
	}
}

func indexOf(tracks []library.Track, id uint64) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return 0
}
