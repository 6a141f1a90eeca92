package playlist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/state"
)

var (
	trackA = library.Track{ID: 10, Path: "/a.mp3", Title: "A"}
	trackB = library.Track{ID: 20, Path: "/b.mp3", Title: "B"}
	trackC = library.Track{ID: 30, Path: "/c.mp3", Title: "C"}
)

func reverse(tracks []library.Track) {
	for i, j := 0, len(tracks)-1; i < j; i, j = i+1, j-1 {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}
}

func newStore(t *testing.T, tracks ...library.Track) (*TrackStore, *library.Mock, *state.Mock) {
	t.Helper()
	lib := library.NewMock(tracks...)
	st := state.NewMock()
	s := NewTrackStore(lib, st)
	require.NoError(t, s.Create(context.Background(), false))
	return s, lib, st
}

func ids(tracks []library.Track) []uint64 {
	out := make([]uint64, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestCreate_ResetsIndexAndPersists(t *testing.T) {
	s, lib, st := newStore(t, trackA, trackB, trackC)
	s.Prime(trackC.ID)
	lib.SetShuffle(reverse)

	require.NoError(t, s.Create(context.Background(), true))

	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, []uint64{30, 20, 10}, ids(s.Tracks()))
	persisted, _ := st.TrackIDs()
	assert.Equal(t, []uint64{30, 20, 10}, persisted)
	current, _ := st.CurrentTrackID()
	assert.Equal(t, trackC.ID, current)
	assert.Equal(t, []bool{false, true}, lib.ShuffledRequests())
}

func TestCreate_LibraryError(t *testing.T) {
	lib := library.NewMock()
	lib.SetError(errors.New("boom"))
	s := NewTrackStore(lib, state.NewMock())

	err := s.Create(context.Background(), true)

	assert.Error(t, err)
	assert.True(t, s.IsEmpty())
}

func TestLoad_RestoresPersistedQueue(t *testing.T) {
	lib := library.NewMock(trackA, trackB, trackC)
	st := state.NewMock()
	st.SetTrackIDs([]uint64{30, 10, 20})
	st.SetCurrentTrackID(10)

	s := NewTrackStore(lib, st)
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, []uint64{30, 10, 20}, ids(s.Tracks()))
	assert.Equal(t, 1, s.CurrentIndex())
	assert.Empty(t, lib.ShuffledRequests(), "restore must not rebuild the playlist")
}

func TestLoad_UnknownCurrentDefaultsToZero(t *testing.T) {
	lib := library.NewMock(trackA, trackB)
	st := state.NewMock()
	st.SetTrackIDs([]uint64{20, 10})
	st.SetCurrentTrackID(99)

	s := NewTrackStore(lib, st)
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, 0, s.CurrentIndex())
}

func TestLoad_FallsBackToShuffledCreate(t *testing.T) {
	tests := []struct {
		name  string
		setup func(st *state.Mock)
	}{
		{"nothing persisted", func(*state.Mock) {}},
		{"empty list", func(st *state.Mock) { st.SetTrackIDs(nil) }},
		{"stale id", func(st *state.Mock) { st.SetTrackIDs([]uint64{10, 99}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := library.NewMock(trackA, trackB)
			st := state.NewMock()
			tt.setup(st)

			s := NewTrackStore(lib, st)
			require.NoError(t, s.Load(context.Background()))

			assert.Equal(t, []bool{true}, lib.ShuffledRequests())
			assert.Equal(t, 2, s.Len())
			assert.Equal(t, 0, s.CurrentIndex())
		})
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	lib := library.NewMock(trackA, trackB, trackC)
	lib.SetShuffle(reverse)
	st := state.NewMock()

	first := NewTrackStore(lib, st)
	require.NoError(t, first.Load(context.Background()))
	first.Prime(trackB.ID)

	second := NewTrackStore(lib, st)
	require.NoError(t, second.Load(context.Background()))

	assert.Equal(t, ids(first.Tracks()), ids(second.Tracks()))
	assert.Equal(t, first.CurrentIndex(), second.CurrentIndex())
}

func TestPrime(t *testing.T) {
	s, _, st := newStore(t, trackA, trackB, trackC)

	s.Prime(trackC.ID)
	assert.Equal(t, 2, s.CurrentIndex())
	current, _ := st.CurrentTrackID()
	assert.Equal(t, trackC.ID, current)

	s.Prime(12345)
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestMove_NoneAtEndChangesNothing(t *testing.T) {
	s, _, st := newStore(t, trackA, trackB, trackC)
	s.Prime(trackC.ID)
	writes := st.Writes()

	_, ok := s.Move(Forward)

	assert.False(t, ok)
	assert.Equal(t, 2, s.CurrentIndex())
	assert.Equal(t, writes, st.Writes())
}

func TestMove_PersistsCurrent(t *testing.T) {
	s, _, st := newStore(t, trackA, trackB, trackC)
	s.Prime(trackB.ID)

	track, ok := s.Move(Forward)

	require.True(t, ok)
	assert.Equal(t, trackC, track)
	current, _ := st.CurrentTrackID()
	assert.Equal(t, trackC.ID, current)
	assert.False(t, s.HasNext())
	assert.True(t, s.HasPrevious())
}

func TestRepeatMode_CycleAndPersist(t *testing.T) {
	s, _, st := newStore(t, trackA)

	assert.Equal(t, RepeatNone, s.RepeatMode())
	assert.Equal(t, RepeatOne, s.CycleRepeatMode())
	assert.Equal(t, RepeatAll, s.CycleRepeatMode())
	assert.Equal(t, RepeatNone, s.CycleRepeatMode())

	s.SetRepeatMode(RepeatAll)
	mode, _ := st.RepeatMode()
	assert.Equal(t, "all", mode)

	restored := NewTrackStore(library.NewMock(), st)
	assert.Equal(t, RepeatAll, restored.RepeatMode())
}

func TestCurrent_EmptyQueue(t *testing.T) {
	s := NewTrackStore(library.NewMock(), state.NewMock())

	_, ok := s.Current()

	assert.False(t, ok)
	assert.True(t, s.IsEmpty())
	assert.False(t, s.HasNext())
	assert.False(t, s.HasPrevious())
}
