// internal/state/interface.go
package state

// Store is the key-value persistence contract for user state.
//
// Getters report whether a value was ever stored. Setters are
// fire-and-forget: they never fail from the caller's point of view and the
// latest write wins.
type Store interface {
	RepeatMode() (string, bool)
	SetRepeatMode(mode string)

	CurrentTrackID() (uint64, bool)
	SetCurrentTrackID(id uint64)

	TrackIDs() ([]uint64, bool)
	SetTrackIDs(ids []uint64)

	Lofi() bool
	SetLofi(enabled bool)

	Distortion() bool
	SetDistortion(enabled bool)
}

// UserState is a point-in-time copy of everything in a Store.
type UserState struct {
	RepeatMode     string
	CurrentTrackID uint64
	HasCurrent     bool
	TrackIDs       []uint64
	Lofi           bool
	Distortion     bool
}

// Snapshot reads every value from s.
func Snapshot(s Store) UserState {
	var us UserState
	us.RepeatMode, _ = s.RepeatMode()
	us.CurrentTrackID, us.HasCurrent = s.CurrentTrackID()
	us.TrackIDs, _ = s.TrackIDs()
	us.Lofi = s.Lofi()
	us.Distortion = s.Distortion()
	return us
}

// Verify Manager implements Store at compile time.
var _ Store = (*Manager)(nil)
