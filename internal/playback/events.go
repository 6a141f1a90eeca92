package playback

import (
	"time"

	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/playlist"
)

// StatusChange is emitted when the playback status changes. Error
// statuses are always emitted, others only when the state differs.
type StatusChange struct {
	Previous Status
	Current  Status
}

// ClockTick carries the elapsed time of the current track. It is emitted
// every clock interval while playing, once when playback starts, and on
// every SetClock.
type ClockTick struct {
	Time time.Duration
}

// RepeatModeChange is emitted when the repeat mode changes or is restored.
type RepeatModeChange struct {
	Mode playlist.RepeatMode
}

// TrackChange is emitted when playback starts on a different track.
//
// NOT emitted when the same track restarts (repeat one) or resumes from
// pause.
type TrackChange struct {
	Previous *library.Track
	Current  library.Track
	Index    int
}

// EffectsChange is emitted when an effect toggle changes.
type EffectsChange struct {
	Lofi       bool
	Distortion bool
}
