package playback

import (
	"context"
	"time"

	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/playlist"
	"github.com/llehouerou/tempo/internal/seeker"
)

// Service defines the playback engine contract.
//
// Actions never return playback failures: they surface as StateError
// statuses on the event stream.
type Service interface {
	// Playback control
	Authorize(ctx context.Context)
	PlayTrack(id uint64)
	Play()
	PlayAt(pos Position)
	Pause()
	Stop()
	Toggle()
	Next()
	Previous()
	Shuffle(ctx context.Context)

	// Position control
	SetClock(t time.Duration, scrubbing bool)
	StartSeeking(dir seeker.Direction)
	StopSeeking()

	// Mode control
	RepeatMode() playlist.RepeatMode
	SetRepeatMode(mode playlist.RepeatMode)
	ToggleRepeatMode() playlist.RepeatMode

	// Effect toggles (persisted only)
	Lofi() bool
	SetLofi(enabled bool)
	Distortion() bool
	SetDistortion(enabled bool)

	// State queries
	Status() Status
	CurrentTime() time.Duration
	Duration() time.Duration
	CurrentTrack() (library.Track, bool)
	CurrentIndex() int
	Tracks() []library.Track
	HasNext() bool
	HasPrevious() bool

	// Event subscription
	Subscribe() *Subscription
	Observe(fn func(Status)) (cancel func())

	// Lifecycle
	Close() error
}

// Verify Engine implements Service at compile time.
var _ Service = (*Engine)(nil)
