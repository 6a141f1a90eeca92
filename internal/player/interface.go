// internal/player/interface.go
package player

import "time"

// Delegate receives completion callbacks from a Resource.
// Callbacks may arrive on any goroutine.
type Delegate interface {
	// DidFinishPlaying is called when rendering reaches the end of the
	// track. success is false when rendering stopped early.
	DidFinishPlaying(success bool)
	// DecodeErrorOccurred is called when the track cannot be decoded
	// further.
	DecodeErrorOccurred(err error)
}

// Resource renders a single track. It is owned by one playback session
// and discarded after Stop.
type Resource interface {
	// PrepareToPlay acquires the output device and builds the render
	// chain. Play calls it when needed.
	PrepareToPlay() bool
	// Play starts or resumes rendering.
	Play() bool
	Pause()
	// Stop halts rendering and releases the track. The resource cannot be
	// played again.
	Stop()

	CurrentTime() time.Duration
	SetCurrentTime(t time.Duration)
	Duration() time.Duration

	// Volume is a level in [0, 1].
	Volume() float64
	SetVolume(level float64)

	IsPlaying() bool
	IsPaused() bool

	SetDelegate(d Delegate)
}

// Factory builds a Resource from an asset reference.
type Factory interface {
	New(path string) (Resource, error)
}

// Verify implementations at compile time.
var (
	_ Factory  = (*BeepFactory)(nil)
	_ Resource = (*beepResource)(nil)
	_ Factory  = (*MockFactory)(nil)
	_ Resource = (*MockResource)(nil)
)
