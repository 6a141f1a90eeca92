// internal/player/state.go
package player

// State is the rendering state of a Resource.
//
//	┌──────────┐      play       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Playing │
//	└──────────┘                 └──────────┘
//	     ▲                           │  ▲
//	     │ stop                pause │  │ play
//	     │                           ▼  │
//	     │                       ┌──────────┐
//	     └───────────────────────│  Paused  │
//	                  stop       └──────────┘
//
// A stopped resource has released its track; play on it fails.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive reports whether the resource holds a started track.
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// CanPause reports whether Pause has an effect.
func (s State) CanPause() bool {
	return s == Playing
}
