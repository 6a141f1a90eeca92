// internal/playback/state.go
package playback

import "fmt"

// State represents the playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	// StateError is a stopped state carrying an ErrorKind.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// ErrorKind classifies a StateError.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNoMusic
	KindAuth
	KindPlay
	KindFinished
	KindVolume
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNoMusic:
		return "noMusic"
	case KindAuth:
		return "auth"
	case KindPlay:
		return "play"
	case KindFinished:
		return "finished"
	case KindVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// Status is the value delivered to consumers on every state change.
// Kind and Err are only set when State is StateError.
type Status struct {
	State State
	Kind  ErrorKind
	Err   error
}

// Stopped, Playing and Paused are the non-error statuses.
var (
	Stopped = Status{State: StateStopped}
	Playing = Status{State: StatePlaying}
	Paused  = Status{State: StatePaused}
)

// Failed builds an error status. err defaults to the kind's sentinel.
func Failed(kind ErrorKind, err error) Status {
	if err == nil {
		err = kind.Err()
	}
	return Status{State: StateError, Kind: kind, Err: err}
}

// IsError reports whether the status is an error.
func (s Status) IsError() bool {
	return s.State == StateError
}

func (s Status) String() string {
	if s.State == StateError {
		return fmt.Sprintf("Error(%s)", s.Kind)
	}
	return s.State.String()
}

// Position selects the track play resolves relative to the current one.
type Position int

const (
	PositionCurrent Position = iota
	PositionNext
	PositionPrevious
)

func (p Position) String() string {
	switch p {
	case PositionNext:
		return "next"
	case PositionPrevious:
		return "previous"
	default:
		return "current"
	}
}
