package playback

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Playback failures. They are delivered as StateError statuses, never
// returned from playback actions.
var (
	ErrAuthorizationDenied     = errors.New("authorization denied")
	ErrNoTracksAvailable       = errors.New("no tracks available")
	ErrVolumeZero              = errors.New("output volume is zero")
	ErrAudioConstructionFailed = errors.New("audio resource construction failed")
	ErrAudioStartFailed        = errors.New("audio rendering failed to start")
	ErrEndOfQueueReached       = errors.New("end of queue reached")
)

// failure tags cause with a playback sentinel. Both the sentinel and the
// cause stay reachable through errors.Is of either errors package.
func failure(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Err returns the sentinel error for the kind, or nil for KindNone.
func (k ErrorKind) Err() error {
	switch k {
	case KindNoMusic:
		return ErrNoTracksAvailable
	case KindAuth:
		return ErrAuthorizationDenied
	case KindPlay:
		return ErrAudioStartFailed
	case KindFinished:
		return ErrEndOfQueueReached
	case KindVolume:
		return ErrVolumeZero
	default:
		return nil
	}
}

// KindOf maps an error back to its ErrorKind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNoTracksAvailable):
		return KindNoMusic
	case errors.Is(err, ErrAuthorizationDenied):
		return KindAuth
	case errors.Is(err, ErrAudioConstructionFailed), errors.Is(err, ErrAudioStartFailed):
		return KindPlay
	case errors.Is(err, ErrEndOfQueueReached):
		return KindFinished
	case errors.Is(err, ErrVolumeZero):
		return KindVolume
	default:
		return KindPlay
	}
}
