// Package remote exposes playback to an OS remote-control surface: media
// keys, desktop widgets and MPRIS clients.
package remote

import (
	"time"

	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/playback"
	"github.com/llehouerou/tempo/internal/playlist"
)

// Command is a remote-control action.
type Command int

const (
	CommandToggle Command = iota
	CommandPlay
	CommandPause
	CommandStop
	CommandPrevious
	CommandNext
	CommandSeekBackwardBegin
	CommandSeekBackwardEnd
	CommandSeekForwardBegin
	CommandSeekForwardEnd
	CommandChangePosition
	CommandChangeRepeatMode
)

// Commands lists every command in declaration order.
var Commands = []Command{
	CommandToggle, CommandPlay, CommandPause, CommandStop,
	CommandPrevious, CommandNext,
	CommandSeekBackwardBegin, CommandSeekBackwardEnd,
	CommandSeekForwardBegin, CommandSeekForwardEnd,
	CommandChangePosition, CommandChangeRepeatMode,
}

var commandNames = [...]string{
	"toggle", "play", "pause", "stop", "previous", "next",
	"seek-backward-begin", "seek-backward-end",
	"seek-forward-begin", "seek-forward-end",
	"change-position", "change-repeat-mode",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[c]
}

// Event carries the arguments of a command.
type Event struct {
	// Position is set for CommandChangePosition.
	Position time.Duration
	// RepeatMode is set for CommandChangeRepeatMode.
	RepeatMode playlist.RepeatMode
}

// Handler runs a command.
type Handler func(Event) error

// NowPlaying is the information published to the remote surface.
type NowPlaying struct {
	Track    library.Track
	HasTrack bool
	Status   playback.Status
	Repeat   playlist.RepeatMode
	Elapsed  time.Duration
	Duration time.Duration
	// Updated is when Elapsed was sampled.
	Updated time.Time
}

// Position extrapolates the elapsed time to now while playing.
func (n NowPlaying) Position(now time.Time) time.Duration {
	if n.Status.State != playback.StatePlaying || n.Updated.IsZero() {
		return n.Elapsed
	}
	pos := n.Elapsed + now.Sub(n.Updated)
	if n.Duration > 0 {
		pos = min(pos, n.Duration)
	}
	return pos
}

// CommandCenter is the remote-control surface.
type CommandCenter interface {
	// Register sets the handler for cmd and enables it.
	Register(cmd Command, h Handler)
	SetEnabled(cmd Command, enabled bool)
	SetNowPlaying(info NowPlaying)
}
