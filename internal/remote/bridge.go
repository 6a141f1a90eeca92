package remote

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/playback"
	"github.com/llehouerou/tempo/internal/playlist"
	"github.com/llehouerou/tempo/internal/seeker"
)

// Controller is the part of the playback engine driven by remote commands.
type Controller interface {
	Toggle()
	Play()
	Pause()
	Stop()
	Previous()
	Next()
	StartSeeking(dir seeker.Direction)
	StopSeeking()
	SetClock(t time.Duration, scrubbing bool)
	SetRepeatMode(mode playlist.RepeatMode)

	Status() playback.Status
	RepeatMode() playlist.RepeatMode
	CurrentTrack() (library.Track, bool)
	CurrentTime() time.Duration
	Duration() time.Duration
	HasNext() bool
	HasPrevious() bool
	Subscribe() *playback.Subscription
}

// Bridge routes remote commands to a Controller and mirrors playback
// state back onto the command center.
type Bridge struct {
	ctrl   Controller
	center CommandCenter
	log    zerolog.Logger
	now    func() time.Time

	sub  *playback.Subscription
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewBridge registers every command handler on center and starts
// following ctrl's events. Close stops it.
func NewBridge(ctrl Controller, center CommandCenter, log zerolog.Logger) *Bridge {
	b := &Bridge{
		ctrl:   ctrl,
		center: center,
		log:    log.With().Str("component", "remote").Logger(),
		now:    time.Now,
		sub:    ctrl.Subscribe(),
		stop:   make(chan struct{}),
	}
	b.register()
	b.Refresh()

	b.wg.Add(1)
	go b.run()
	return b
}

func (b *Bridge) register() {
	simple := map[Command]func(){
		CommandToggle:            b.ctrl.Toggle,
		CommandPlay:              b.ctrl.Play,
		CommandPause:             b.ctrl.Pause,
		CommandStop:              b.ctrl.Stop,
		CommandPrevious:          b.ctrl.Previous,
		CommandNext:              b.ctrl.Next,
		CommandSeekBackwardBegin: func() { b.ctrl.StartSeeking(seeker.Backward) },
		CommandSeekBackwardEnd:   b.ctrl.StopSeeking,
		CommandSeekForwardBegin:  func() { b.ctrl.StartSeeking(seeker.Forward) },
		CommandSeekForwardEnd:    b.ctrl.StopSeeking,
	}
	for cmd, fn := range simple {
		b.center.Register(cmd, func(Event) error {
			b.log.Debug().Stringer("command", cmd).Msg("remote command")
			fn()
			return nil
		})
	}
	b.center.Register(CommandChangePosition, func(ev Event) error {
		b.log.Debug().Dur("position", ev.Position).Msg("remote change position")
		b.ctrl.SetClock(max(ev.Position, 0), false)
		return nil
	})
	b.center.Register(CommandChangeRepeatMode, func(ev Event) error {
		b.log.Debug().Stringer("mode", ev.RepeatMode).Msg("remote change repeat mode")
		b.ctrl.SetRepeatMode(ev.RepeatMode)
		return nil
	})
}

// Refresh mirrors enablement and now-playing information onto the center.
func (b *Bridge) Refresh() {
	status := b.ctrl.Status()
	b.center.SetEnabled(CommandPrevious, b.ctrl.HasPrevious())
	b.center.SetEnabled(CommandNext, b.ctrl.HasNext())
	b.center.SetEnabled(CommandStop, status.State != playback.StateStopped && !status.IsError())

	track, ok := b.ctrl.CurrentTrack()
	b.center.SetNowPlaying(NowPlaying{
		Track:    track,
		HasTrack: ok,
		Status:   status,
		Repeat:   b.ctrl.RepeatMode(),
		Elapsed:  b.ctrl.CurrentTime(),
		Duration: b.ctrl.Duration(),
		Updated:  b.now(),
	})
}

// Close stops following playback events. The handlers stay registered.
func (b *Bridge) Close() {
	select {
	case <-b.stop:
	default:
		close(b.stop)
	}
	b.wg.Wait()
}

func (b *Bridge) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stop:
			return
		case <-b.sub.Done:
			return
		case <-b.sub.StatusChanged:
			b.Refresh()
		case <-b.sub.TrackChanged:
			b.Refresh()
		case <-b.sub.RepeatModeChanged:
			b.Refresh()
		case <-b.sub.Clock:
			// Seeks and scrubs move the published position.
			b.Refresh()
		}
	}
}
