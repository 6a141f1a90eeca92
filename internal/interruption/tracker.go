// Package interruption decides when playback must pause for, and may
// resume after, an output-route change or an audio session interruption.
//
// The tracker keeps one record per source. It never drives playback
// itself: it emits Actions that the playback engine turns into pause and
// play calls.
package interruption

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/llehouerou/tempo/internal/guard"
	"github.com/llehouerou/tempo/internal/session"
)

// Action is a request sent to the playback engine.
type Action int

const (
	ActionPause Action = iota
	ActionPlay
)

func (a Action) String() string {
	if a == ActionPlay {
		return "play"
	}
	return "pause"
}

// Stage is the lifecycle position of an interruption source.
type Stage int

const (
	StageNone Stage = iota
	StageStart
	StageEnd
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageEnd:
		return "end"
	default:
		return "none"
	}
}

// Record is the state of one interruption source.
type Record struct {
	Stage Stage
	// AudioInterrupted is set when this source paused playing audio.
	AudioInterrupted bool
}

// RouteRecord is the route-change record. Disconnected accumulates the
// routes lost since the last resume.
type RouteRecord struct {
	Record
	Disconnected session.Routes
}

// Tracker follows route changes and session interruptions.
type Tracker struct {
	observer session.Observer
	log      zerolog.Logger
	action   guard.Cell[func(Action)]
	cancel   func()

	mu      sync.Mutex
	playing bool
	route   RouteRecord
	session Record
}

// New creates a tracker subscribed to observer's notifications.
// Close must be called to unsubscribe.
func New(observer session.Observer, log zerolog.Logger) *Tracker {
	t := &Tracker{
		observer: observer,
		log:      log.With().Str("component", "interruption").Logger(),
		route:    RouteRecord{Disconnected: session.Routes{}},
	}
	t.cancel = observer.Subscribe(t.handle)
	return t
}

// OnAction sets the function receiving pause and play requests.
func (t *Tracker) OnAction(fn func(Action)) {
	t.action.Set(fn)
}

// SetPlaying records whether audio is currently playing. Confirmed
// playback clears the interrupted flags so that a stale interruption
// cannot resume playback the user has since paused.
func (t *Tracker) SetPlaying(playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = playing
	if playing {
		t.route.AudioInterrupted = false
		t.session.AudioInterrupted = false
	}
}

// Snapshot returns copies of both records.
func (t *Tracker) Snapshot() (RouteRecord, Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	route := t.route
	route.Disconnected = session.NewRoutes(t.route.Disconnected.Sorted()...)
	return route, t.session
}

// ExpectedToResume reports whether every interruption has ended and one
// of them paused playback.
func (t *Tracker) ExpectedToResume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expectedLocked()
}

// Close unsubscribes from the session observer. Idempotent.
func (t *Tracker) Close() {
	t.cancel()
}

func (t *Tracker) expectedLocked() bool {
	return !t.playing &&
		(t.route.AudioInterrupted || t.session.AudioInterrupted) &&
		t.route.Stage != StageStart &&
		t.session.Stage != StageStart
}

func (t *Tracker) resetLocked() {
	t.route = RouteRecord{Disconnected: session.Routes{}}
	t.session = Record{}
}

func (t *Tracker) handle(n session.Notification) {
	var (
		act  Action
		emit bool
	)

	t.mu.Lock()
	switch n := n.(type) {
	case session.RouteChange:
		act, emit = t.routeChangeLocked(n)
	case session.Interruption:
		act, emit = t.interruptionLocked(n)
	}
	t.mu.Unlock()

	if !emit {
		return
	}
	t.log.Debug().Stringer("action", act).Msg("requesting playback action")
	if fn := t.action.Get(); fn != nil {
		fn(act)
	}
}

func (t *Tracker) routeChangeLocked(n session.RouteChange) (Action, bool) {
	switch n.Reason {
	case session.RouteOldDeviceUnavailable:
		t.route.Stage = StageStart
		current := session.NewRoutes(t.observer.CurrentOutputRoutes()...)
		lost := 0
		for _, id := range n.Previous {
			if !current.Has(id) {
				t.route.Disconnected[id] = struct{}{}
				lost++
			}
		}
		if lost == 0 {
			for _, id := range n.Previous {
				t.route.Disconnected[id] = struct{}{}
			}
		}
		t.log.Debug().
			Int("disconnected", len(t.route.Disconnected)).
			Bool("playing", t.playing).
			Msg("output route lost")
		if t.playing {
			t.route.AudioInterrupted = true
			return ActionPause, true
		}

	case session.RouteNewDeviceAvailable:
		t.route.Stage = StageEnd
		if t.expectedLocked() && t.route.Disconnected.Intersects(t.observer.CurrentOutputRoutes()) {
			t.resetLocked()
			return ActionPlay, true
		}
	}
	return 0, false
}

func (t *Tracker) interruptionLocked(n session.Interruption) (Action, bool) {
	switch n.Type {
	case session.InterruptionBegan:
		t.session.Stage = StageStart
		t.log.Debug().Bool("playing", t.playing).Msg("session interrupted")
		if t.playing {
			t.session.AudioInterrupted = true
			return ActionPause, true
		}

	case session.InterruptionEnded:
		t.session.Stage = StageEnd
		if t.expectedLocked() {
			t.resetLocked()
			return ActionPlay, true
		}
	}
	return 0, false
}
