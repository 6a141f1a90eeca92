package playback

import "time"

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StatusChanged     <-chan StatusChange
	Clock             <-chan ClockTick
	RepeatModeChanged <-chan RepeatModeChange
	TrackChanged      <-chan TrackChange
	EffectsChanged    <-chan EffectsChange
	Done              <-chan struct{}

	// Internal write channels
	statusCh  chan StatusChange
	clockCh   chan ClockTick
	repeatCh  chan RepeatModeChange
	trackCh   chan TrackChange
	effectsCh chan EffectsChange
	doneCh    chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		statusCh:  make(chan StatusChange, eventBufferSize),
		clockCh:   make(chan ClockTick, eventBufferSize),
		repeatCh:  make(chan RepeatModeChange, eventBufferSize),
		trackCh:   make(chan TrackChange, eventBufferSize),
		effectsCh: make(chan EffectsChange, eventBufferSize),
		doneCh:    make(chan struct{}),
	}
	s.StatusChanged = s.statusCh
	s.Clock = s.clockCh
	s.RepeatModeChanged = s.repeatCh
	s.TrackChanged = s.trackCh
	s.EffectsChanged = s.effectsCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendStatus sends a status change event (non-blocking).
func (s *Subscription) sendStatus(e StatusChange) {
	select {
	case s.statusCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendClock sends a clock tick (non-blocking).
func (s *Subscription) sendClock(t time.Duration) {
	select {
	case s.clockCh <- ClockTick{Time: t}:
	default:
	}
}

// sendRepeatMode sends a repeat mode change (non-blocking).
func (s *Subscription) sendRepeatMode(e RepeatModeChange) {
	select {
	case s.repeatCh <- e:
	default:
	}
}

// sendTrack sends a track change event (non-blocking).
func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

// sendEffects sends an effects change event (non-blocking).
func (s *Subscription) sendEffects(e EffectsChange) {
	select {
	case s.effectsCh <- e:
	default:
	}
}
