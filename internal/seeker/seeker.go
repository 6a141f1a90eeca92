// Package seeker turns a held seek gesture into an accelerating stream of
// relative time deltas.
package seeker

import (
	"sync"
	"time"

	"github.com/llehouerou/tempo/internal/guard"
)

// DefaultInterval is the delay between deltas when none is given.
const DefaultInterval = 200 * time.Millisecond

// Direction is the direction of a seek session.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Magnitude returns the jump size for a seek session that started elapsed
// ago. It grows by two seconds per second held, capped at ten.
func Magnitude(elapsed time.Duration) time.Duration {
	switch {
	case elapsed < time.Second:
		return time.Second
	case elapsed < 2*time.Second:
		return 3 * time.Second
	case elapsed < 3*time.Second:
		return 5 * time.Second
	case elapsed < 4*time.Second:
		return 7 * time.Second
	case elapsed < 5*time.Second:
		return 9 * time.Second
	default:
		return 10 * time.Second
	}
}

// Seeker emits signed deltas every interval while a seek session is active.
// Only one session runs at a time.
type Seeker struct {
	interval time.Duration
	session  guard.Cell[session]
	callback guard.Cell[func(time.Duration)]
	fire     sync.Mutex
}

type session struct {
	gen   uint64
	stop  chan struct{}
	start time.Time
	dir   Direction
}

// New creates an idle seeker. A non-positive interval uses DefaultInterval.
func New(interval time.Duration, cb func(delta time.Duration)) *Seeker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Seeker{interval: interval}
	s.callback.Set(cb)
	return s
}

// SetCallback replaces the delta handler.
func (s *Seeker) SetCallback(cb func(delta time.Duration)) {
	s.callback.Set(cb)
}

// Seek starts a session in dir, stopping any session in progress.
func (s *Seeker) Seek(dir Direction) {
	var (
		gen  uint64
		stop chan struct{}
	)
	s.session.With(func(ss *session) {
		if ss.stop != nil {
			close(ss.stop)
		}
		ss.gen++
		ss.stop = make(chan struct{})
		ss.start = time.Now()
		ss.dir = dir
		gen, stop = ss.gen, ss.stop
	})
	go s.loop(gen, stop)
}

// Stop ends the active session and clears its start time. Idempotent.
func (s *Seeker) Stop() {
	s.session.With(func(ss *session) {
		if ss.stop == nil {
			return
		}
		close(ss.stop)
		ss.stop = nil
		ss.start = time.Time{}
		ss.gen++
	})
}

// Active reports whether a seek session is running.
func (s *Seeker) Active() bool {
	return s.session.Get().stop != nil
}

func (s *Seeker) loop(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.tick(gen, now)
		}
	}
}

func (s *Seeker) tick(gen uint64, now time.Time) {
	s.fire.Lock()
	defer s.fire.Unlock()

	ss := s.session.Get()
	if ss.gen != gen || ss.stop == nil {
		return
	}
	delta := Magnitude(now.Sub(ss.start))
	if ss.dir == Backward {
		delta = -delta
	}
	if cb := s.callback.Get(); cb != nil {
		cb(delta)
	}
}
