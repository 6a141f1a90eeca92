// Package clock provides the periodic tick source that drives elapsed-time
// updates while a track is playing.
package clock

import (
	"sync"
	"time"

	"github.com/llehouerou/tempo/internal/guard"
)

// DefaultInterval is the tick period used when none is given.
const DefaultInterval = time.Second

// Clock invokes a callback once per interval between Start and Stop.
//
// Start replaces any running ticker. Callbacks from a superseded run are
// dropped, and the callback never runs concurrently with itself. A callback
// already past the generation check when Stop returns may still complete.
type Clock struct {
	interval time.Duration
	run      guard.Cell[run]
	callback guard.Cell[func(time.Time)]
	fire     sync.Mutex
}

type run struct {
	gen  uint64
	stop chan struct{}
}

// New creates a stopped clock. A non-positive interval uses DefaultInterval.
func New(interval time.Duration) *Clock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Clock{interval: interval}
}

// Interval returns the tick period.
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// SetCallback replaces the tick handler. Safe while running.
func (c *Clock) SetCallback(cb func(now time.Time)) {
	c.callback.Set(cb)
}

// Start begins ticking, cancelling any previous run.
func (c *Clock) Start() {
	var (
		gen  uint64
		stop chan struct{}
	)
	c.run.With(func(r *run) {
		if r.stop != nil {
			close(r.stop)
		}
		r.gen++
		r.stop = make(chan struct{})
		gen, stop = r.gen, r.stop
	})
	go c.loop(gen, stop)
}

// Stop cancels ticking. Idempotent.
func (c *Clock) Stop() {
	c.run.With(func(r *run) {
		if r.stop == nil {
			return
		}
		close(r.stop)
		r.stop = nil
		r.gen++
	})
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	return c.run.Get().stop != nil
}

func (c *Clock) loop(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.tick(gen, now)
		}
	}
}

func (c *Clock) tick(gen uint64, now time.Time) {
	c.fire.Lock()
	defer c.fire.Unlock()

	if c.run.Get().gen != gen {
		return
	}
	if cb := c.callback.Get(); cb != nil {
		cb(now)
	}
}
