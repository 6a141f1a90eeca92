package clock

import (
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_TicksOncePerInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := New(time.Second)
		var ticks atomic.Int32
		c.SetCallback(func(time.Time) { ticks.Add(1) })

		c.Start()
		time.Sleep(3500 * time.Millisecond)
		synctest.Wait()
		c.Stop()

		assert.Equal(t, int32(3), ticks.Load())
	})
}

func TestClock_StopHaltsTicks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := New(time.Second)
		var ticks atomic.Int32
		c.SetCallback(func(time.Time) { ticks.Add(1) })

		c.Start()
		time.Sleep(1500 * time.Millisecond)
		c.Stop()
		time.Sleep(5 * time.Second)
		synctest.Wait()

		assert.Equal(t, int32(1), ticks.Load())
		assert.False(t, c.Running())
	})
}

func TestClock_StopIsIdempotent(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultInterval, c.Interval())

	c.Stop()
	c.Stop()
	assert.False(t, c.Running())
}

func TestClock_RestartReplacesTimer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := New(time.Second)
		var ticks atomic.Int32
		c.SetCallback(func(time.Time) { ticks.Add(1) })

		c.Start()
		time.Sleep(800 * time.Millisecond)
		c.Start() // phase resets; the first run must not tick at 1s
		time.Sleep(500 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, int32(0), ticks.Load())

		time.Sleep(600 * time.Millisecond)
		synctest.Wait()
		c.Stop()

		assert.Equal(t, int32(1), ticks.Load())
	})
}

func TestClock_SetCallbackWhileRunning(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := New(time.Second)
		var first, second atomic.Int32
		c.SetCallback(func(time.Time) { first.Add(1) })

		c.Start()
		time.Sleep(1500 * time.Millisecond)
		c.SetCallback(func(time.Time) { second.Add(1) })
		time.Sleep(time.Second)
		synctest.Wait()
		c.Stop()

		assert.Equal(t, int32(1), first.Load())
		assert.Equal(t, int32(1), second.Load())
	})
}
