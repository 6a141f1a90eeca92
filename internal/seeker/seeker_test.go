package seeker

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagnitude(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    time.Duration
	}{
		{0, time.Second},
		{500 * time.Millisecond, time.Second},
		{time.Second, 3 * time.Second},
		{1500 * time.Millisecond, 3 * time.Second},
		{2500 * time.Millisecond, 5 * time.Second},
		{3999 * time.Millisecond, 7 * time.Second},
		{4500 * time.Millisecond, 9 * time.Second},
		{5 * time.Second, 10 * time.Second},
		{10 * time.Second, 10 * time.Second},
		{time.Hour, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Magnitude(tt.elapsed))
		})
	}
}

type recorder struct {
	mu     sync.Mutex
	deltas []time.Duration
}

func (r *recorder) record(d time.Duration) {
	r.mu.Lock()
	r.deltas = append(r.deltas, d)
	r.mu.Unlock()
}

func (r *recorder) get() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.deltas...)
}

func TestSeeker_ForwardAccelerates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec recorder
		s := New(200*time.Millisecond, rec.record)

		s.Seek(Forward)
		time.Sleep(1100 * time.Millisecond)
		synctest.Wait()
		s.Stop()

		deltas := rec.get()
		require.Len(t, deltas, 5)
		for _, d := range deltas[:4] {
			assert.Equal(t, time.Second, d)
		}
		assert.Equal(t, 3*time.Second, deltas[4])
	})
}

func TestSeeker_BackwardIsNegative(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec recorder
		s := New(0, rec.record)

		s.Seek(Backward)
		time.Sleep(450 * time.Millisecond)
		synctest.Wait()
		s.Stop()

		assert.Equal(t, []time.Duration{-time.Second, -time.Second}, rec.get())
	})
}

func TestSeeker_StopEndsSession(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec recorder
		s := New(200*time.Millisecond, rec.record)

		s.Seek(Forward)
		assert.True(t, s.Active())
		time.Sleep(300 * time.Millisecond)
		s.Stop()
		s.Stop()
		time.Sleep(2 * time.Second)
		synctest.Wait()

		assert.False(t, s.Active())
		assert.Len(t, rec.get(), 1)
	})
}

func TestSeeker_RestartResetsMagnitude(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec recorder
		s := New(200*time.Millisecond, rec.record)

		s.Seek(Forward)
		time.Sleep(2100 * time.Millisecond)
		s.Seek(Backward)
		time.Sleep(250 * time.Millisecond)
		synctest.Wait()
		s.Stop()

		deltas := rec.get()
		require.NotEmpty(t, deltas)
		assert.Equal(t, -time.Second, deltas[len(deltas)-1])
	})
}
