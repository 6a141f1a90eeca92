package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_DeliversInOrderUntilCancelled(t *testing.T) {
	var e Emitter
	var got []string

	cancelA := e.Subscribe(func(Notification) { got = append(got, "a") })
	e.Subscribe(func(Notification) { got = append(got, "b") })

	e.Emit(Interruption{Type: InterruptionBegan})
	cancelA()
	cancelA()
	e.Emit(Interruption{Type: InterruptionEnded})

	assert.Equal(t, []string{"a", "b", "b"}, got)
	assert.Equal(t, 1, e.Len())
}

func TestEmitter_HandlerMaySubscribe(t *testing.T) {
	var e Emitter
	calls := 0
	e.Subscribe(func(Notification) {
		calls++
		if calls == 1 {
			e.Subscribe(func(Notification) {})
		}
	})

	e.Emit(Interruption{})

	assert.Equal(t, 2, e.Len())
}

func TestLocal_RouteChanges(t *testing.T) {
	l := NewLocal("speaker", "headphones")
	var got []Notification
	l.Subscribe(func(n Notification) { got = append(got, n) })

	l.DisconnectRoute("headphones")
	l.ConnectRoute("headphones")

	require.Len(t, got, 2)
	assert.Equal(t, RouteChange{
		Reason:   RouteOldDeviceUnavailable,
		Previous: []RouteID{"speaker", "headphones"},
	}, got[0])
	assert.Equal(t, RouteChange{
		Reason:   RouteNewDeviceAvailable,
		Previous: []RouteID{"speaker"},
	}, got[1])
	assert.Equal(t, []RouteID{"speaker", "headphones"}, l.CurrentOutputRoutes())
}

func TestLocal_Interruptions(t *testing.T) {
	l := NewLocal()
	var got []Notification
	l.Subscribe(func(n Notification) { got = append(got, n) })

	l.BeginInterruption()
	l.EndInterruption()

	assert.Equal(t, []Notification{
		Interruption{Type: InterruptionBegan},
		Interruption{Type: InterruptionEnded},
	}, got)
}

func TestLocal_VolumeAndActivation(t *testing.T) {
	l := NewLocal()
	assert.InDelta(t, 1.0, l.OutputVolume(), 0)

	l.SetVolume(-3)
	assert.InDelta(t, 0.0, l.OutputVolume(), 0)

	require.NoError(t, l.SetCategory(CategoryPlayback))
	require.NoError(t, l.SetActive(true))
	assert.Equal(t, CategoryPlayback, l.Category())
	assert.True(t, l.Active())

	l.FailActivation(errors.New("busy"))
	assert.Error(t, l.SetActive(false))
	assert.True(t, l.Active())
}

func TestRoutes(t *testing.T) {
	r := NewRoutes("b", "a")

	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))
	assert.True(t, r.Intersects([]RouteID{"c", "b"}))
	assert.False(t, r.Intersects(nil))
	assert.Equal(t, []RouteID{"a", "b"}, r.Sorted())
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "old-device-unavailable", RouteOldDeviceUnavailable.String())
	assert.Equal(t, "reason(99)", RouteChangeReason(99).String())
	assert.Equal(t, "playback", CategoryPlayback.String())
	assert.Equal(t, "ended", InterruptionEnded.String())
}
