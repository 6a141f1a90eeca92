//go:build linux

package session

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHandleSleepSignal(t *testing.T) {
	l := NewLocal("speaker")
	var got []InterruptionType
	l.Subscribe(func(n Notification) {
		if i, ok := n.(Interruption); ok {
			got = append(got, i.Type)
		}
	})

	name := logindInterface + "." + prepareForSleep
	handleSleepSignal(&dbus.Signal{Name: name, Body: []any{true}}, l, zerolog.Nop())
	handleSleepSignal(&dbus.Signal{Name: name, Body: []any{false}}, l, zerolog.Nop())
	// Ignored: other members and malformed bodies.
	handleSleepSignal(&dbus.Signal{Name: logindInterface + ".SessionNew", Body: []any{true}}, l, zerolog.Nop())
	handleSleepSignal(&dbus.Signal{Name: name, Body: []any{"yes"}}, l, zerolog.Nop())
	handleSleepSignal(&dbus.Signal{Name: name}, l, zerolog.Nop())

	assert.Equal(t, []InterruptionType{InterruptionBegan, InterruptionEnded}, got)
}
