//go:build linux

package session

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	logindPath      = "/org/freedesktop/login1"
	logindInterface = "org.freedesktop.login1.Manager"
	prepareForSleep = "PrepareForSleep"
)

// WatchSleep maps logind suspend and resume onto interruptions of l:
// going to sleep begins an interruption, waking up ends it. It blocks
// until ctx is done.
func WatchSleep(ctx context.Context, l *Local, log zerolog.Logger) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Wrap(err, "connect system bus")
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindInterface),
		dbus.WithMatchMember(prepareForSleep),
	); err != nil {
		return errors.Wrap(err, "subscribe to PrepareForSleep")
	}

	signals := make(chan *dbus.Signal, 4)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			handleSleepSignal(sig, l, log)
		}
	}
}

func handleSleepSignal(sig *dbus.Signal, l *Local, log zerolog.Logger) {
	if sig.Name != logindInterface+"."+prepareForSleep || len(sig.Body) != 1 {
		return
	}
	sleeping, ok := sig.Body[0].(bool)
	if !ok {
		return
	}
	log.Debug().Bool("sleeping", sleeping).Msg("logind sleep signal")
	if sleeping {
		l.BeginInterruption()
	} else {
		l.EndInterruption()
	}
}
