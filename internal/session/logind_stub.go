//go:build !linux

package session

import (
	"context"

	"github.com/rs/zerolog"
)

// WatchSleep is a no-op on non-Linux platforms. It blocks until ctx is
// done.
func WatchSleep(ctx context.Context, _ *Local, _ zerolog.Logger) error {
	<-ctx.Done()
	return nil
}
