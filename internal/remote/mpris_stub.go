//go:build !linux

package remote

import "github.com/rs/zerolog"

// MPRIS is a no-op CommandCenter on non-Linux platforms.
type MPRIS struct{}

// NewMPRIS returns a no-op center on non-Linux platforms.
func NewMPRIS(_ string, _ zerolog.Logger) *MPRIS {
	return &MPRIS{}
}

// Start is a no-op on non-Linux platforms.
func (m *MPRIS) Start() {}

// Close is a no-op on non-Linux platforms.
func (m *MPRIS) Close() error {
	return nil
}

func (m *MPRIS) Register(Command, Handler) {}
func (m *MPRIS) SetEnabled(Command, bool)  {}
func (m *MPRIS) SetNowPlaying(NowPlaying)  {}

// Verify MPRIS implements CommandCenter at compile time.
var _ CommandCenter = (*MPRIS)(nil)
