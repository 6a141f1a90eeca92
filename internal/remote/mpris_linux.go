//go:build linux

package remote

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/rs/zerolog"

	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/playback"
	"github.com/llehouerou/tempo/internal/playlist"
)

// MPRIS is a CommandCenter served over D-Bus as
// org.mpris.MediaPlayer2.<name>.
type MPRIS struct {
	server *server.Server
	log    zerolog.Logger

	mu       sync.Mutex
	handlers map[Command]Handler
	enabled  map[Command]bool
	info     NowPlaying
}

// NewMPRIS creates the center. Nothing is exported on the bus until
// Start.
func NewMPRIS(name string, log zerolog.Logger) *MPRIS {
	m := &MPRIS{
		log:      log.With().Str("component", "mpris").Logger(),
		handlers: make(map[Command]Handler),
		enabled:  make(map[Command]bool),
	}
	m.server = server.NewServer(name, &rootAdapter{identity: name}, &playerAdapter{m: m})
	return m
}

// Start serves the D-Bus interfaces in the background.
func (m *MPRIS) Start() {
	go func() {
		if err := m.server.Listen(); err != nil {
			m.log.Warn().Err(err).Msg("mpris server stopped")
		}
	}()
}

// Close releases the bus name.
func (m *MPRIS) Close() error {
	return m.server.Stop()
}

func (m *MPRIS) Register(cmd Command, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[cmd] = h
	m.enabled[cmd] = true
}

func (m *MPRIS) SetEnabled(cmd Command, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled[cmd] = enabled
}

func (m *MPRIS) SetNowPlaying(info NowPlaying) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info = info
}

func (m *MPRIS) nowPlaying() NowPlaying {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

func (m *MPRIS) isEnabled(cmd Command) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled[cmd]
}

// dispatch runs the handler for cmd. Disabled and unregistered commands
// are ignored.
func (m *MPRIS) dispatch(cmd Command, ev Event) error {
	m.mu.Lock()
	h, enabled := m.handlers[cmd], m.enabled[cmd]
	m.mu.Unlock()
	if h == nil || !enabled {
		m.log.Debug().Stringer("command", cmd).Msg("ignoring disabled command")
		return nil
	}
	return h(ev)
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	identity string
}

func (r *rootAdapter) Raise() error {
	return nil // No window
}

func (r *rootAdapter) Quit() error {
	return nil // The daemon manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return r.identity, nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/wav", "audio/ogg"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and
// OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
type playerAdapter struct {
	m *MPRIS
}

func (p *playerAdapter) Next() error {
	return p.m.dispatch(CommandNext, Event{})
}

func (p *playerAdapter) Previous() error {
	return p.m.dispatch(CommandPrevious, Event{})
}

func (p *playerAdapter) Pause() error {
	return p.m.dispatch(CommandPause, Event{})
}

func (p *playerAdapter) PlayPause() error {
	return p.m.dispatch(CommandToggle, Event{})
}

func (p *playerAdapter) Stop() error {
	return p.m.dispatch(CommandStop, Event{})
}

func (p *playerAdapter) Play() error {
	return p.m.dispatch(CommandPlay, Event{})
}

// Seek moves by a relative offset.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	pos := p.m.nowPlaying().Position(time.Now()) + time.Duration(offset)*time.Microsecond
	return p.m.dispatch(CommandChangePosition, Event{Position: max(pos, 0)})
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	info := p.m.nowPlaying()
	if !info.HasTrack || trackID != trackObjectPath(info.Track) {
		return nil // Stale request for another track
	}
	return p.m.dispatch(CommandChangePosition, Event{Position: time.Duration(position) * time.Microsecond})
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.m.nowPlaying().Status.State {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	info := p.m.nowPlaying()
	if !info.HasTrack {
		return types.Metadata{}, nil
	}
	track := info.Track
	length := info.Duration
	if length == 0 {
		length = track.Duration
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(trackObjectPath(track)),
		Length:  types.Microseconds(length.Microseconds()),
		Title:   track.Title,
		Album:   track.Album,
	}
	if track.Artist != "" {
		meta.Artist = []string{track.Artist}
	}
	if art := library.CoverArt(track.Path); art != "" {
		meta.ArtUrl = "file://" + art
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Output volume belongs to the session
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.m.nowPlaying().Position(time.Now()).Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.m.isEnabled(CommandNext), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.m.isEnabled(CommandPrevious), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.m.isEnabled(CommandPlay) && p.m.nowPlaying().HasTrack, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.m.isEnabled(CommandPause), nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.m.isEnabled(CommandChangePosition) && p.m.nowPlaying().HasTrack, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.m.nowPlaying().Repeat {
	case playlist.RepeatOne:
		return types.LoopStatusTrack, nil
	case playlist.RepeatAll:
		return types.LoopStatusPlaylist, nil
	default:
		return types.LoopStatusNone, nil
	}
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	mode := playlist.RepeatNone
	switch status {
	case types.LoopStatusTrack:
		mode = playlist.RepeatOne
	case types.LoopStatusPlaylist:
		mode = playlist.RepeatAll
	}
	return p.m.dispatch(CommandChangeRepeatMode, Event{RepeatMode: mode})
}

func trackObjectPath(t library.Track) string {
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", t.ID)
}

// Verify MPRIS implements CommandCenter at compile time.
var _ CommandCenter = (*MPRIS)(nil)
