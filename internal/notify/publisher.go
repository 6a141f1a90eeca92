package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/playback"
)

const trackTimeout = 5000

// Publisher turns playback events into notifications. The now-playing
// notification is replaced in place on every track change.
type Publisher struct {
	notifier Notifier
	log      zerolog.Logger
	lastID   uint32
}

// NewPublisher creates a publisher sending through n.
func NewPublisher(n Notifier, log zerolog.Logger) *Publisher {
	return &Publisher{
		notifier: n,
		log:      log.With().Str("component", "notify").Logger(),
	}
}

// Run consumes sub until ctx is done or the subscription ends.
func (p *Publisher) Run(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case ev := <-sub.TrackChanged:
			p.TrackChanged(ev)
		case ev := <-sub.StatusChanged:
			p.StatusChanged(ev)
		}
	}
}

// TrackChanged announces the new current track.
func (p *Publisher) TrackChanged(ev playback.TrackChange) {
	n := TrackNotification(ev.Current)
	n.ReplacesID = p.lastID
	id, err := p.notifier.Notify(n)
	if err != nil {
		p.log.Warn().Err(err).Msg("track notification failed")
		return
	}
	p.lastID = id
}

// StatusChanged announces playback failures. Other statuses are ignored.
func (p *Publisher) StatusChanged(ev playback.StatusChange) {
	if !ev.Current.IsError() {
		return
	}
	n := Notification{
		Title:   AppName,
		Body:    errorBody(ev.Current),
		Icon:    "dialog-error",
		Timeout: -1,
		Urgency: UrgencyCritical,
	}
	if _, err := p.notifier.Notify(n); err != nil {
		p.log.Warn().Err(err).Msg("error notification failed")
	}
}

// TrackNotification builds the now-playing notification for t.
func TrackNotification(t library.Track) Notification {
	var body []string
	if t.Artist != "" {
		body = append(body, t.Artist)
	}
	if t.Album != "" {
		body = append(body, t.Album)
	}
	if t.Duration > 0 {
		body = append(body, formatDuration(t))
	}

	title := t.Title
	if title == "" {
		title = filepath.Base(t.Path)
	}
	return Notification{
		Title:   title,
		Body:    strings.Join(body, " - "),
		Icon:    library.CoverArt(t.Path),
		Timeout: trackTimeout,
		Urgency: UrgencyLow,
	}
}

func formatDuration(t library.Track) string {
	secs := int(t.Duration.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func errorBody(s playback.Status) string {
	switch s.Kind {
	case playback.KindNoMusic:
		return "No music in the library"
	case playback.KindAuth:
		return "Library access denied"
	case playback.KindFinished:
		return "End of queue"
	case playback.KindVolume:
		return "Output volume is zero"
	default:
		if s.Err != nil {
			return "Playback failed: " + s.Err.Error()
		}
		return "Playback failed"
	}
}
