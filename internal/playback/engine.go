// Package playback owns the playback state machine: it decides what plays,
// drives the audio resource, and reacts to clock ticks, seek gestures,
// completion callbacks and interruption requests.
package playback

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/llehouerou/tempo/internal/clock"
	"github.com/llehouerou/tempo/internal/interruption"
	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/player"
	"github.com/llehouerou/tempo/internal/playlist"
	"github.com/llehouerou/tempo/internal/seeker"
	"github.com/llehouerou/tempo/internal/session"
	"github.com/llehouerou/tempo/internal/state"
)

// Config holds the engine collaborators. Factory, Tracks, Session and
// Authorizer are required; nil Clock, Seeker and Tracker are built with
// defaults, and a nil State keeps effect toggles in memory.
type Config struct {
	Factory    player.Factory
	Tracks     *playlist.TrackStore
	Session    session.Observer
	Authorizer library.Authorizer
	State      state.Store
	Clock      *clock.Clock
	Seeker     *seeker.Seeker
	Tracker    *interruption.Tracker
	Logger     zerolog.Logger
}

// Engine is the playback state machine. Every transition runs under one
// mutex; timer, completion and interruption callbacks take the same lock.
type Engine struct {
	factory player.Factory
	tracks  *playlist.TrackStore
	session session.Observer
	auth    library.Authorizer
	store   state.Store
	clock   *clock.Clock
	seeker  *seeker.Seeker
	tracker *interruption.Tracker
	log     zerolog.Logger

	mu         sync.Mutex
	status     Status
	resource   player.Resource
	scrubbing  bool
	scrubTime  time.Duration
	lastTrack  *library.Track
	lofi       bool
	distortion bool
	observers  []observer
	nextObsID  int
	subs       []*Subscription
	closed     bool
}

type observer struct {
	id int
	fn func(Status)
}

// New creates a stopped engine and wires its clock, seeker and
// interruption tracker.
func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Factory == nil:
		return nil, errors.New("playback: audio factory is required")
	case cfg.Tracks == nil:
		return nil, errors.New("playback: track store is required")
	case cfg.Session == nil:
		return nil, errors.New("playback: session observer is required")
	case cfg.Authorizer == nil:
		return nil, errors.New("playback: authorizer is required")
	}

	e := &Engine{
		factory: cfg.Factory,
		tracks:  cfg.Tracks,
		session: cfg.Session,
		auth:    cfg.Authorizer,
		store:   cfg.State,
		clock:   cfg.Clock,
		seeker:  cfg.Seeker,
		tracker: cfg.Tracker,
		log:     cfg.Logger.With().Str("component", "playback").Logger(),
		status:  Stopped,
	}
	if e.clock == nil {
		e.clock = clock.New(clock.DefaultInterval)
	}
	if e.seeker == nil {
		e.seeker = seeker.New(seeker.DefaultInterval, nil)
	}
	if e.tracker == nil {
		e.tracker = interruption.New(cfg.Session, cfg.Logger)
	}
	if e.store != nil {
		e.lofi = e.store.Lofi()
		e.distortion = e.store.Distortion()
	}

	e.clock.SetCallback(e.onClockTick)
	e.seeker.SetCallback(e.onSeekDelta)
	e.tracker.OnAction(e.onInterruptionAction)
	e.observeLocked(func(s Status) {
		e.tracker.SetPlaying(s.State == StatePlaying)
	})
	return e, nil
}

// Authorize checks library access and loads the persisted queue.
func (e *Engine) Authorize(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	if err := e.auth.Authorize(ctx); err != nil {
		e.log.Warn().Err(err).Msg("library authorization failed")
		e.setStatusLocked(Failed(KindAuth, failure(ErrAuthorizationDenied, err)))
		return
	}
	if err := e.tracks.Load(ctx); err != nil {
		e.log.Warn().Err(err).Msg("cannot load queue")
		e.setStatusLocked(Failed(KindNoMusic, failure(ErrNoTracksAvailable, err)))
		return
	}
	e.log.Info().Int("tracks", e.tracks.Len()).Int("index", e.tracks.CurrentIndex()).Msg("queue loaded")
	e.emitRepeatModeLocked(e.tracks.RepeatMode())
}

// PlayTrack makes the track with id current and plays it from the start.
func (e *Engine) PlayTrack(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.releaseLocked()
	e.tracks.Prime(id)
	e.playLocked(PositionCurrent)
}

// Play resumes a paused track or starts the current one.
func (e *Engine) Play() {
	e.PlayAt(PositionCurrent)
}

// PlayAt starts the track at pos relative to the current one.
func (e *Engine) PlayAt(pos Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.playLocked(pos)
}

// Pause halts rendering, keeping the track loaded.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.pauseLocked()
}

// Stop discards the audio resource.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.stopLocked()
}

// Toggle pauses when playing and plays otherwise.
func (e *Engine) Toggle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.status.State == StatePlaying {
		e.pauseLocked()
		return
	}
	e.playLocked(PositionCurrent)
}

// Next stops and plays the following track.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.nextLocked()
}

// Previous stops and plays the preceding track. It does nothing when
// there is no preceding track.
func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.tracks.HasPrevious() {
		return
	}
	e.stopLocked()
	e.playLocked(PositionPrevious)
}

// Shuffle replaces the queue with a shuffled playlist and plays it.
func (e *Engine) Shuffle(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.stopLocked()
	if err := e.tracks.Create(ctx, true); err != nil {
		e.log.Warn().Err(err).Msg("cannot build shuffled playlist")
		e.setStatusLocked(Failed(KindNoMusic, failure(ErrNoTracksAvailable, err)))
		return
	}
	e.playLocked(PositionCurrent)
}

// RepeatMode returns the current repeat mode.
func (e *Engine) RepeatMode() playlist.RepeatMode {
	return e.tracks.RepeatMode()
}

// SetRepeatMode changes and persists the repeat mode.
func (e *Engine) SetRepeatMode(mode playlist.RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks.SetRepeatMode(mode)
	e.emitRepeatModeLocked(mode)
}

// ToggleRepeatMode cycles none, one, all.
func (e *Engine) ToggleRepeatMode() playlist.RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	mode := e.tracks.CycleRepeatMode()
	e.emitRepeatModeLocked(mode)
	return mode
}

// SetClock reports a position chosen by the user. While scrubbing only the
// displayed time moves; the audio is seeked when scrubbing ends.
func (e *Engine) SetClock(t time.Duration, scrubbing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.setClockLocked(t, scrubbing)
}

// StartSeeking starts an accelerating seek in dir. Only effective while
// playing.
func (e *Engine) StartSeeking(dir seeker.Direction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.status.State != StatePlaying {
		return
	}
	e.seeker.Seek(dir)
}

// StopSeeking ends the seek session.
func (e *Engine) StopSeeking() {
	e.seeker.Stop()
}

// Lofi reports whether the lofi toggle is on.
func (e *Engine) Lofi() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lofi
}

// SetLofi sets and persists the lofi toggle.
func (e *Engine) SetLofi(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lofi = enabled
	if e.store != nil {
		e.store.SetLofi(enabled)
	}
	e.emitEffectsLocked()
}

// Distortion reports whether the distortion toggle is on.
func (e *Engine) Distortion() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.distortion
}

// SetDistortion sets and persists the distortion toggle.
func (e *Engine) SetDistortion(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.distortion = enabled
	if e.store != nil {
		e.store.SetDistortion(enabled)
	}
	e.emitEffectsLocked()
}

// Status returns the current status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// CurrentTime returns the elapsed time of the current track, or the
// scrub position while scrubbing.
func (e *Engine) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTimeLocked()
}

// Duration returns the length of the current track.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resource != nil {
		return e.resource.Duration()
	}
	if t, ok := e.tracks.Current(); ok {
		return t.Duration
	}
	return 0
}

// CurrentTrack returns the current queue track.
func (e *Engine) CurrentTrack() (library.Track, bool) {
	return e.tracks.Current()
}

// CurrentIndex returns the current queue index.
func (e *Engine) CurrentIndex() int {
	return e.tracks.CurrentIndex()
}

// Tracks returns a copy of the queue.
func (e *Engine) Tracks() []library.Track {
	return e.tracks.Tracks()
}

// HasNext reports whether Next can move forward.
func (e *Engine) HasNext() bool {
	return e.tracks.HasNext()
}

// HasPrevious reports whether Previous can move backward.
func (e *Engine) HasPrevious() bool {
	return e.tracks.HasPrevious()
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub := newSubscription()
	if e.closed {
		sub.close()
		return sub
	}
	e.subs = append(e.subs, sub)
	return sub
}

// Observe registers fn to run synchronously on every status change, in
// emission order. fn runs under the engine lock and must not call back
// into the engine.
func (e *Engine) Observe(fn func(Status)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observeLocked(fn)
}

func (e *Engine) observeLocked(fn func(Status)) func() {
	id := e.nextObsID
	e.nextObsID++
	e.observers = append(e.observers, observer{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.observers = slices.DeleteFunc(e.observers, func(o observer) bool { return o.id == id })
	}
}

// Close stops playback, detaches from the interruption tracker and ends
// every subscription. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	e.releaseLocked()
	e.tracker.OnAction(nil)
	e.tracker.Close()
	e.clock.SetCallback(nil)
	e.seeker.SetCallback(nil)

	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.observers = nil
	return nil
}

func (e *Engine) playLocked(pos Position) {
	if e.resource != nil && pos == PositionCurrent {
		switch e.status.State {
		case StatePlaying:
			return
		case StatePaused:
			e.resumeLocked()
			return
		}
	}

	if e.session.OutputVolume() <= 0 {
		e.releaseLocked()
		e.setStatusLocked(Failed(KindVolume, nil))
		return
	}
	if e.tracks.IsEmpty() {
		e.releaseLocked()
		e.setStatusLocked(Failed(KindNoMusic, nil))
		return
	}

	track, ok := e.resolveLocked(pos)
	if !ok {
		e.releaseLocked()
		e.setStatusLocked(Failed(KindFinished, nil))
		return
	}

	// Unplayable tracks are skipped forward, at most once around the queue.
	for skipped := 0; !track.Playable(); skipped++ {
		if skipped >= e.tracks.Len() {
			e.log.Warn().Msg("no playable track in queue")
			e.releaseLocked()
			e.setStatusLocked(Failed(KindPlay, errors.Wrap(ErrAudioStartFailed, "no playable track")))
			return
		}
		e.log.Debug().Stringer("track", track).Msg("skipping unplayable track")
		if track, ok = e.tracks.Move(playlist.Forward); !ok {
			e.releaseLocked()
			e.setStatusLocked(Failed(KindFinished, nil))
			return
		}
	}

	e.startLocked(track)
}

func (e *Engine) resolveLocked(pos Position) (library.Track, bool) {
	switch pos {
	case PositionNext:
		return e.tracks.Move(playlist.Forward)
	case PositionPrevious:
		return e.tracks.Move(playlist.Backward)
	default:
		return e.tracks.Current()
	}
}

func (e *Engine) startLocked(track library.Track) {
	e.releaseLocked()

	res, err := e.factory.New(track.Path)
	if err != nil {
		e.log.Warn().Err(err).Stringer("track", track).Msg("cannot create audio resource")
		e.setStatusLocked(Failed(KindPlay, failure(ErrAudioConstructionFailed, err)))
		return
	}
	res.SetDelegate(completion{engine: e, resource: res})
	e.resource = res

	if err := e.activateLocked(res); err != nil {
		e.log.Warn().Err(err).Stringer("track", track).Msg("cannot start audio")
		e.stopLocked()
		e.setStatusLocked(Failed(KindPlay, failure(ErrAudioStartFailed, err)))
		return
	}

	e.clock.Start()
	e.setStatusLocked(Playing)
	e.emitTrackLocked(track)
	e.emitClockLocked(res.CurrentTime())
}

func (e *Engine) activateLocked(res player.Resource) error {
	if err := e.session.SetCategory(session.CategoryPlayback); err != nil {
		return errors.Wrap(err, "set session category")
	}
	if err := e.session.SetActive(true); err != nil {
		return errors.Wrap(err, "activate session")
	}
	if !res.PrepareToPlay() {
		return errors.New("prepare to play failed")
	}
	if !res.Play() {
		return errors.New("play failed")
	}
	return nil
}

func (e *Engine) resumeLocked() {
	if !e.resource.Play() {
		e.log.Warn().Msg("cannot resume audio")
		e.stopLocked()
		e.setStatusLocked(Failed(KindPlay, nil))
		return
	}
	e.clock.Start()
	e.setStatusLocked(Playing)
	e.emitClockLocked(e.resource.CurrentTime())
}

func (e *Engine) pauseLocked() {
	e.seeker.Stop()
	if e.resource != nil {
		e.resource.Pause()
	}
	e.clock.Stop()
	if e.status.State == StatePlaying {
		e.setStatusLocked(Paused)
	}
}

func (e *Engine) stopLocked() {
	e.releaseLocked()
	e.setStatusLocked(Stopped)
}

func (e *Engine) nextLocked() {
	e.stopLocked()
	e.playLocked(PositionNext)
}

// releaseLocked discards the resource and stops timers without emitting.
func (e *Engine) releaseLocked() {
	e.seeker.Stop()
	if e.resource != nil {
		e.resource.SetDelegate(nil)
		e.resource.Stop()
		e.resource = nil
	}
	e.clock.Stop()
	e.scrubbing = false
	e.scrubTime = 0
}

func (e *Engine) setClockLocked(t time.Duration, scrubbing bool) {
	e.clock.Stop()
	e.emitClockLocked(t)
	if scrubbing {
		e.scrubbing = true
		e.scrubTime = t
		return
	}
	e.scrubbing = false
	e.scrubTime = 0
	if e.resource != nil {
		e.resource.SetCurrentTime(t)
	}
	if e.status.State == StatePlaying {
		e.clock.Start()
	}
}

func (e *Engine) currentTimeLocked() time.Duration {
	switch {
	case e.scrubbing:
		return e.scrubTime
	case e.resource != nil:
		return e.resource.CurrentTime()
	default:
		return 0
	}
}

func (e *Engine) onClockTick(time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.status.State != StatePlaying || e.resource == nil {
		return
	}
	e.emitClockLocked(e.currentTimeLocked())
}

func (e *Engine) onSeekDelta(delta time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.status.State != StatePlaying || e.resource == nil {
		return
	}
	t := max(e.resource.CurrentTime()+delta, 0)
	e.setClockLocked(t, false)
}

func (e *Engine) onInterruptionAction(a interruption.Action) {
	e.log.Debug().Stringer("action", a).Msg("interruption request")
	switch a {
	case interruption.ActionPause:
		e.Pause()
	case interruption.ActionPlay:
		e.Play()
	}
}

// finished handles completion of res. Completions from a discarded
// resource are ignored.
func (e *Engine) finished(res player.Resource, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.resource != res {
		return
	}
	if err != nil {
		e.log.Warn().Err(err).Msg("decode error, advancing")
	}
	e.nextLocked()
}

// completion forwards audio callbacks onto their own goroutine so the
// audio backend never waits on the engine lock.
type completion struct {
	engine   *Engine
	resource player.Resource
}

func (c completion) DidFinishPlaying(bool) {
	go c.engine.finished(c.resource, nil)
}

func (c completion) DecodeErrorOccurred(err error) {
	go c.engine.finished(c.resource, err)
}

func (e *Engine) setStatusLocked(s Status) {
	if !s.IsError() && s.State == e.status.State {
		return
	}
	prev := e.status
	e.status = s

	ev := e.log.Debug()
	if s.IsError() {
		ev = e.log.Warn().AnErr("cause", s.Err)
	}
	ev.Stringer("from", prev).Stringer("to", s).Msg("status changed")

	for _, o := range e.observers {
		o.fn(s)
	}
	for _, sub := range e.subs {
		sub.sendStatus(StatusChange{Previous: prev, Current: s})
	}
}

func (e *Engine) emitClockLocked(t time.Duration) {
	for _, sub := range e.subs {
		sub.sendClock(t)
	}
}

func (e *Engine) emitRepeatModeLocked(mode playlist.RepeatMode) {
	e.log.Debug().Stringer("mode", mode).Msg("repeat mode")
	for _, sub := range e.subs {
		sub.sendRepeatMode(RepeatModeChange{Mode: mode})
	}
}

func (e *Engine) emitTrackLocked(track library.Track) {
	if e.lastTrack != nil && e.lastTrack.ID == track.ID {
		return
	}
	ev := TrackChange{Previous: e.lastTrack, Current: track, Index: e.tracks.CurrentIndex()}
	e.lastTrack = &track
	e.log.Info().Stringer("track", track).Int("index", ev.Index).Msg("now playing")
	for _, sub := range e.subs {
		sub.sendTrack(ev)
	}
}

func (e *Engine) emitEffectsLocked() {
	ev := EffectsChange{Lofi: e.lofi, Distortion: e.distortion}
	for _, sub := range e.subs {
		sub.sendEffects(ev)
	}
}
