package player

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/llehouerou/tempo/internal/guard"
)

// speaker is process-wide; it is initialised at the first track's rate and
// later tracks are resampled to it.
var (
	speakerMu         sync.Mutex
	speakerSampleRate beep.SampleRate
)

func initSpeaker(rate beep.SampleRate) (beep.SampleRate, error) {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerSampleRate != 0 {
		return speakerSampleRate, nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return 0, errors.Wrap(err, "init speaker")
	}
	speakerSampleRate = rate
	return rate, nil
}

// BeepFactory creates resources rendered through the beep speaker.
type BeepFactory struct {
	// InitialVolume is applied to every new resource.
	InitialVolume float64
}

// NewBeepFactory creates a factory whose resources start at volume.
func NewBeepFactory(volume float64) *BeepFactory {
	return &BeepFactory{InitialVolume: clampLevel(volume)}
}

// New decodes the file at path. The speaker is not touched until the
// resource is prepared.
func (f *BeepFactory) New(path string) (Resource, error) {
	streamer, format, err := open(path)
	if err != nil {
		return nil, err
	}
	return &beepResource{
		streamer: streamer,
		format:   format,
		level:    f.InitialVolume,
	}, nil
}

type beepResource struct {
	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	state    State
	queued   bool
	closed   bool
	delegate guard.Cell[Delegate]
}

func (r *beepResource) PrepareToPlay() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prepareLocked()
}

func (r *beepResource) prepareLocked() bool {
	if r.closed {
		return false
	}
	if r.volume != nil {
		return true
	}
	rate, err := initSpeaker(r.format.SampleRate)
	if err != nil {
		return false
	}
	var s beep.Streamer = r.streamer
	if r.format.SampleRate != rate {
		s = beep.Resample(4, r.format.SampleRate, rate, s)
	}
	r.ctrl = &beep.Ctrl{Streamer: s, Paused: true}
	r.volume = &effects.Volume{
		Streamer: r.ctrl,
		Base:     2,
		Volume:   levelToVolume(r.level),
		Silent:   r.level <= 0,
	}
	return true
}

func (r *beepResource) Play() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.prepareLocked() {
		return false
	}
	speaker.Lock()
	r.ctrl.Paused = false
	speaker.Unlock()
	if !r.queued {
		r.queued = true
		speaker.Play(beep.Seq(r.volume, beep.Callback(r.ended)))
	}
	r.state = Playing
	return true
}

// ended runs on the speaker goroutine with the speaker lock held, so the
// delegate is called from a fresh goroutine.
func (r *beepResource) ended() {
	go func() {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		r.state = Stopped
		err := r.streamer.Err()
		r.mu.Unlock()

		d := r.delegate.Get()
		if d == nil {
			return
		}
		if err != nil {
			d.DecodeErrorOccurred(err)
			return
		}
		d.DidFinishPlaying(true)
	}()
}

func (r *beepResource) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.CanPause() {
		return
	}
	speaker.Lock()
	r.ctrl.Paused = true
	speaker.Unlock()
	r.state = Paused
}

func (r *beepResource) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.state = Stopped
	if r.ctrl != nil {
		speaker.Lock()
		r.ctrl.Streamer = nil
		speaker.Unlock()
	}
	_ = r.streamer.Close()
}

func (r *beepResource) CurrentTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return r.format.SampleRate.D(r.streamer.Position())
}

func (r *beepResource) SetCurrentTime(t time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	pos := min(max(r.format.SampleRate.N(t), 0), max(r.streamer.Len()-1, 0))
	speaker.Lock()
	_ = r.streamer.Seek(pos)
	speaker.Unlock()
}

func (r *beepResource) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format.SampleRate.D(r.streamer.Len())
}

func (r *beepResource) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

func (r *beepResource) SetVolume(level float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = clampLevel(level)
	if r.volume == nil {
		return
	}
	speaker.Lock()
	r.volume.Volume = levelToVolume(r.level)
	r.volume.Silent = r.level <= 0
	speaker.Unlock()
}

func (r *beepResource) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == Playing
}

func (r *beepResource) IsPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == Paused
}

func (r *beepResource) SetDelegate(d Delegate) {
	r.delegate.Set(d)
}
