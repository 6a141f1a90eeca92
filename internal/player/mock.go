// internal/player/mock.go
package player

import (
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrMockConstruct is returned by MockFactory for paths marked as broken.
var ErrMockConstruct = errors.New("mock: cannot construct resource")

// MockFactory is a test double for Factory.
type MockFactory struct {
	mu         sync.Mutex
	created    []*MockResource
	paths      []string
	badPaths   map[string]bool
	failPlay   map[string]bool
	failPrep   map[string]bool
	durations  map[string]time.Duration
	defaultDur time.Duration
}

// NewMockFactory creates a factory whose resources last three minutes.
func NewMockFactory() *MockFactory {
	return &MockFactory{
		badPaths:   make(map[string]bool),
		failPlay:   make(map[string]bool),
		failPrep:   make(map[string]bool),
		durations:  make(map[string]time.Duration),
		defaultDur: 3 * time.Minute,
	}
}

func (f *MockFactory) New(path string) (Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if f.badPaths[path] {
		return nil, ErrMockConstruct
	}
	d, ok := f.durations[path]
	if !ok {
		d = f.defaultDur
	}
	r := &MockResource{
		path:     path,
		duration: d,
		volume:   1,
		playOK:   !f.failPlay[path],
		prepOK:   !f.failPrep[path],
	}
	f.created = append(f.created, r)
	return r, nil
}

// Test helpers

// FailConstruct makes New fail for path.
func (f *MockFactory) FailConstruct(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.badPaths[path] = true
}

// FailPlay makes Play return false on resources built for path.
func (f *MockFactory) FailPlay(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPlay[path] = true
}

// FailPrepare makes PrepareToPlay return false on resources built for path.
func (f *MockFactory) FailPrepare(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPrep[path] = true
}

// SetDuration sets the duration of resources built for path.
func (f *MockFactory) SetDuration(path string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.durations[path] = d
}

// Paths returns every path New was called with.
func (f *MockFactory) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.paths)
}

// Created returns every resource built so far.
func (f *MockFactory) Created() []*MockResource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.created)
}

// Last returns the most recently built resource, or nil.
func (f *MockFactory) Last() *MockResource {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

// MockResource is a test double for Resource.
type MockResource struct {
	mu        sync.Mutex
	path      string
	state     State
	stopped   bool
	current   time.Duration
	duration  time.Duration
	volume    float64
	playOK    bool
	prepOK    bool
	playCalls int
	seeks     []time.Duration
	delegate  Delegate
}

func (m *MockResource) PrepareToPlay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prepOK && !m.stopped
}

func (m *MockResource) Play() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if !m.playOK || !m.prepOK || m.stopped {
		return false
	}
	m.state = Playing
	return true
}

func (m *MockResource) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.CanPause() {
		m.state = Paused
	}
}

func (m *MockResource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Stopped
	m.stopped = true
}

func (m *MockResource) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *MockResource) SetCurrentTime(t time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, t)
	m.current = t
}

func (m *MockResource) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MockResource) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MockResource) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampLevel(level)
}

func (m *MockResource) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Playing
}

func (m *MockResource) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Paused
}

func (m *MockResource) SetDelegate(d Delegate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delegate = d
}

// Test helpers

// Path returns the asset the resource was built for.
func (m *MockResource) Path() string { return m.path }

// State returns the rendering state.
func (m *MockResource) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stopped reports whether Stop was called.
func (m *MockResource) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// PlayCalls returns how many times Play was called.
func (m *MockResource) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// Seeks returns every position passed to SetCurrentTime.
func (m *MockResource) Seeks() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.seeks)
}

// Advance moves the render position forward without recording a seek.
func (m *MockResource) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current += d
}

// SimulateFinished reports the end of the track to the delegate.
func (m *MockResource) SimulateFinished(success bool) {
	m.mu.Lock()
	m.state = Stopped
	d := m.delegate
	m.mu.Unlock()
	if d != nil {
		d.DidFinishPlaying(success)
	}
}

// SimulateDecodeError reports a decode failure to the delegate.
func (m *MockResource) SimulateDecodeError(err error) {
	m.mu.Lock()
	m.state = Stopped
	d := m.delegate
	m.mu.Unlock()
	if d != nil {
		d.DecodeErrorOccurred(err)
	}
}
