package session

import (
	"slices"
	"sync"
)

// Local is an in-process Observer. Routes, volume and interruptions are
// driven through its methods, by tests or by platform watchers such as
// the logind sleep watcher.
type Local struct {
	Emitter

	mu        sync.Mutex
	routes    []RouteID
	volume    float64
	category  Category
	active    bool
	activeErr error
}

// NewLocal creates a session with the given routes at full volume.
func NewLocal(routes ...RouteID) *Local {
	return &Local{routes: slices.Clone(routes), volume: 1}
}

func (l *Local) CurrentOutputRoutes() []RouteID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.routes)
}

func (l *Local) OutputVolume() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.volume
}

func (l *Local) SetCategory(c Category) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.category = c
	return nil
}

func (l *Local) SetActive(active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.activeErr != nil {
		return l.activeErr
	}
	l.active = active
	return nil
}

// Category returns the last category set.
func (l *Local) Category() Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.category
}

// Active reports whether the session was activated.
func (l *Local) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// SetVolume sets the output volume, clamped to [0, 1].
func (l *Local) SetVolume(v float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.volume = min(max(v, 0), 1)
}

// FailActivation makes SetActive return err until called again with nil.
func (l *Local) FailActivation(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activeErr = err
}

// SetRoutes replaces the routes without emitting a notification.
func (l *Local) SetRoutes(routes ...RouteID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.routes = slices.Clone(routes)
}

// ConnectRoute adds id and emits a new-device-available route change.
func (l *Local) ConnectRoute(id RouteID) {
	l.mu.Lock()
	previous := slices.Clone(l.routes)
	if !slices.Contains(l.routes, id) {
		l.routes = append(l.routes, id)
	}
	l.mu.Unlock()

	l.Emit(RouteChange{Reason: RouteNewDeviceAvailable, Previous: previous})
}

// DisconnectRoute removes id and emits an old-device-unavailable route
// change.
func (l *Local) DisconnectRoute(id RouteID) {
	l.mu.Lock()
	previous := slices.Clone(l.routes)
	l.routes = slices.DeleteFunc(l.routes, func(r RouteID) bool { return r == id })
	l.mu.Unlock()

	l.Emit(RouteChange{Reason: RouteOldDeviceUnavailable, Previous: previous})
}

// BeginInterruption emits an interruption-began notification.
func (l *Local) BeginInterruption() {
	l.Emit(Interruption{Type: InterruptionBegan})
}

// EndInterruption emits an interruption-ended notification.
func (l *Local) EndInterruption() {
	l.Emit(Interruption{Type: InterruptionEnded})
}

// Verify Local implements Observer at compile time.
var _ Observer = (*Local)(nil)
