package interruption

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/llehouerou/tempo/internal/session"
)

type actions struct {
	mu  sync.Mutex
	got []Action
}

func (a *actions) record(act Action) {
	a.mu.Lock()
	a.got = append(a.got, act)
	a.mu.Unlock()
}

func (a *actions) list() []Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Action(nil), a.got...)
}

func newTracker(t *testing.T, routes ...session.RouteID) (*Tracker, *session.Local, *actions) {
	t.Helper()
	l := session.NewLocal(routes...)
	tr := New(l, zerolog.Nop())
	t.Cleanup(tr.Close)
	var a actions
	tr.OnAction(a.record)
	return tr, l, &a
}

func TestRouteLostWhilePlaying_PausesThenResumesOnSameRoute(t *testing.T) {
	tr, l, a := newTracker(t, "speaker", "headphones")
	tr.SetPlaying(true)

	l.DisconnectRoute("headphones")
	assert.Equal(t, []Action{ActionPause}, a.list())

	route, _ := tr.Snapshot()
	assert.Equal(t, StageStart, route.Stage)
	assert.True(t, route.AudioInterrupted)
	assert.Equal(t, []session.RouteID{"headphones"}, route.Disconnected.Sorted())

	tr.SetPlaying(false)
	l.ConnectRoute("headphones")

	assert.Equal(t, []Action{ActionPause, ActionPlay}, a.list())
	route, sess := tr.Snapshot()
	assert.Equal(t, StageNone, route.Stage)
	assert.Empty(t, route.Disconnected)
	assert.Equal(t, Record{}, sess)
}

func TestRouteLostWhilePaused_NoAction(t *testing.T) {
	tr, l, a := newTracker(t, "speaker", "headphones")

	l.DisconnectRoute("headphones")
	l.ConnectRoute("headphones")

	assert.Empty(t, a.list())
	route, _ := tr.Snapshot()
	assert.Equal(t, StageEnd, route.Stage)
	assert.False(t, route.AudioInterrupted)
}

func TestNewUnrelatedRoute_DoesNotResume(t *testing.T) {
	tr, l, a := newTracker(t, "speaker", "headphones")
	tr.SetPlaying(true)
	l.DisconnectRoute("headphones")
	tr.SetPlaying(false)

	l.ConnectRoute("bluetooth")

	assert.Equal(t, []Action{ActionPause}, a.list())
	route, _ := tr.Snapshot()
	assert.Equal(t, StageEnd, route.Stage)
	assert.True(t, route.AudioInterrupted)
}

func TestRouteLost_EmptyDiffRecordsAllPrevious(t *testing.T) {
	tr, _, _ := newTracker(t, "speaker")
	// The observer already reports the previous routes as current.
	tr.handle(session.RouteChange{
		Reason:   session.RouteOldDeviceUnavailable,
		Previous: []session.RouteID{"speaker"},
	})

	route, _ := tr.Snapshot()
	assert.Equal(t, []session.RouteID{"speaker"}, route.Disconnected.Sorted())
}

func TestOtherRouteReasons_Ignored(t *testing.T) {
	tr, _, a := newTracker(t, "speaker")
	tr.SetPlaying(true)

	tr.handle(session.RouteChange{Reason: session.RouteCategoryChange})
	tr.handle(session.RouteChange{Reason: session.RouteOverride})

	assert.Empty(t, a.list())
	route, _ := tr.Snapshot()
	assert.Equal(t, StageNone, route.Stage)
}

func TestSessionInterruption_PausesAndResumes(t *testing.T) {
	tr, l, a := newTracker(t, "speaker")
	tr.SetPlaying(true)

	l.BeginInterruption()
	tr.SetPlaying(false)
	_, sess := tr.Snapshot()
	assert.True(t, sess.AudioInterrupted)

	l.EndInterruption()

	assert.Equal(t, []Action{ActionPause, ActionPlay}, a.list())
}

func TestSessionInterruptionWhileStopped_NoResume(t *testing.T) {
	_, l, a := newTracker(t, "speaker")

	l.BeginInterruption()
	l.EndInterruption()

	assert.Empty(t, a.list())
}

func TestResumeRequiresBothSourcesEnded(t *testing.T) {
	tr, l, a := newTracker(t, "speaker", "headphones")
	tr.SetPlaying(true)

	// Headphones pulled: playback pauses.
	l.DisconnectRoute("headphones")
	tr.SetPlaying(false)

	// A call arrives while paused, then the headphones come back.
	l.BeginInterruption()
	l.ConnectRoute("headphones")
	assert.Equal(t, []Action{ActionPause}, a.list(), "session interruption still active")
	assert.False(t, tr.ExpectedToResume())

	// The call ends: every source is done and the route paused playback.
	l.EndInterruption()
	assert.Equal(t, []Action{ActionPause, ActionPlay}, a.list())
}

func TestResumeRequiresBothSourcesEnded_RouteLast(t *testing.T) {
	tr, l, a := newTracker(t, "speaker", "headphones")
	tr.SetPlaying(true)

	l.BeginInterruption()
	tr.SetPlaying(false)
	l.DisconnectRoute("headphones")

	l.EndInterruption()
	assert.Equal(t, []Action{ActionPause}, a.list(), "route interruption still active")

	l.ConnectRoute("headphones")
	assert.Equal(t, []Action{ActionPause, ActionPlay}, a.list())
}

func TestManualPlayClearsInterruptedFlag(t *testing.T) {
	tr, l, a := newTracker(t, "speaker")
	tr.SetPlaying(true)
	l.BeginInterruption()
	tr.SetPlaying(false)

	// User resumes and pauses by hand before the interruption ends.
	tr.SetPlaying(true)
	tr.SetPlaying(false)
	l.EndInterruption()

	assert.Equal(t, []Action{ActionPause}, a.list())
}

func TestPlayingBlocksResume(t *testing.T) {
	tr, l, a := newTracker(t, "speaker")
	tr.SetPlaying(true)
	l.BeginInterruption()

	l.EndInterruption()

	assert.Equal(t, []Action{ActionPause}, a.list())
	_, sess := tr.Snapshot()
	assert.Equal(t, StageEnd, sess.Stage)
}

func TestClose_Unsubscribes(t *testing.T) {
	tr, l, a := newTracker(t, "speaker")
	tr.SetPlaying(true)

	tr.Close()
	l.BeginInterruption()

	assert.Empty(t, a.list())
	assert.Equal(t, 0, l.Len())
}
