// Package session models the audio output session: the set of output
// routes, the system output volume, and the notifications emitted when
// routes change or another client interrupts playback.
package session

import (
	"fmt"
	"slices"
)

// RouteID identifies an output route (speakers, headphones, a sink).
type RouteID string

// Category is the audio session category.
type Category int

const (
	CategoryAmbient Category = iota
	CategoryPlayback
)

func (c Category) String() string {
	switch c {
	case CategoryAmbient:
		return "ambient"
	case CategoryPlayback:
		return "playback"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// RouteChangeReason explains a route change.
type RouteChangeReason int

const (
	RouteUnknown RouteChangeReason = iota
	RouteNewDeviceAvailable
	RouteOldDeviceUnavailable
	RouteCategoryChange
	RouteOverride
	RouteWakeFromSleep
	RouteNoSuitableRoute
	RouteConfigurationChange
)

var reasonNames = map[RouteChangeReason]string{
	RouteUnknown:              "unknown",
	RouteNewDeviceAvailable:   "new-device-available",
	RouteOldDeviceUnavailable: "old-device-unavailable",
	RouteCategoryChange:       "category-change",
	RouteOverride:             "override",
	RouteWakeFromSleep:        "wake-from-sleep",
	RouteNoSuitableRoute:      "no-suitable-route",
	RouteConfigurationChange:  "configuration-change",
}

func (r RouteChangeReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// InterruptionType tells whether an interruption began or ended.
type InterruptionType int

const (
	InterruptionBegan InterruptionType = iota
	InterruptionEnded
)

func (t InterruptionType) String() string {
	if t == InterruptionEnded {
		return "ended"
	}
	return "began"
}

// Notification is a session event. It is one of RouteChange or
// Interruption.
type Notification interface {
	notification()
}

// RouteChange is emitted when the output routes change. Previous holds the
// routes that were active before the change.
type RouteChange struct {
	Reason   RouteChangeReason
	Previous []RouteID
}

// Interruption is emitted when another client takes or releases the
// audio session.
type Interruption struct {
	Type InterruptionType
}

func (RouteChange) notification()  {}
func (Interruption) notification() {}

// Observer is the output session as seen by the playback engine.
type Observer interface {
	// CurrentOutputRoutes returns the active output routes.
	CurrentOutputRoutes() []RouteID
	// OutputVolume returns the system output volume in [0, 1].
	OutputVolume() float64
	SetCategory(c Category) error
	SetActive(active bool) error
	// Subscribe registers fn for every notification until cancel is called.
	Subscribe(fn func(Notification)) (cancel func())
}

// Routes is a set of route ids.
type Routes map[RouteID]struct{}

// NewRoutes builds a set from ids.
func NewRoutes(ids ...RouteID) Routes {
	r := make(Routes, len(ids))
	for _, id := range ids {
		r[id] = struct{}{}
	}
	return r
}

// Has reports whether id is in the set.
func (r Routes) Has(id RouteID) bool {
	_, ok := r[id]
	return ok
}

// Intersects reports whether any of ids is in the set.
func (r Routes) Intersects(ids []RouteID) bool {
	return slices.ContainsFunc(ids, r.Has)
}

// Sorted returns the ids in lexical order.
func (r Routes) Sorted() []RouteID {
	ids := make([]RouteID, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
