package simulation

import "sort"

// LockedResourceSet is the set of segment and node identifiers currently
// exclusively held (§3). Both kinds of id share one namespace here exactly
// as the domain does: a segment id and a node id are never equal by
// construction, so one set suffices for both.
type LockedResourceSet map[string]bool

// Lock marks id as held.
func (l LockedResourceSet) Lock(id string) {
	l[id] = true
}

// Unlock releases id.
func (l LockedResourceSet) Unlock(id string) {
	delete(l, id)
}

// Locked reports whether id is currently held.
func (l LockedResourceSet) Locked(id string) bool {
	return l[id]
}

// WorldState is the authoritative mutable store (C3): the layout's mutable
// fields, the locked-resource set, the active train set, and the
// simulated clock. It is touched only by the driver goroutine (§5).
type WorldState struct {
	Layout  *Layout
	Clock   Clock
	Locked  LockedResourceSet
	Trains  map[string]*Train
	trainOrder []string

	// WeatherAware mirrors the "weather" priority flag: when true,
	// BAD-weather segments are locked (I7) and excluded from routing.
	WeatherAware bool

	// PlatformPrefix is the configured node-id prefix identifying a
	// platform stop (§4.5 Platform rule). Defaults to DefaultPlatformPrefix.
	PlatformPrefix string
}

// NewWorldState builds an empty world over a loaded layout. FAULTY segments
// are locked immediately (I6); nothing else is locked at start.
func NewWorldState(layout *Layout) *WorldState {
	w := &WorldState{
		Layout:         layout,
		Locked:         make(LockedResourceSet),
		Trains:         make(map[string]*Train),
		PlatformPrefix: DefaultPlatformPrefix,
	}
	w.reconcileFaultyLocks()
	return w
}

// reconcileFaultyLocks ensures every FAULTY segment is locked (I6). It only
// adds locks: it releases nothing, including on OPERATIONAL segments.
func (w *WorldState) reconcileFaultyLocks() {
	for id, seg := range w.Layout.Segments {
		if seg.Status == StatusFaulty {
			w.Locked.Lock(id)
		}
	}
}

// ApplyWeatherAwareness locks/unlocks BAD-weather segments per I7 when the
// weather priority flag is toggled.
func (w *WorldState) ApplyWeatherAwareness(enabled bool) {
	w.WeatherAware = enabled
	for id, seg := range w.Layout.Segments {
		if seg.Weather == WeatherBad {
			if enabled {
				w.Locked.Lock(id)
			} else if seg.Status != StatusFaulty {
				w.Locked.Unlock(id)
			}
		}
	}
}

// AddTrain registers a newly spawned train in stable insertion order, so
// iteration order is deterministic across ticks (matters for tie-breaking
// in the Dispatcher and Planner).
func (w *WorldState) AddTrain(t *Train) {
	if _, exists := w.Trains[t.ID]; exists {
		return
	}
	w.Trains[t.ID] = t
	w.trainOrder = append(w.trainOrder, t.ID)
}

// RemoveTrain drops a train from the active set (called once it EXITS).
func (w *WorldState) RemoveTrain(id string) {
	delete(w.Trains, id)
	for i, existing := range w.trainOrder {
		if existing == id {
			w.trainOrder = append(w.trainOrder[:i], w.trainOrder[i+1:]...)
			break
		}
	}
}

// ActiveTrains returns all active trains in stable insertion order.
func (w *WorldState) ActiveTrains() []*Train {
	out := make([]*Train, 0, len(w.trainOrder))
	for _, id := range w.trainOrder {
		if t, ok := w.Trains[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// TrainsInState returns active trains currently in any of the given
// states, preserving insertion order.
func (w *WorldState) TrainsInState(states ...TrainState) []*Train {
	want := make(map[TrainState]bool, len(states))
	for _, s := range states {
		want[s] = true
	}
	var out []*Train
	for _, t := range w.ActiveTrains() {
		if want[t.State] {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot is an immutable copy of world state for consumers (§4.3,
// "getState()"). It is the sole interface external code sees.
type Snapshot struct {
	Clock    Clock             `json:"clock"`
	Nodes    []*Node           `json:"nodes"`
	Segments []*Segment        `json:"segments"`
	Trains   []*Train          `json:"trains"`
}

// GetState reconciles per-segment occupancy by scanning active trains'
// CurrentSegmentID, then copies the world into an immutable Snapshot
// (§4.3, §5: "_update_network_state runs as part of getState(), observing
// the post-tick world").
func (w *WorldState) GetState() Snapshot {
	occupied := make(map[string]bool)
	for _, t := range w.ActiveTrains() {
		if t.State == StateRunning && t.CurrentSegmentID != "" {
			occupied[t.CurrentSegmentID] = true
		}
	}

	nodes := make([]*Node, 0, len(w.Layout.Nodes))
	var nodeIDs []string
	for id := range w.Layout.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)
	for _, id := range nodeIDs {
		n := *w.Layout.Nodes[id]
		nodes = append(nodes, &n)
	}

	segments := make([]*Segment, 0, len(w.Layout.Segments))
	var segIDs []string
	for id := range w.Layout.Segments {
		segIDs = append(segIDs, id)
	}
	sort.Strings(segIDs)
	for _, id := range segIDs {
		s := *w.Layout.Segments[id]
		s.IsOccupied = occupied[id]
		segments = append(segments, &s)
	}

	trains := make([]*Train, 0, len(w.Trains))
	for _, t := range w.ActiveTrains() {
		cp := *t
		trains = append(trains, &cp)
	}

	return Snapshot{
		Clock:    w.Clock,
		Nodes:    nodes,
		Segments: segments,
		Trains:   trains,
	}
}
