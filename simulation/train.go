package simulation

// TrainState is the tagged variant of a train's position in its lifecycle
// (§4.3, §4.5). Transitions are driven only by the Dispatcher and the tick
// loop's movement phase.
type TrainState string

const (
	StateWaitingPlan       TrainState = "WAITING_PLAN"
	StateReadyToProceed    TrainState = "READY_TO_PROCEED"
	StateRunning           TrainState = "RUNNING"
	StateBoarding          TrainState = "BOARDING_PASSENGERS"
	StateAwaitingClearance TrainState = "STOPPED_AWAITING_CLEARANCE"
	StateExited            TrainState = "EXITED"
)

// isDispatchCandidate reports whether s is one of the states the
// Dispatcher considers each tick (§4.6).
func (s TrainState) isDispatchCandidate() bool {
	return s == StateReadyToProceed || s == StateAwaitingClearance || s == StateBoarding
}

// Train is one scheduled service moving through the layout (§3).
type Train struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Class TrainClass `json:"type"`

	StartNodeID string `json:"startNode"`
	EndNodeID   string `json:"endNode"`

	ScheduledArrival Clock `json:"scheduledArrival"`

	State TrainState `json:"state"`

	// Route is the train's assigned segment path, chosen by the Planner
	// from its precomputed candidates. NodePath is the derived node
	// sequence kept in lockstep so a consumer need not reconvert.
	Route    []string `json:"route,omitempty"`
	NodePath []string `json:"nodePath,omitempty"`

	// CurrentSegmentID is the segment this train occupies while RUNNING,
	// else "".
	CurrentSegmentID string `json:"currentSegmentId,omitempty"`

	// RouteIndex is the offset into Route of CurrentSegmentID (or, while
	// not RUNNING, of the segment about to be entered next).
	RouteIndex int `json:"-"`

	// CurrentNodeID is the node this train currently holds: its point of
	// departure while RUNNING, or the node it is stopped/boarding at.
	CurrentNodeID string `json:"currentNodeId"`

	// PositionOnSegment ∈ [0,1] is this train's fractional progress along
	// CurrentSegmentID (I4). Meaningless (left at 0) off-segment.
	PositionOnSegment float64 `json:"positionOnSegment"`

	// SpeedKPH is nonzero only while RUNNING (I5).
	SpeedKPH int `json:"speedKph"`

	// WaitingSince is the clock at which this train entered its current
	// non-RUNNING waiting state; used as the Dispatcher's fairness
	// tiebreak (§4.6) and zeroed while RUNNING.
	WaitingSince Clock `json:"waitingSince"`

	// BoardingTimerEndsAt is set to clock+BoardingDwellTicks on entry to
	// BOARDING_PASSENGERS (§4.5).
	BoardingTimerEndsAt Clock `json:"boardingTimerEndsAt,omitempty"`

	// Boost is the integer dynamic priority boost accumulated whenever a
	// higher-priority peer dispatches ahead of this train (§4.6, GLOSSARY).
	Boost int `json:"boost"`

	ExitedAt Clock `json:"exitedAt,omitempty"`
}

// NewTrain builds a train in its initial WAITING_PLAN state from a
// schedule entry.
func NewTrain(e ScheduleEntry) *Train {
	return &Train{
		ID:               e.TrainNo,
		Name:             e.TrainName,
		Class:            e.Class,
		StartNodeID:      e.StartNodeID,
		EndNodeID:        e.EndNodeID,
		ScheduledArrival: e.ArrivalTime,
		State:            StateWaitingPlan,
		CurrentNodeID:    e.StartNodeID,
	}
}

// IsTerminal reports whether this train has finished and holds no
// resources (P2: an EXITED train contributes nothing to LockedResourceSet).
func (t *Train) IsTerminal() bool {
	return t.State == StateExited
}

// HasRoute reports whether a route has been assigned to this train.
func (t *Train) HasRoute() bool {
	return len(t.Route) > 0
}

// NextSegmentID returns the segment this train would next acquire: its
// current one if already RUNNING (there is nothing further to acquire
// until it clears), or Route[RouteIndex] otherwise. Returns "" once the
// route is exhausted.
func (t *Train) NextSegmentID() string {
	if t.RouteIndex < 0 || t.RouteIndex >= len(t.Route) {
		return ""
	}
	return t.Route[t.RouteIndex]
}

// NextNodeID returns the node this train would hold after crossing
// NextSegmentID: NodePath[RouteIndex+1]. Returns "" once the route is
// exhausted.
func (t *Train) NextNodeID() string {
	idx := t.RouteIndex + 1
	if idx < 0 || idx >= len(t.NodePath) {
		return ""
	}
	return t.NodePath[idx]
}

// IsAtEntry reports whether this train has not yet acquired its first
// segment — the "entry" half of the Dispatcher's groupRank=0 rule (§4.6).
func (t *Train) IsAtEntry() bool {
	return t.CurrentSegmentID == "" && t.RouteIndex == 0
}

// IsAtFinalSegment reports whether NextSegmentID, if acquired, would be
// the last hop of the route — the "about to enter its end terminal" half
// of groupRank=0.
func (t *Train) IsAtFinalSegment() bool {
	return t.RouteIndex == len(t.Route)-1
}

// EffectiveWeight computes base+boost+punctualityBoost per §4.6/§4.7.
func (t *Train) EffectiveWeight(clock Clock, byType, punctuality bool) int {
	w := t.Class.Base(byType) + t.Boost
	if punctuality {
		w += t.PunctualityBoost(clock)
	}
	return w
}

// PunctualityBoost is max(0, (clock-scheduledArrival)/60) per §4.6.
func (t *Train) PunctualityBoost(clock Clock) int {
	d := int(clock-t.ScheduledArrival) / 60
	if d < 0 {
		return 0
	}
	return d
}
