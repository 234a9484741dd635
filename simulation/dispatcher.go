package simulation

import "sort"

// Priorities mirrors the operator-configurable flags from SetPriorities
// (§6). Congestion and TrackCondition are force-true by the driver
// regardless of operator input, matching the original service's behavior.
type Priorities struct {
	TrainType      bool
	Punctuality    bool
	Weather        bool
	Congestion     bool
	TrackCondition bool
}

// Dispatcher implements C6: per tick, it picks which waiting train
// acquires its next (segment, node) pair, in priority + fairness order,
// attempting a local reroute when the direct next hop is blocked.
type Dispatcher struct {
	world *WorldState
	prios *Priorities
}

// NewDispatcher builds a dispatcher bound to a world and the live
// priorities struct it should read each tick (the driver mutates the same
// struct in place on SetPriorities).
func NewDispatcher(world *WorldState, prios *Priorities) *Dispatcher {
	return &Dispatcher{world: world, prios: prios}
}

// candidate pairs a waiting train with its precomputed sort key so the
// key need not be recomputed during the sort comparator.
type candidate struct {
	train      *Train
	groupRank  int
	priority   int
	waitingSince Clock
}

// Dispatch runs one dispatch pass over every train currently in
// {READY_TO_PROCEED, STOPPED_AWAITING_CLEARANCE, BOARDING_PASSENGERS},
// ordered by (groupRank, priorityComponent, waitingSince) (§4.6).
func (d *Dispatcher) Dispatch() {
	waiting := d.world.TrainsInState(StateReadyToProceed, StateAwaitingClearance, StateBoarding)
	if len(waiting) == 0 {
		return
	}

	cands := make([]candidate, 0, len(waiting))
	for _, t := range waiting {
		// BOARDING_PASSENGERS trains are listed by the dispatch scan but
		// can't actually move until their timer expires; the tick loop's
		// movement phase handles that transition. Skip them here so the
		// dispatcher only spends cycles on trains that can really proceed.
		if t.State == StateBoarding {
			continue
		}
		cands = append(cands, candidate{
			train:        t,
			groupRank:    d.groupRank(t),
			priority:     -t.EffectiveWeight(d.world.Clock, d.prios.TrainType, d.prios.Punctuality),
			waitingSince: t.WaitingSince,
		})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.groupRank != b.groupRank {
			return a.groupRank < b.groupRank
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.waitingSince < b.waitingSince
	})

	for _, c := range cands {
		d.dispatchOne(c.train)
	}
}

// groupRank is 0 for trains at entry (no CurrentSegmentID yet) or about to
// enter their end terminal, else 1 (§4.6).
func (d *Dispatcher) groupRank(t *Train) int {
	if t.IsAtEntry() || t.IsAtFinalSegment() {
		return 0
	}
	return 1
}

// dispatchOne performs steps 1-5 of §4.6 for a single waiting train.
func (d *Dispatcher) dispatchOne(t *Train) {
	nextSeg := t.NextSegmentID()
	nextNode := t.NextNodeID()
	if nextSeg == "" || nextNode == "" {
		return
	}

	seg := d.world.Layout.Segments[nextSeg]
	blocked := seg == nil || seg.Status == StatusFaulty || (d.prios.Weather && seg.Weather == WeatherBad)
	if blocked {
		d.attemptReroute(t)
		return
	}

	depNode := d.world.Layout.Nodes[t.CurrentNodeID]
	if depNode != nil && depNode.IsSignal() && depNode.Aspect != AspectGreen {
		return
	}

	if d.world.Locked.Locked(nextSeg) || d.world.Locked.Locked(nextNode) {
		d.attemptReroute(t)
		return
	}

	d.acquire(t, nextSeg, nextNode)
}

// acquire locks the next segment/node pair and transitions the train to
// RUNNING (§4.6 step 4). When trainType and punctuality are both on,
// every other waiting train's Boost is incremented (fairness pressure).
func (d *Dispatcher) acquire(t *Train, segID, nodeID string) {
	d.world.Locked.Lock(segID)
	d.world.Locked.Lock(nodeID)

	t.State = StateRunning
	t.SpeedKPH = 60
	t.CurrentSegmentID = segID
	t.PositionOnSegment = 0
	t.WaitingSince = 0

	if d.prios.TrainType && d.prios.Punctuality {
		for _, other := range d.world.ActiveTrains() {
			if other.ID != t.ID && other.State.isDispatchCandidate() {
				other.Boost++
			}
		}
	}
}

// attemptReroute implements the local reroute of §4.6 steps 2/5: from the
// train's current node to its end node, pick the lowest-score viable
// route; if none is viable, leave the train as-is (fail closed).
func (d *Dispatcher) attemptReroute(t *Train) {
	opts := RoutingOptions{WeatherAware: d.prios.Weather}
	candidates := d.world.possibleRoutesBetween(t.CurrentNodeID, t.EndNodeID, opts)
	route, ok := d.world.firstViableRoute(candidates, 0)
	if !ok {
		return
	}
	t.Route = route.Segments
	t.NodePath = route.Nodes
	t.RouteIndex = 0

	// A freshly rerouted train has not yet passed its GREEN check; retry
	// dispatch against the new route immediately rather than waiting a
	// full tick, so a reroute never costs a train an extra tick of delay
	// it wouldn't have incurred on its original route.
	d.dispatchOne(t)
}
