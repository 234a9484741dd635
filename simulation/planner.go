package simulation

import "sort"

// PlanAction is a tagged variant of a plan instruction's verb (§4.7,
// GLOSSARY).
type PlanAction string

const (
	ActionProceed PlanAction = "PROCEED"
	ActionHold    PlanAction = "HOLD"
)

// PlanInstruction is one emitted instruction for a WAITING_PLAN train.
type PlanInstruction struct {
	TrainID   string     `json:"trainId"`
	Action    PlanAction `json:"action"`
	Route     []string   `json:"route"`
	NodePath  []string   `json:"nodePath"`
	StartTime Clock      `json:"startTime"`
}

// reservation is one occupied interval on a resource (segment or node id)
// within the planning horizon, used to enforce no-overlap (P5).
type reservation struct {
	start, end Clock
}

// Planner implements C7 as a greedy highest-weight-first disjunctive scheduler
// (see SPEC_FULL.md's Constraint-programming backend section for why: no
// CP-SAT binding is available, so this greedy heuristic stands in for it).
// It satisfies the no-overlap constraint by construction rather than by
// search, and approximates the weighted objective via priority ordering.
type Planner struct {
	world *WorldState
	prios *Priorities
}

// NewPlanner builds a planner bound to a world and its live priorities.
func NewPlanner(world *WorldState, prios *Priorities) *Planner {
	return &Planner{world: world, prios: prios}
}

// Plan solves one planning pass over every WAITING_PLAN train, within the
// horizon [clock, clock+PlannerHorizonTicks] (§4.7).
func (p *Planner) Plan() []PlanInstruction {
	waiting := p.world.TrainsInState(StateWaitingPlan)
	if len(waiting) == 0 {
		return nil
	}

	reservations := p.fixedReservations()

	type scored struct {
		train  *Train
		weight int
	}
	ordered := make([]scored, 0, len(waiting))
	for _, t := range waiting {
		ordered = append(ordered, scored{
			train:  t,
			weight: t.EffectiveWeight(p.world.Clock, p.prios.TrainType, p.prios.Punctuality),
		})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].weight != ordered[j].weight {
			return ordered[i].weight > ordered[j].weight
		}
		return ordered[i].train.WaitingSince < ordered[j].train.WaitingSince
	})

	instructions := make([]PlanInstruction, 0, len(ordered))
	for _, s := range ordered {
		t := s.train
		opts := RoutingOptions{WeatherAware: p.prios.Weather}
		candidates := p.world.possibleRoutes(t, opts)

		var chosen *Route
		var bestStart Clock
		for i := range candidates {
			r := &candidates[i]
			start, ok := p.earliestStart(r, reservations)
			if !ok {
				continue
			}
			if chosen == nil || r.Score < chosen.Score || (r.Score == chosen.Score && start < bestStart) {
				chosen = r
				bestStart = start
			}
		}
		if chosen == nil {
			// Unroutable within the horizon under current locks/faults;
			// the train stays in WAITING_PLAN with no instruction. Nothing
			// is logged for it, here or in the caller.
			continue
		}

		p.reserve(chosen, bestStart, reservations)

		action := ActionHold
		if bestStart <= p.world.Clock {
			action = ActionProceed
		}
		instructions = append(instructions, PlanInstruction{
			TrainID:   t.ID,
			Action:    action,
			Route:     chosen.Segments,
			NodePath:  chosen.Nodes,
			StartTime: bestStart,
		})
	}
	return instructions
}

// fixedReservations emits, for every RUNNING train, intervals chaining the
// remainder of its current segment and every downstream segment/junction
// of its assigned route, starting at clock (§4.7).
func (p *Planner) fixedReservations() map[string][]reservation {
	res := make(map[string][]reservation)
	for _, t := range p.world.ActiveTrains() {
		if t.State != StateRunning {
			continue
		}
		cursor := p.world.Clock
		remaining := TravelTimeTicks - int(float64(TravelTimeTicks)*t.PositionOnSegment)
		if remaining < 0 {
			remaining = 0
		}
		if t.CurrentSegmentID != "" {
			end := cursor + Clock(remaining)
			res[t.CurrentSegmentID] = append(res[t.CurrentSegmentID], reservation{cursor, end})
			cursor = end
		}
		for i := t.RouteIndex + 1; i < len(t.Route); i++ {
			node := t.NodePath[i]
			res[node] = append(res[node], reservation{cursor, cursor + JunctionOccupancyTicks})
			cursor += JunctionOccupancyTicks

			seg := t.Route[i]
			end := cursor + TravelTimeTicks
			res[seg] = append(res[seg], reservation{cursor, end})
			cursor = end
		}
	}
	return res
}

// earliestStart finds the earliest time ≥ clock at which every resource
// along the route (segments and intermediate nodes) can be reserved
// without overlapping an existing reservation, within the horizon.
func (p *Planner) earliestStart(r *Route, reservations map[string][]reservation) (Clock, bool) {
	horizon := p.world.Clock + PlannerHorizonTicks
	candidate := p.world.Clock
	for attempt := 0; attempt < len(r.Segments)+len(r.Nodes)+1; attempt++ {
		start := candidate
		cursor := start
		conflict := false
		var pushTo Clock

		for i, segID := range r.Segments {
			if i > 0 {
				node := r.Nodes[i]
				nEnd := cursor + JunctionOccupancyTicks
				if c, at := firstConflict(reservations[node], cursor, nEnd); c {
					conflict = true
					pushTo = at
					break
				}
				cursor = nEnd
			}
			sEnd := cursor + TravelTimeTicks
			if c, at := firstConflict(reservations[segID], cursor, sEnd); c {
				conflict = true
				pushTo = at
				break
			}
			cursor = sEnd
		}

		if !conflict {
			if start > horizon {
				return 0, false
			}
			return start, true
		}
		candidate = pushTo
		if candidate > horizon {
			return 0, false
		}
	}
	return 0, false
}

// firstConflict reports whether [start,end) overlaps any existing
// reservation, and if so the earliest time at which that reservation has
// cleared (a candidate next probe point).
func firstConflict(existing []reservation, start, end Clock) (bool, Clock) {
	best := Clock(-1)
	found := false
	for _, r := range existing {
		if start < r.end && r.start < end {
			if !found || r.end < best {
				best = r.end
				found = true
			}
		}
	}
	return found, best
}

// reserve commits a chosen route's intervals into the reservation table at
// its chosen start time, so later (lower-priority) trains in this pass see
// them as fixed.
func (p *Planner) reserve(r *Route, start Clock, reservations map[string][]reservation) {
	cursor := start
	for i, segID := range r.Segments {
		if i > 0 {
			node := r.Nodes[i]
			nEnd := cursor + JunctionOccupancyTicks
			reservations[node] = append(reservations[node], reservation{cursor, nEnd})
			cursor = nEnd
		}
		sEnd := cursor + TravelTimeTicks
		reservations[segID] = append(reservations[segID], reservation{cursor, sEnd})
		cursor = sEnd
	}
}

// ApplyPlan installs each instruction's route onto its train and
// transitions WAITING_PLAN trains to READY_TO_PROCEED (§4.7 Application,
// R2: a train no longer in WAITING_PLAN ignores a stale instruction, so
// re-applying the same plan is a no-op the second time).
func (w *WorldState) ApplyPlan(instructions []PlanInstruction) {
	for _, instr := range instructions {
		t, ok := w.Trains[instr.TrainID]
		if !ok || t.State != StateWaitingPlan {
			continue
		}
		t.Route = instr.Route
		t.NodePath = instr.NodePath
		t.RouteIndex = 0
		t.State = StateReadyToProceed
		t.WaitingSince = w.Clock
	}
}
