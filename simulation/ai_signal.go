package simulation

// AIController implements C8: it runs after the state machine step, before
// snapshot emission, only when AI control is enabled (§4.8).
type AIController struct {
	world *WorldState
	prios *Priorities
}

// NewAIController builds a controller bound to a world and its live
// priorities (weather awareness affects what counts as "blocked").
func NewAIController(world *WorldState, prios *Priorities) *AIController {
	return &AIController{world: world, prios: prios}
}

// Run executes the GREEN then RED pass (§4.8) and returns the set of
// signal node ids whose aspect changed this call, for event emission.
func (c *AIController) Run() []SignalSetPayload {
	desiredGreen, changed := c.greenPass()
	return append(changed, c.redPass(desiredGreen)...)
}

// greenPass sets departure-node aspect to GREEN for every train ready or
// stopped whose next (segment, node) are clear and unblocked, unless the
// departure node is within its manual-override grace window (§4.8 step 1,
// P4). It returns every signal it wants GREEN (including ones already
// GREEN) and, separately, the ones it actually changed.
func (c *AIController) greenPass() (map[string]bool, []SignalSetPayload) {
	desired := make(map[string]bool)
	var changed []SignalSetPayload
	for _, t := range c.world.TrainsInState(StateReadyToProceed, StateAwaitingClearance) {
		nextSeg := t.NextSegmentID()
		nextNode := t.NextNodeID()
		if nextSeg == "" || nextNode == "" {
			continue
		}
		seg := c.world.Layout.Segments[nextSeg]
		if seg == nil {
			continue
		}
		blocked := seg.Status == StatusFaulty || (c.prios.Weather && seg.Weather == WeatherBad)
		if blocked {
			continue
		}
		if c.world.Locked.Locked(nextSeg) || c.world.Locked.Locked(nextNode) {
			continue
		}

		depNode := c.world.Layout.Nodes[t.CurrentNodeID]
		if depNode == nil || !depNode.IsSignal() {
			continue
		}
		if c.withinGrace(depNode) {
			continue
		}
		desired[depNode.ID] = true
		if depNode.Aspect != AspectGreen {
			depNode.Aspect = AspectGreen
			changed = append(changed, SignalSetPayload{Signal: depNode.ID, State: AspectGreen})
		}
	}
	return desired, changed
}

// redPass sets every GREEN signal not in the desired set back to RED,
// unless it is within its grace window, a RUNNING train's remaining node
// path includes it, or an adjacent segment is locked (§4.8 step 2).
func (c *AIController) redPass(wantGreen map[string]bool) []SignalSetPayload {
	upcoming := make(map[string]bool)
	for _, t := range c.world.TrainsInState(StateRunning) {
		for i := t.RouteIndex + 1; i < len(t.NodePath); i++ {
			upcoming[t.NodePath[i]] = true
		}
	}

	var changed []SignalSetPayload
	for _, n := range c.world.Layout.Nodes {
		if !n.IsSignal() || n.Aspect != AspectGreen || wantGreen[n.ID] {
			continue
		}
		if c.withinGrace(n) {
			continue
		}
		if upcoming[n.ID] {
			continue
		}
		if c.adjacentSegmentLocked(n.ID) {
			continue
		}
		n.Aspect = AspectRed
		changed = append(changed, SignalSetPayload{Signal: n.ID, State: AspectRed})
	}
	return changed
}

// withinGrace reports whether a node is inside its manual-override grace
// window (P4): the AI may not touch its aspect until the window elapses.
func (c *AIController) withinGrace(n *Node) bool {
	return n.IsManuallyOverridden && n.LastManualOverrideAt+ManualOverrideGraceTicks >= c.world.Clock
}

// adjacentSegmentLocked reports whether any segment incident to a node is
// currently locked, the third RED-pass exemption.
func (c *AIController) adjacentSegmentLocked(nodeID string) bool {
	for _, adj := range c.world.Layout.Neighbors(nodeID) {
		if c.world.Locked.Locked(adj.SegmentID) {
			return true
		}
	}
	return false
}

// SetManualOverride records a manual signal command, which always wins
// over the AI regardless of its control state, and starts the grace
// window (§4.8).
func (w *WorldState) SetManualOverride(nodeID string, aspect Aspect) bool {
	n, ok := w.Layout.Nodes[nodeID]
	if !ok || !n.IsSignal() {
		return false
	}
	n.Aspect = aspect
	n.IsManuallyOverridden = true
	n.LastManualOverrideAt = w.Clock
	return true
}
