package simulation

// Move advances every RUNNING train by one tick and expires boarding
// timers (§4.5 Movement/Boarding timer). It returns true if any resource
// was released this tick, which raises the replan flag (a released
// resource may unblock a WAITING_PLAN train).
func (w *WorldState) Move() (replanNeeded bool) {
	for _, t := range w.ActiveTrains() {
		switch t.State {
		case StateRunning:
			if w.advanceRunning(t) {
				replanNeeded = true
			}
		case StateBoarding:
			if w.Clock >= t.BoardingTimerEndsAt {
				t.State = StateAwaitingClearance
				t.WaitingSince = w.Clock
			}
		}
	}
	return replanNeeded
}

// advanceRunning moves one RUNNING train forward by 1/TravelTimeTicks
// (§4.5 Movement). On reaching 1.0 it releases the completed segment and
// the just-cleared node atomically (I3) and transitions per the platform/
// terminal/interior rule.
func (w *WorldState) advanceRunning(t *Train) (released bool) {
	t.PositionOnSegment += 1.0 / float64(TravelTimeTicks)
	// Summing 1/TravelTimeTicks TravelTimeTicks times lands just below 1.0
	// in floating point, so arrival is tested with a small tolerance.
	if t.PositionOnSegment < 1.0-1e-9 {
		return false
	}
	t.PositionOnSegment = 1.0

	clearedSegment := t.CurrentSegmentID
	clearedNode := t.CurrentNodeID
	arrivedNode := t.NextNodeID()

	w.Locked.Unlock(clearedSegment)
	w.Locked.Unlock(clearedNode)

	t.CurrentSegmentID = ""
	t.CurrentNodeID = arrivedNode
	t.RouteIndex++
	t.SpeedKPH = 0
	t.PositionOnSegment = 0

	switch {
	case arrivedNode == t.EndNodeID && t.RouteIndex >= len(t.Route):
		t.State = StateExited
		t.ExitedAt = w.Clock
		w.Locked.Unlock(arrivedNode)
		w.RemoveTrain(t.ID)
	case IsPlatform(arrivedNode, w.PlatformPrefix):
		t.State = StateBoarding
		t.BoardingTimerEndsAt = w.Clock + BoardingDwellTicks
	default:
		t.State = StateAwaitingClearance
		t.WaitingSince = w.Clock
	}
	return true
}
