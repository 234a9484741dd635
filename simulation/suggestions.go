// Copyright (C) 2008-2019 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

package simulation

import (
	"fmt"
	"sort"
)

// SuggestionAction is one operator-equivalent action a Suggestion proposes;
// Accept replays it as a Command through the same channel an operator's own
// input would use.
type SuggestionAction struct {
	Action string                 `json:"action"`
	Object string                 `json:"object"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Suggestion is one recommendation the advisory pass produces: a plain-
// language reason plus the command(s) that would act on it.
type Suggestion struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Reason  string             `json:"reason"`
	Score   int                `json:"score"`
	Actions []SuggestionAction `json:"actions"`
}

// SuggestionSet is the advisory pass's output for one recompute, sorted by
// descending Score.
type SuggestionSet struct {
	Items       []Suggestion `json:"items"`
	GeneratedAt Clock        `json:"generatedAt"`
}

// suggestionEngine is bound to exactly one live Simulation at a time via
// ResetSuggestionEngine; package-level functions delegate to it so the hub
// and HTTP handlers (which only ever hold a *Simulation, not an engine
// reference) can call RecomputeSuggestions/AcceptSuggestion/RejectSuggestion
// directly.
type suggestionEngine struct {
	sim      *Simulation
	rejected map[string]Clock // suggestion id -> clock tick it becomes eligible again
}

var engine = &suggestionEngine{rejected: make(map[string]Clock)}

// ResetSuggestionEngine rebinds the package-level advisory engine to a
// (possibly freshly restarted) Simulation, discarding prior rejections.
func ResetSuggestionEngine(sim *Simulation) {
	engine = &suggestionEngine{sim: sim, rejected: make(map[string]Clock)}
}

// RecomputeSuggestions runs one advisory pass over the bound Simulation's
// current state and publishes the result on sim.Suggestions, notifying the
// event sink so connected clients and the metrics/audit listeners see it.
func RecomputeSuggestions() {
	if engine.sim == nil {
		return
	}
	set := engine.compute()
	engine.sim.Suggestions = set
	engine.sim.sink.Send(Event{Name: EventSuggestionsUpdated, Data: set})
}

// AcceptSuggestion replays every action of the named suggestion as a
// Command against the bound Simulation.
func AcceptSuggestion(id string) error {
	if engine.sim == nil {
		return fmt.Errorf("suggestion engine not bound to a simulation")
	}
	s, ok := engine.find(id)
	if !ok {
		return fmt.Errorf("suggestion %q not found", id)
	}
	for _, a := range s.Actions {
		cmd, err := actionToCommand(a)
		if err != nil {
			return err
		}
		engine.sim.Enqueue(cmd)
	}
	delete(engine.rejected, id)
	return nil
}

// RejectSuggestion suppresses a suggestion id from reappearing for the
// given number of simulated minutes (a simulated minute is 60 ticks).
func RejectSuggestion(id string, minutes int) error {
	if engine.sim == nil {
		return fmt.Errorf("suggestion engine not bound to a simulation")
	}
	if minutes <= 0 {
		minutes = 10
	}
	engine.rejected[id] = engine.sim.World.Clock + Clock(minutes*60)
	return nil
}

func (e *suggestionEngine) find(id string) (Suggestion, bool) {
	if e.sim.Suggestions == nil {
		return Suggestion{}, false
	}
	for _, s := range e.sim.Suggestions.Items {
		if s.ID == id {
			return s, true
		}
	}
	return Suggestion{}, false
}

func (e *suggestionEngine) suppressed(id string) bool {
	until, ok := e.rejected[id]
	if !ok {
		return false
	}
	if e.sim.World.Clock >= until {
		delete(e.rejected, id)
		return false
	}
	return true
}

// compute produces the current advisory pass: these are operator-facing
// hints, never applied automatically. Three shapes are grounded directly in
// World/Planner/Dispatcher state:
//
//   - one or more WAITING_PLAN trains: suggest forcing a plan pass now.
//   - a FAULTY segment on the assigned route of one or more active trains:
//     suggest clearing it back to OPERATIONAL. Alternative routes are not
//     examined.
//   - a READY_TO_PROCEED/STOPPED_AWAITING_CLEARANCE train whose departure
//     signal is RED and which has waited at least ManualOverrideGraceTicks:
//     suggest setting the signal GREEN. Whether the RED came from a manual
//     override, and whether the next segment is free, is not checked.
func (e *suggestionEngine) compute() *SuggestionSet {
	w := e.sim.World
	var items []Suggestion

	waiting := w.TrainsInState(StateWaitingPlan)
	if len(waiting) > 0 {
		id := "plan:force"
		if !e.suppressed(id) {
			items = append(items, Suggestion{
				ID:     id,
				Title:  fmt.Sprintf("%d train(s) awaiting a route plan", len(waiting)),
				Reason: "WAITING_PLAN trains have no assigned route until the next planning pass runs",
				Score:  5 + len(waiting),
				Actions: []SuggestionAction{
					{Action: "plan", Object: "planner"},
				},
			})
		}
	}

	blockedBy := make(map[string]int) // faulty segment id -> trains whose current route crosses it
	for _, t := range w.ActiveTrains() {
		for _, segID := range t.Route {
			if seg, ok := w.Layout.Segments[segID]; ok && seg.Status == StatusFaulty {
				blockedBy[segID]++
			}
		}
	}
	for segID, count := range blockedBy {
		id := "track:clear:" + segID
		if e.suppressed(id) {
			continue
		}
		items = append(items, Suggestion{
			ID:     id,
			Title:  fmt.Sprintf("Segment %s is FAULTY and blocks %d train(s)", segID, count),
			Reason: "the assigned route of the affected trains includes this segment",
			Score:  10 + count*3,
			Actions: []SuggestionAction{
				{Action: "set_track_status", Object: segID, Params: map[string]interface{}{"status": string(StatusOperational)}},
			},
		})
	}

	for _, t := range w.TrainsInState(StateReadyToProceed, StateAwaitingClearance) {
		dep, ok := w.Layout.Nodes[t.CurrentNodeID]
		if !ok || !dep.IsSignal() || dep.Aspect != AspectRed {
			continue
		}
		wait := int(w.Clock - t.WaitingSince)
		if wait < ManualOverrideGraceTicks {
			continue
		}
		id := "signal:green:" + dep.ID
		if e.suppressed(id) {
			continue
		}
		items = append(items, Suggestion{
			ID:     id,
			Title:  fmt.Sprintf("Signal %s has held train %s at RED for %d ticks", dep.ID, t.ID, wait),
			Reason: "the train has waited at this RED signal for at least the manual-override grace window",
			Score:  8 + wait/10,
			Actions: []SuggestionAction{
				{Action: "set_signal", Object: dep.ID, Params: map[string]interface{}{"aspect": string(AspectGreen)}},
			},
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	return &SuggestionSet{Items: items, GeneratedAt: w.Clock}
}

// actionToCommand translates a SuggestionAction back into the Command an
// operator sending the equivalent request would have produced.
func actionToCommand(a SuggestionAction) (Command, error) {
	switch a.Action {
	case "plan":
		return Command{Kind: CmdGetPlan}, nil
	case "set_track_status":
		statusStr, _ := a.Params["status"].(string)
		return Command{Kind: CmdSetTrackStatus, TrackID: a.Object, Status: SegmentStatus(statusStr)}, nil
	case "set_signal":
		aspectStr, _ := a.Params["aspect"].(string)
		aspect := Aspect(aspectStr)
		return Command{Kind: CmdSetSignal, SignalID: a.Object, State: &aspect}, nil
	default:
		return Command{}, fmt.Errorf("unknown suggestion action %q", a.Action)
	}
}
