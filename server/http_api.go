package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/railyard/interlocking-sim/simulation"
)

// GET /api/trains/section/{sectionPrefix}
//
// A "section" here is any node ID prefix (platform groups are already keyed
// this way via Options.PlatformPrefix, but any prefix works): a train is
// "in" the section if its current node or next node matches it.
func serveTrainsBySection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	sectionID := strings.TrimPrefix(r.URL.Path, "/api/trains/section/")

	type trainOut struct {
		ID       string  `json:"id"`
		Class    string  `json:"class"`
		State    string  `json:"state"`
		Speed    int     `json:"speedKph"`
		Node     string  `json:"currentNode"`
		Segment  string  `json:"currentSegment"`
		Progress float64 `json:"positionOnSegment"`
		EndNode  string  `json:"endNode"`
		Delay    int     `json:"delayTicks"`
	}
	current := []trainOut{}
	incoming := []trainOut{}

	state := sim.World.GetState()
	for _, t := range state.Trains {
		inSection := strings.HasPrefix(t.CurrentNodeID, sectionID) || strings.HasPrefix(t.NextNodeID(), sectionID)
		out := trainOut{
			ID: t.ID, Class: string(t.Class), State: string(t.State),
			Speed: t.SpeedKPH, Node: t.CurrentNodeID, Segment: t.CurrentSegmentID,
			Progress: t.PositionOnSegment, EndNode: t.EndNodeID,
			Delay: int(state.Clock - t.ScheduledArrival),
		}
		switch {
		case inSection:
			current = append(current, out)
		case t.State == simulation.StateWaitingPlan:
			incoming = append(incoming, out)
		}
	}

	resp := map[string]interface{}{
		"sectionId":      sectionID,
		"currentTrains":  current,
		"incomingTrains": incoming,
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(resp)
}

// POST /api/trains/{trainId}/route
//
// ACCEPT re-enqueues a plan pass for the train (equivalent to the operator
// pressing "plan now"); HALT forces a RED override on whatever signal
// currently gates it, the supported degree of manual intervention in this
// model (there is no free-form path edit — routes come from the Router).
func serveTrainRouteCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/trains/"), "/")
	if len(parts) < 2 || parts[1] != "route" {
		http.NotFound(w, r)
		return
	}
	tid := parts[0]
	t, ok := sim.World.Trains[tid]
	if !ok {
		http.Error(w, "TRAIN_NOT_FOUND", http.StatusNotFound)
		return
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	switch strings.ToUpper(body.Action) {
	case "ACCEPT":
		sim.Enqueue(simulation.Command{Kind: simulation.CmdGetPlan})
	case "HALT":
		dep, ok := sim.World.Layout.Nodes[t.CurrentNodeID]
		if !ok || !dep.IsSignal() {
			http.Error(w, "train is not waiting at a signal", http.StatusConflict)
			return
		}
		aspect := simulation.AspectRed
		sim.Enqueue(simulation.Command{Kind: simulation.CmdSetSignal, SignalID: dep.ID, State: &aspect})
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

// GET /api/systems/signals
func serveSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	signals := []map[string]interface{}{}
	state := sim.World.GetState()
	for _, n := range state.Nodes {
		if !n.IsSignal() {
			continue
		}
		signals = append(signals, map[string]interface{}{
			"id":     n.ID,
			"aspect": string(n.Aspect),
			"locked": sim.World.Locked.Locked(n.ID),
		})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"signals": signals})
}

// PUT /api/systems/signals/{signalId}/status
func serveSignalOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	sid := strings.TrimPrefix(r.URL.Path, "/api/systems/signals/")
	sid = strings.TrimSuffix(sid, "/status")
	node, ok := sim.World.Layout.Nodes[sid]
	if !ok || !node.IsSignal() {
		http.Error(w, "SIGNAL_NOT_FOUND", http.StatusNotFound)
		return
	}
	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	aspect := simulation.AspectRed
	if strings.ToUpper(body.NewStatus) == "GREEN" {
		aspect = simulation.AspectGreen
	}
	sim.Enqueue(simulation.Command{Kind: simulation.CmdSetSignal, SignalID: sid, State: &aspect})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

// GET /api/systems/overview
func serveSystemOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}

	state := sim.World.GetState()

	signals := []map[string]interface{}{}
	segments := []map[string]interface{}{}
	segmentsOccupied := 0
	for _, n := range state.Nodes {
		if n.IsSignal() {
			signals = append(signals, map[string]interface{}{
				"id": n.ID, "aspect": string(n.Aspect), "locked": sim.World.Locked.Locked(n.ID),
			})
		}
	}
	for _, s := range state.Segments {
		if s.IsOccupied {
			segmentsOccupied++
		}
		segments = append(segments, map[string]interface{}{
			"id": s.ID, "status": string(s.Status), "weather": string(s.Weather), "occupied": s.IsOccupied,
		})
	}

	trains := []map[string]interface{}{}
	for _, t := range state.Trains {
		trains = append(trains, map[string]interface{}{
			"id": t.ID, "class": string(t.Class), "state": string(t.State),
			"speedKph": t.SpeedKPH, "currentNode": t.CurrentNodeID, "endNode": t.EndNodeID,
		})
	}

	util := 0.0
	if len(state.Segments) > 0 {
		util = float64(segmentsOccupied) * 100.0 / float64(len(state.Segments))
	}

	resp := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"system": map[string]interface{}{
			"title":       sim.Options.Title,
			"description": sim.Options.Description,
			"version":     sim.Options.Version,
			"clock":       int(state.Clock),
			"simSpeed":    sim.Options.SimSpeed,
			"aiControl":   sim.Options.AIControl,
			"running":     sim.IsStarted(),
		},
		"totals": map[string]interface{}{
			"nodes":    len(state.Nodes),
			"segments": len(state.Segments),
			"signals":  len(signals),
			"trains":   map[string]int{"active": len(state.Trains)},
		},
		"occupancy": map[string]interface{}{
			"segmentsTotal":    len(state.Segments),
			"segmentsOccupied": segmentsOccupied,
			"utilization":      util,
		},
		"signals":  signals,
		"segments": segments,
		"trains":   trains,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(resp)
}

func installHTTPAPI() {
	http.HandleFunc("/api/trains/section/", serveTrainsBySection)
	http.HandleFunc("/api/trains/", serveTrainRouteCommand)
	http.HandleFunc("/api/systems/signals", serveSignals)
	http.HandleFunc("/api/systems/signals/", serveSignalOverride)
	http.HandleFunc("/api/systems/overview", serveSystemOverview)
	http.HandleFunc("/api/analytics/kpis", serveKPI)
	http.HandleFunc("/api/analytics/historical", serveKPIHistorical)
	http.HandleFunc("/api/simulation/whatif", serveWhatIf)
	http.HandleFunc("/api/simulation/restart", serveSimulationRestart)
	http.HandleFunc("/api/ai/hints", serveAIHints)
	http.HandleFunc("/api/ai/hints/", serveAIHintRespond)
	http.HandleFunc("/api/audit/logs", serveAuditLogs)
	http.HandleFunc("/api/audit/stream", serveAuditStream)
}
