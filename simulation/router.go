package simulation

// Route is a candidate path for a train: parallel segment and node
// sequences, plus a cached score so the Dispatcher and Planner don't
// recompute it on every comparison.
type Route struct {
	Segments []string
	Nodes    []string
	Score    float64
}

// RoutingOptions configures feasibility and scoring rules that depend on
// which priority flags are currently active (§4.4).
type RoutingOptions struct {
	WeatherAware bool
}

// possibleRoutes enumerates up to six candidate segment paths from the
// train's start node to its end node (§4.4), scored and sorted ascending
// (lowest score first).
func (w *WorldState) possibleRoutes(train *Train, opts RoutingOptions) []Route {
	return w.possibleRoutesBetween(train.StartNodeID, train.EndNodeID, opts)
}

// possibleRoutesBetween is the node-agnostic form used both for initial
// planning and local reroute (which starts from a train's current node).
func (w *WorldState) possibleRoutesBetween(fromNode, toNode string, opts RoutingOptions) []Route {
	nodePaths := w.Layout.FindAllPaths(fromNode, toNode, 6, 30, opts.WeatherAware)
	routes := make([]Route, 0, len(nodePaths))
	for _, np := range nodePaths {
		segs, err := w.Layout.NodePathToSegmentPath(np)
		if err != nil {
			continue
		}
		routes = append(routes, Route{
			Segments: segs,
			Nodes:    np,
			Score:    w.scoreRoute(segs, opts),
		})
	}
	// Stable sort so insertion order (BFS discovery order, shorter first)
	// breaks ties (§4.4: "Ties: arbitrary but stable").
	for i := 1; i < len(routes); i++ {
		for j := i; j > 0 && routes[j].Score < routes[j-1].Score; j-- {
			routes[j], routes[j-1] = routes[j-1], routes[j]
		}
	}
	return routes
}

// isViable reports whether a candidate route is presently clear: no
// segment in the path is locked, FAULTY, or BAD-weather-blocked, and no
// intermediate node (excluding the node at fromIndex, the train's current
// position) is locked (§4.4).
func (w *WorldState) isViable(segPath, nodePath []string, fromIndex int) bool {
	for _, segID := range segPath {
		seg := w.Layout.Segments[segID]
		if seg == nil {
			return false
		}
		if seg.Status == StatusFaulty {
			return false
		}
		if w.WeatherAware && seg.Weather == WeatherBad {
			return false
		}
		if w.Locked.Locked(segID) {
			return false
		}
	}
	for i, nodeID := range nodePath {
		if i == fromIndex {
			continue
		}
		if w.Locked.Locked(nodeID) {
			return false
		}
	}
	return true
}

// scoreRoute = length + 5*occupiedCount + 3*nonOperationalCount, counting
// only segments whose corresponding condition is currently active (§4.4).
// Lower is better.
func (w *WorldState) scoreRoute(segPath []string, opts RoutingOptions) float64 {
	var score float64
	for _, segID := range segPath {
		seg := w.Layout.Segments[segID]
		if seg == nil {
			continue
		}
		score += seg.Length
		if seg.IsOccupied {
			score += 5
		}
		if seg.Status != StatusOperational {
			score += 3
		}
	}
	return score
}

// firstViableRoute returns the lowest-scoring viable route among
// candidates, or (Route{}, false) if none is viable. Candidates must
// already be sorted by score ascending.
func (w *WorldState) firstViableRoute(candidates []Route, fromIndex int) (Route, bool) {
	for _, r := range candidates {
		if w.isViable(r.Segments, r.Nodes, fromIndex) {
			return r, true
		}
	}
	return Route{}, false
}
