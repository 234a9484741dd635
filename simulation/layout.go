package simulation

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
)

// AdjacentNode is one entry of a node's adjacency list: the neighbor node
// reached, and the segment connecting them.
type AdjacentNode struct {
	NodeID    string
	SegmentID string
}

// Layout is the immutable topology of a section: nodes, segments, and the
// adjacency derived from them. Once built it is never mutated; only the
// mutable fields on its Nodes/Segments (aspect, status, weather, lock)
// change during a run, always through WorldState.
type Layout struct {
	Nodes     map[string]*Node
	Segments  map[string]*Segment
	adjacency map[string][]AdjacentNode
}

// layoutDocument mirrors the external JSON shape described in spec.md §6:
// { "network": { "nodes": [...], "trackSegments": [...], "routes": [] } }.
type layoutDocument struct {
	Network struct {
		Nodes         []*Node    `json:"nodes"`
		TrackSegments []*Segment `json:"trackSegments"`
	} `json:"network"`
}

// LoadLayoutFile reads and parses a layout JSON file from disk.
func LoadLayoutFile(path string) (*Layout, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	return LoadLayoutJSON(raw)
}

// LoadLayoutJSON parses a layout document and builds the immutable graph.
func LoadLayoutJSON(raw []byte) (*Layout, error) {
	var doc layoutDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return NewLayout(doc.Network.Nodes, doc.Network.TrackSegments)
}

// NewLayout builds the adjacency list from nodes and segments, validating
// the invariant that every segment's endpoints exist.
func NewLayout(nodes []*Node, segments []*Segment) (*Layout, error) {
	l := &Layout{
		Nodes:     make(map[string]*Node, len(nodes)),
		Segments:  make(map[string]*Segment, len(segments)),
		adjacency: make(map[string][]AdjacentNode, len(nodes)),
	}
	for _, n := range nodes {
		l.Nodes[n.ID] = n
		l.adjacency[n.ID] = nil
	}
	for _, seg := range segments {
		if _, ok := l.Nodes[seg.StartNodeID]; !ok {
			return nil, fmt.Errorf("segment %s references unknown start node %s", seg.ID, seg.StartNodeID)
		}
		if _, ok := l.Nodes[seg.EndNodeID]; !ok {
			return nil, fmt.Errorf("segment %s references unknown end node %s", seg.ID, seg.EndNodeID)
		}
		if seg.Status == "" {
			seg.Status = StatusOperational
		}
		if seg.Weather == "" {
			seg.Weather = WeatherGood
		}
		l.Segments[seg.ID] = seg
		l.adjacency[seg.StartNodeID] = append(l.adjacency[seg.StartNodeID], AdjacentNode{NodeID: seg.EndNodeID, SegmentID: seg.ID})
		l.adjacency[seg.EndNodeID] = append(l.adjacency[seg.EndNodeID], AdjacentNode{NodeID: seg.StartNodeID, SegmentID: seg.ID})
	}
	return l, nil
}

// Neighbors returns the adjacency entries for a node, in insertion order.
func (l *Layout) Neighbors(nodeID string) []AdjacentNode {
	return l.adjacency[nodeID]
}

// FindAllPaths enumerates simple node paths from start to end breadth
// first, capped at maxPaths results and maxDepth hops, skipping any
// neighbor whose connecting segment is FAULTY, or BAD-weather when
// weatherAware is true. Shorter paths are discovered (and thus ordered)
// first because the search is breadth first (§4.1).
func (l *Layout) FindAllPaths(start, end string, maxPaths, maxDepth int, weatherAware bool) [][]string {
	if maxPaths <= 0 {
		maxPaths = 6
	}
	if maxDepth <= 0 {
		maxDepth = 30
	}
	var paths [][]string
	queue := [][]string{{start}}
	for len(queue) > 0 && len(paths) < maxPaths {
		path := queue[0]
		queue = queue[1:]
		last := path[len(path)-1]
		if last == end {
			paths = append(paths, path)
			continue
		}
		if len(path) > maxDepth {
			continue
		}
		for _, nb := range l.adjacency[last] {
			seg := l.Segments[nb.SegmentID]
			if seg == nil {
				continue
			}
			if seg.Status == StatusFaulty {
				continue
			}
			if weatherAware && seg.Weather == WeatherBad {
				continue
			}
			if containsNode(path, nb.NodeID) {
				continue
			}
			next := make([]string, len(path)+1)
			copy(next, path)
			next[len(path)] = nb.NodeID
			queue = append(queue, next)
		}
	}
	return paths
}

func containsNode(path []string, id string) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

// NodePathToSegmentPath converts a sequence of nodes into the unique
// sequence of incident segments connecting each consecutive pair. It fails
// if any consecutive pair has no connecting segment (R1 requires this to
// round-trip with SegmentPathToNodePath for simple paths in the graph).
func (l *Layout) NodePathToSegmentPath(nodePath []string) ([]string, error) {
	if len(nodePath) < 2 {
		return nil, nil
	}
	segs := make([]string, 0, len(nodePath)-1)
	for i := 0; i < len(nodePath)-1; i++ {
		found := ""
		for _, nb := range l.adjacency[nodePath[i]] {
			if nb.NodeID == nodePath[i+1] {
				found = nb.SegmentID
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("no segment connects %s to %s", nodePath[i], nodePath[i+1])
		}
		segs = append(segs, found)
	}
	return segs, nil
}

// SegmentPathToNodePath walks a sequence of segments into the sequence of
// nodes it passes through, starting from the start endpoint of the first
// segment and at each step choosing whichever endpoint of the next segment
// isn't the current node.
func (l *Layout) SegmentPathToNodePath(segPath []string) ([]string, error) {
	if len(segPath) == 0 {
		return nil, nil
	}
	first := l.Segments[segPath[0]]
	if first == nil {
		return nil, fmt.Errorf("unknown segment %s", segPath[0])
	}
	nodePath := []string{first.StartNodeID}
	for _, segID := range segPath {
		seg := l.Segments[segID]
		if seg == nil {
			return nil, fmt.Errorf("unknown segment %s", segID)
		}
		last := nodePath[len(nodePath)-1]
		if seg.StartNodeID == last {
			nodePath = append(nodePath, seg.EndNodeID)
		} else if seg.EndNodeID == last {
			nodePath = append(nodePath, seg.StartNodeID)
		} else {
			return nil, fmt.Errorf("segment %s does not connect to node %s", segID, last)
		}
	}
	return nodePath, nil
}
