package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func straightLayout() *Layout {
	nodes := []*Node{
		{ID: "A", Type: NodeTerminal},
		{ID: "B", Type: NodeSignal, Aspect: AspectGreen},
		{ID: "C", Type: NodeTerminal},
	}
	segs := []*Segment{
		{ID: "s1", StartNodeID: "A", EndNodeID: "B", Length: 10, Status: StatusOperational},
		{ID: "s2", StartNodeID: "B", EndNodeID: "C", Length: 10, Status: StatusOperational},
	}
	l, err := NewLayout(nodes, segs)
	if err != nil {
		panic(err)
	}
	return l
}

func triangleLayout() *Layout {
	nodes := []*Node{
		{ID: "A", Type: NodeTerminal},
		{ID: "B", Type: NodeSignal, Aspect: AspectGreen},
		{ID: "C", Type: NodeTerminal},
	}
	segs := []*Segment{
		{ID: "s1", StartNodeID: "A", EndNodeID: "B", Length: 10, Status: StatusOperational},
		{ID: "s2", StartNodeID: "B", EndNodeID: "C", Length: 10, Status: StatusOperational},
		{ID: "s3", StartNodeID: "C", EndNodeID: "A", Length: 10, Status: StatusOperational},
	}
	l, err := NewLayout(nodes, segs)
	if err != nil {
		panic(err)
	}
	return l
}

func TestNewLayoutValidation(t *testing.T) {
	Convey("Given segments referencing an unknown node", t, func() {
		nodes := []*Node{{ID: "A", Type: NodeTerminal}}
		segs := []*Segment{{ID: "s1", StartNodeID: "A", EndNodeID: "ghost"}}

		Convey("NewLayout fails rather than building a dangling adjacency entry", func() {
			_, err := NewLayout(nodes, segs)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFindAllPaths(t *testing.T) {
	Convey("Given a triangle layout", t, func() {
		l := triangleLayout()

		Convey("it finds both simple paths from A to C", func() {
			paths := l.FindAllPaths("A", "C", 6, 30, false)
			So(len(paths), ShouldEqual, 2)
		})

		Convey("marking s2 FAULTY removes the A-B-C path, leaving only the direct A-C edge", func() {
			l.Segments["s2"].Status = StatusFaulty
			paths := l.FindAllPaths("A", "C", 6, 30, false)
			So(len(paths), ShouldEqual, 1)
			So(paths[0], ShouldResemble, []string{"A", "C"})
		})

		Convey("weather-aware search also skips BAD segments", func() {
			l.Segments["s1"].Weather = WeatherBad
			paths := l.FindAllPaths("A", "C", 6, 30, true)
			for _, p := range paths {
				So(p[0], ShouldNotEqual, "")
			}
			So(len(paths), ShouldEqual, 1)
		})
	})
}

func TestPathConversionRoundTrip(t *testing.T) {
	Convey("Given a straight layout", t, func() {
		l := straightLayout()

		Convey("segmentPathToNodePath(nodePathToSegmentPath(p)) = p for a simple path (R1)", func() {
			nodePath := []string{"A", "B", "C"}
			segs, err := l.NodePathToSegmentPath(nodePath)
			So(err, ShouldBeNil)
			So(segs, ShouldResemble, []string{"s1", "s2"})

			roundTripped, err := l.SegmentPathToNodePath(segs)
			So(err, ShouldBeNil)
			So(roundTripped, ShouldResemble, nodePath)
		})

		Convey("NodePathToSegmentPath fails for disconnected nodes", func() {
			_, err := l.NodePathToSegmentPath([]string{"A", "C"})
			So(err, ShouldNotBeNil)
		})
	})
}
