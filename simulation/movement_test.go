package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMovementAdvancesAndReleases(t *testing.T) {
	Convey("Given a RUNNING train crossing s1 from A to B", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		tr := &Train{
			ID: "T1", StartNodeID: "A", EndNodeID: "C",
			State: StateRunning, SpeedKPH: 60,
			Route: []string{"s1", "s2"}, NodePath: []string{"A", "B", "C"},
			CurrentSegmentID: "s1", CurrentNodeID: "A",
		}
		w.AddTrain(tr)
		w.Locked.Lock("s1")
		w.Locked.Lock("B")

		Convey("positionOnSegment is nondecreasing and stays within [0,1] each tick (P6, I4)", func() {
			prev := -1.0
			// The last of TravelTimeTicks moves is the arrival, which takes
			// the train off s1; the per-segment property covers the ones before.
			for i := 0; i < TravelTimeTicks-1; i++ {
				w.Move()
				So(tr.PositionOnSegment, ShouldBeGreaterThanOrEqualTo, prev)
				So(tr.PositionOnSegment, ShouldBeBetweenOrEqual, 0.0, 1.0)
				prev = tr.PositionOnSegment
			}
		})

		Convey("after TravelTimeTicks ticks, s1 and A... the cleared segment and node are released atomically (I3)", func() {
			for i := 0; i < TravelTimeTicks; i++ {
				w.Move()
			}
			So(w.Locked.Locked("s1"), ShouldBeFalse)
			So(w.Locked.Locked("A"), ShouldBeFalse)
			So(tr.CurrentNodeID, ShouldEqual, "B")
			So(tr.State, ShouldEqual, StateAwaitingClearance)
		})

		Convey("a non-RUNNING train always has zero speed (I5)", func() {
			for i := 0; i < TravelTimeTicks; i++ {
				w.Move()
			}
			So(tr.SpeedKPH, ShouldEqual, 0)
		})
	})

	Convey("Given a train arriving at a platform node", t, func() {
		nodes := []*Node{
			{ID: "A", Type: NodeTerminal},
			{ID: "S-PF-1", Type: NodeSignal, Aspect: AspectGreen},
			{ID: "C", Type: NodeTerminal},
		}
		segs := []*Segment{
			{ID: "s1", StartNodeID: "A", EndNodeID: "S-PF-1", Status: StatusOperational},
			{ID: "s2", StartNodeID: "S-PF-1", EndNodeID: "C", Status: StatusOperational},
		}
		l, _ := NewLayout(nodes, segs)
		w := NewWorldState(l)
		tr := &Train{
			ID: "T1", StartNodeID: "A", EndNodeID: "C",
			State: StateRunning, SpeedKPH: 60,
			Route: []string{"s1", "s2"}, NodePath: []string{"A", "S-PF-1", "C"},
			CurrentSegmentID: "s1", CurrentNodeID: "A",
		}
		w.AddTrain(tr)

		Convey("it dwells at least BoardingDwellTicks in BOARDING_PASSENGERS (P7)", func() {
			for i := 0; i < TravelTimeTicks; i++ {
				w.Move()
			}
			So(tr.State, ShouldEqual, StateBoarding)

			for i := 0; i < BoardingDwellTicks-1; i++ {
				w.Clock++
				w.Move()
				So(tr.State, ShouldEqual, StateBoarding)
			}
			w.Clock++
			w.Move()
			So(tr.State, ShouldEqual, StateAwaitingClearance)
		})
	})

	Convey("Given a train on its final segment reaching its end node", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		tr := &Train{
			ID: "T1", StartNodeID: "B", EndNodeID: "C",
			State: StateRunning, SpeedKPH: 60,
			Route: []string{"s2"}, NodePath: []string{"B", "C"},
			CurrentSegmentID: "s2", CurrentNodeID: "B", RouteIndex: 0,
		}
		w.AddTrain(tr)

		Convey("it transitions to EXITED and is removed from the active set", func() {
			for i := 0; i < TravelTimeTicks; i++ {
				w.Move()
			}
			So(tr.State, ShouldEqual, StateExited)
			_, stillActive := w.Trains["T1"]
			So(stillActive, ShouldBeFalse)
		})
	})
}
