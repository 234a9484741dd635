package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func readyTrain(id, start, end string, route, nodePath []string) *Train {
	return &Train{
		ID: id, StartNodeID: start, EndNodeID: end,
		State: StateReadyToProceed,
		Route: route, NodePath: nodePath,
		CurrentNodeID: nodePath[0],
	}
}

func TestDispatchAcquiresResourcesAndTransitions(t *testing.T) {
	Convey("Given a ready train at a GREEN departure signal with a clear segment ahead", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		prios := &Priorities{}
		d := NewDispatcher(w, prios)

		tr := readyTrain("T1", "A", "C", []string{"s1", "s2"}, []string{"A", "B", "C"})
		w.AddTrain(tr)
		l.Nodes["A"] = &Node{ID: "A", Type: NodeSignal, Aspect: AspectGreen}
		w.Layout.Nodes["A"] = l.Nodes["A"]

		Convey("it dispatches, locking the next segment and node and going RUNNING", func() {
			d.Dispatch()
			So(tr.State, ShouldEqual, StateRunning)
			So(tr.CurrentSegmentID, ShouldEqual, "s1")
			So(w.Locked.Locked("s1"), ShouldBeTrue)
			So(w.Locked.Locked("B"), ShouldBeTrue)
			So(tr.SpeedKPH, ShouldEqual, 60)
		})
	})

	Convey("Given a ready train whose departure signal is RED", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		d := NewDispatcher(w, &Priorities{})

		tr := readyTrain("T1", "A", "C", []string{"s1", "s2"}, []string{"A", "B", "C"})
		w.AddTrain(tr)
		w.Layout.Nodes["A"] = &Node{ID: "A", Type: NodeSignal, Aspect: AspectRed}

		Convey("it does not dispatch (§4.6 step 3)", func() {
			d.Dispatch()
			So(tr.State, ShouldEqual, StateReadyToProceed)
			So(w.Locked.Locked("s1"), ShouldBeFalse)
		})
	})

	Convey("Given two trains contending for the same segment", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		w.Layout.Nodes["A"] = &Node{ID: "A", Type: NodeSignal, Aspect: AspectGreen}
		d := NewDispatcher(w, &Priorities{TrainType: true})

		high := readyTrain("HIGH", "A", "C", []string{"s1", "s2"}, []string{"A", "B", "C"})
		high.Class = ClassShatabdi
		low := readyTrain("LOW", "A", "C", []string{"s1", "s2"}, []string{"A", "B", "C"})
		low.Class = ClassExpress
		w.AddTrain(low)
		w.AddTrain(high)

		Convey("the higher-priority train dispatches first and the loser is left waiting (P1, P2)", func() {
			d.Dispatch()
			So(high.State, ShouldEqual, StateRunning)
			So(low.State, ShouldEqual, StateReadyToProceed)
		})
	})

	Convey("Given a ready train whose next segment is FAULTY but an alternate route exists", t, func() {
		l := triangleLayout()
		l.Segments["s1"].Status = StatusFaulty
		w := NewWorldState(l)
		w.Layout.Nodes["A"] = &Node{ID: "A", Type: NodeSignal, Aspect: AspectGreen}
		d := NewDispatcher(w, &Priorities{})

		tr := readyTrain("T1", "A", "C", []string{"s1", "s2"}, []string{"A", "B", "C"})
		w.AddTrain(tr)

		Convey("it reroutes onto the direct segment and dispatches (P3: never occupies FAULTY)", func() {
			d.Dispatch()
			So(tr.CurrentSegmentID, ShouldNotEqual, "s1")
			So(w.Locked.Locked("s1"), ShouldBeTrue) // still locked as FAULTY (I6)
		})
	})
}
