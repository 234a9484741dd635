package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAIControllerGreenAndRedPasses(t *testing.T) {
	Convey("Given a train ready to depart from a RED signal with a clear next hop", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		ai := NewAIController(w, &Priorities{})

		w.Layout.Nodes["A"].Type = NodeSignal
		w.Layout.Nodes["A"].Aspect = AspectRed

		tr := readyTrain("T1", "A", "C", []string{"s1", "s2"}, []string{"A", "B", "C"})
		w.AddTrain(tr)

		Convey("the GREEN pass sets the departure signal GREEN", func() {
			ai.Run()
			So(w.Layout.Nodes["A"].Aspect, ShouldEqual, AspectGreen)
		})
	})

	Convey("Given a signal manually overridden within the grace window", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		w.Clock = 5
		ai := NewAIController(w, &Priorities{})

		w.Layout.Nodes["A"].Type = NodeSignal
		w.SetManualOverride("A", AspectRed)

		tr := readyTrain("T1", "A", "C", []string{"s1", "s2"}, []string{"A", "B", "C"})
		w.AddTrain(tr)

		Convey("the GREEN pass leaves it alone (P4)", func() {
			ai.Run()
			So(w.Layout.Nodes["A"].Aspect, ShouldEqual, AspectRed)
		})

		Convey("once the grace window elapses, the AI may set it GREEN again", func() {
			w.Clock += ManualOverrideGraceTicks + 1
			ai.Run()
			So(w.Layout.Nodes["A"].Aspect, ShouldEqual, AspectGreen)
		})
	})

	Convey("Given a GREEN signal no train needs anymore and no adjacent lock", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		w.Layout.Nodes["A"].Type = NodeSignal
		w.Layout.Nodes["A"].Aspect = AspectGreen
		ai := NewAIController(w, &Priorities{})

		Convey("the RED pass turns it back RED", func() {
			ai.Run()
			So(w.Layout.Nodes["A"].Aspect, ShouldEqual, AspectRed)
		})
	})

	Convey("Given a GREEN signal with an adjacent locked segment", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		w.Layout.Nodes["A"].Type = NodeSignal
		w.Layout.Nodes["A"].Aspect = AspectGreen
		w.Locked.Lock("s1")
		ai := NewAIController(w, &Priorities{})

		Convey("the RED pass leaves it GREEN (exemption b/c)", func() {
			ai.Run()
			So(w.Layout.Nodes["A"].Aspect, ShouldEqual, AspectGreen)
		})
	})
}
