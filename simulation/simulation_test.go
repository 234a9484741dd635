package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// greenSignalLayout builds A-s1-B-s2-C with B a GREEN signal, matching
// §8 scenario 1's literal layout.
func greenSignalLayout() *Layout {
	nodes := []*Node{
		{ID: "A", Type: NodeTerminal},
		{ID: "B", Type: NodeSignal, Aspect: AspectGreen},
		{ID: "C", Type: NodeTerminal},
	}
	segs := []*Segment{
		{ID: "s1", StartNodeID: "A", EndNodeID: "B", Status: StatusOperational},
		{ID: "s2", StartNodeID: "B", EndNodeID: "C", Status: StatusOperational},
	}
	l, err := NewLayout(nodes, segs)
	if err != nil {
		panic(err)
	}
	return l
}

// runTicks drives a simulation's tick phases directly (bypassing the
// goroutine/wall-clock loop) so scenario tests are deterministic and fast.
func runTicks(sim *Simulation, n int) {
	for i := 0; i < n; i++ {
		sim.tick()
	}
}

func TestScenarioSingleTrainStraightRun(t *testing.T) {
	Convey("Given layout A-s1-B-s2-C, all OPERATIONAL, signals GREEN, and one Express A to C at t=0", t, func() {
		l := greenSignalLayout()
		l.Nodes["A"].Type = NodeSignal
		l.Nodes["A"].Aspect = AspectGreen

		sched := &StaticSchedule{entries: []ScheduleEntry{
			{TrainNo: "EXP1", StartNodeID: "A", EndNodeID: "C", Class: ClassExpress, ArrivalTime: 0},
		}}
		sim := NewSimulation(l, sched, DefaultOptions())

		Convey("after 60-ish ticks the train has EXITED and released every resource", func() {
			runTicks(sim, 70)
			So(len(sim.World.ActiveTrains()), ShouldEqual, 0)
			So(sim.World.Locked.Locked("s1"), ShouldBeFalse)
			So(sim.World.Locked.Locked("s2"), ShouldBeFalse)
			So(sim.World.Locked.Locked("B"), ShouldBeFalse)
			So(sim.World.Locked.Locked("C"), ShouldBeFalse)
		})
	})
}

func TestScenarioPriorityPreemption(t *testing.T) {
	Convey("Given two trains sharing s1 from A to C, Express at t=0 and Shatabdi at t=1", t, func() {
		l := greenSignalLayout()
		l.Nodes["A"].Type = NodeSignal
		l.Nodes["A"].Aspect = AspectGreen

		sched := &StaticSchedule{entries: []ScheduleEntry{
			{TrainNo: "EXP", StartNodeID: "A", EndNodeID: "C", Class: ClassExpress, ArrivalTime: 0},
			{TrainNo: "SHT", StartNodeID: "A", EndNodeID: "C", Class: ClassShatabdi, ArrivalTime: 1},
		}}
		opts := DefaultOptions()
		opts.Priorities.TrainType = true
		sim := NewSimulation(l, sched, opts)

		Convey("Shatabdi and Express are never both RUNNING on the shared route", func() {
			runTicks(sim, 5)
			sht := sim.World.Trains["SHT"]
			exp := sim.World.Trains["EXP"]
			So(sht, ShouldNotBeNil)
			if sht.State == StateRunning {
				So(exp.State, ShouldNotEqual, StateRunning)
			}
		})
	})
}

func TestScenarioManualOverrideBeatsAI(t *testing.T) {
	Convey("Given AI control on and an operator RED override on the departure signal", t, func() {
		l := greenSignalLayout()
		l.Nodes["A"].Type = NodeSignal
		l.Nodes["A"].Aspect = AspectGreen

		sched := &StaticSchedule{entries: []ScheduleEntry{
			{TrainNo: "T1", StartNodeID: "A", EndNodeID: "C", ArrivalTime: 0},
		}}
		opts := DefaultOptions()
		opts.AIControl = true
		sim := NewSimulation(l, sched, opts)

		runTicks(sim, 1) // spawn + initial plan pass
		sim.World.SetManualOverride("A", AspectRed)

		Convey("the train does not dispatch while within the grace window", func() {
			for i := 0; i < ManualOverrideGraceTicks-1; i++ {
				sim.tick()
				t1 := sim.World.Trains["T1"]
				if t1 != nil {
					So(t1.State, ShouldNotEqual, StateRunning)
				}
				So(l.Nodes["A"].Aspect, ShouldEqual, AspectRed)
			}
		})
	})
}
