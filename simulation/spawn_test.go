package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSpawnerRespectsArrivalAndCap(t *testing.T) {
	Convey("Given a schedule with more due entries than MaxSpawnPerTick", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		sched := &StaticSchedule{entries: []ScheduleEntry{
			{TrainNo: "1", StartNodeID: "A", EndNodeID: "C", ArrivalTime: 0},
			{TrainNo: "2", StartNodeID: "A", EndNodeID: "C", ArrivalTime: 0},
			{TrainNo: "3", StartNodeID: "A", EndNodeID: "C", ArrivalTime: 0},
			{TrainNo: "4", StartNodeID: "A", EndNodeID: "C", ArrivalTime: 0},
		}}
		s := NewSpawner(w, sched)

		Convey("only MaxSpawnPerTick trains spawn in a single call", func() {
			spawned := s.Spawn()
			So(len(spawned), ShouldEqual, MaxSpawnPerTick)
			So(s.Pending(), ShouldEqual, 1)
		})
	})

	Convey("Given a schedule entry not yet due", t, func() {
		l := straightLayout()
		w := NewWorldState(l)
		sched := &StaticSchedule{entries: []ScheduleEntry{
			{TrainNo: "1", StartNodeID: "A", EndNodeID: "C", ArrivalTime: 100},
		}}
		s := NewSpawner(w, sched)

		Convey("Spawn yields nothing until the clock reaches arrival", func() {
			So(s.Spawn(), ShouldBeEmpty)
			w.Clock = 100
			So(len(s.Spawn()), ShouldEqual, 1)
		})
	})
}
