package simulation

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadScheduleCSV(t *testing.T) {
	Convey("Given a schedule CSV with a header and out-of-order arrivals", t, func() {
		csv := "Train No,Train Name,Start Node,End Node,Arrival time (HH:MM:SS),Type\n" +
			"12952,Rajdhani,A,C,00:02:00,RAJDHANI\n" +
			"12002,Shatabdi,A,C,00:00:30,SHATABDI\n"

		Convey("it parses and sorts entries by arrival time", func() {
			sched, err := LoadScheduleCSV(strings.NewReader(csv))
			So(err, ShouldBeNil)
			entries := sched.Entries()
			So(len(entries), ShouldEqual, 2)
			So(entries[0].TrainNo, ShouldEqual, "12002")
			So(entries[0].ArrivalTime, ShouldEqual, Clock(30))
			So(entries[1].ArrivalTime, ShouldEqual, Clock(120))
			So(entries[0].Class, ShouldEqual, ClassShatabdi)
		})
	})

	Convey("Given a malformed row missing columns", t, func() {
		csv := "Train No,Train Name,Start Node,End Node,Arrival time (HH:MM:SS),Type\n12952,Rajdhani,A,C\n"

		Convey("LoadScheduleCSV fails", func() {
			_, err := LoadScheduleCSV(strings.NewReader(csv))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTrainClassBase(t *testing.T) {
	Convey("Given the trainType priority flag is off", t, func() {
		Convey("every class has the uniform base priority of 1", func() {
			So(ClassShatabdi.Base(false), ShouldEqual, 1)
			So(ClassExpress.Base(false), ShouldEqual, 1)
		})
	})

	Convey("Given the trainType priority flag is on", t, func() {
		Convey("classes rank Shatabdi highest and Express lowest", func() {
			So(ClassShatabdi.Base(true), ShouldEqual, 10)
			So(ClassExpress.Base(true), ShouldEqual, 3)
			So(ClassShatabdi.Base(true), ShouldBeGreaterThan, ClassExpress.Base(true))
		})
	})
}
