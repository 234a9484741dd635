package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPossibleRoutesAndViability(t *testing.T) {
	Convey("Given a triangle layout and a train from A to C", t, func() {
		l := triangleLayout()
		w := NewWorldState(l)
		train := &Train{ID: "T1", StartNodeID: "A", EndNodeID: "C"}

		Convey("possibleRoutes returns both candidate routes sorted by score", func() {
			routes := w.possibleRoutes(train, RoutingOptions{})
			So(len(routes), ShouldEqual, 2)
			So(routes[0].Score, ShouldBeLessThanOrEqualTo, routes[1].Score)
		})

		Convey("isViable rejects a route through a locked segment", func() {
			routes := w.possibleRoutes(train, RoutingOptions{})
			direct := routes[0]
			w.Locked.Lock(direct.Segments[0])
			So(w.isViable(direct.Segments, direct.Nodes, 0), ShouldBeFalse)
		})

		Convey("isViable rejects a route through a FAULTY segment", func() {
			for _, r := range w.possibleRoutes(train, RoutingOptions{}) {
				if len(r.Segments) == 2 {
					l.Segments[r.Segments[0]].Status = StatusFaulty
					So(w.isViable(r.Segments, r.Nodes, 0), ShouldBeFalse)
				}
			}
		})

		Convey("scoreRoute adds 5 for an occupied segment", func() {
			direct := w.possibleRoutesBetween("A", "C", RoutingOptions{})[0]
			base := w.scoreRoute(direct.Segments, RoutingOptions{})
			l.Segments[direct.Segments[0]].IsOccupied = true
			withOccupancy := w.scoreRoute(direct.Segments, RoutingOptions{})
			So(withOccupancy, ShouldEqual, base+5)
		})

		Convey("firstViableRoute skips a blocked candidate and falls through to the next", func() {
			routes := w.possibleRoutes(train, RoutingOptions{})
			w.Locked.Lock(routes[0].Segments[0])
			chosen, ok := w.firstViableRoute(routes, 0)
			So(ok, ShouldBeTrue)
			So(chosen.Segments[0], ShouldNotEqual, routes[0].Segments[0])
		})
	})
}
