package probability_test

import (
	"testing"

	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/internal/domain/probability"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func prior(overs float64, wickets int) model.MatchState {
	return model.MatchState{TotalRuns: 27, WicketsLost: wickets, OversPlayed: overs, Target: 549}
}

func TestUpdateDraw(t *testing.T) {
	Convey("Given the default model at 27/2 after 6 overs", t, func() {
		before := prior(6.0, 2)

		Convey("When a boundary is scored", func() {
			ev := model.Event{Type: model.EventRuns, RunsScored: 4}
			p := probability.UpdateDraw(0.35, ev, before)

			Convey("Then the draw probability rises by five percent", func() {
				So(p, ShouldAlmostEqual, 0.3675, tolerance)
			})
		})

		Convey("When fewer than four runs are scored", func() {
			ev := model.Event{Type: model.EventRuns, RunsScored: 3}
			So(probability.UpdateDraw(0.35, ev, before), ShouldAlmostEqual, 0.35, tolerance)
		})

		Convey("When a boundary event type arrives without the runs tag", func() {
			ev := model.Event{Type: model.EventBoundary, RunsScored: 4}
			So(probability.UpdateDraw(0.35, ev, before), ShouldAlmostEqual, 0.35, tolerance)
		})

		Convey("When a wicket falls with fewer than five down", func() {
			ev := model.Event{Type: model.EventWicket}
			So(probability.UpdateDraw(0.35, ev, before), ShouldAlmostEqual, 0.2975, tolerance)
		})

		Convey("When a wicket falls with five already down", func() {
			ev := model.Event{Type: model.EventWicket}
			So(probability.UpdateDraw(0.35, ev, prior(40, 5)), ShouldAlmostEqual, 0.245, tolerance)
		})

		Convey("When an unknown event type arrives", func() {
			ev := model.Event{Type: model.EventType("drinks")}
			So(probability.UpdateDraw(0.35, ev, before), ShouldAlmostEqual, 0.35, tolerance)
		})
	})

	Convey("Given play beyond the nominal day length", t, func() {
		ev := model.Event{Type: model.EventDot}
		p := probability.UpdateDraw(0.5, ev, prior(100, 3))

		Convey("Then the time factor pulls the probability down", func() {
			So(p, ShouldAlmostEqual, 0.5*(1-10.0/90*0.2), tolerance)
		})
	})

	Convey("Given probabilities near the bounds", t, func() {
		Convey("Then the ceiling holds", func() {
			ev := model.Event{Type: model.EventRuns, RunsScored: 6}
			So(probability.UpdateDraw(0.94, ev, prior(6, 2)), ShouldEqual, 0.95)
		})

		Convey("Then the floor holds", func() {
			ev := model.Event{Type: model.EventWicket}
			So(probability.UpdateDraw(0.06, ev, prior(60, 8)), ShouldEqual, 0.05)
		})

		Convey("Then any input lands inside the range", func() {
			events := []model.Event{
				{Type: model.EventWicket},
				{Type: model.EventRuns, RunsScored: 6},
				{Type: model.EventDot},
			}
			for _, start := range []float64{-1, 0, 0.2, 0.5, 0.9, 1, 3} {
				for _, ev := range events {
					p := probability.UpdateDraw(start, ev, prior(30, 4))
					So(p, ShouldBeBetweenOrEqual, 0.05, 0.95)
				}
			}
		})
	})
}

func TestModelOptions(t *testing.T) {
	Convey("Given a model with a shorter day and custom factors", t, func() {
		m := probability.New(
			probability.WithTotalOvers(80),
			probability.WithWicketFactors(0.9, 0.5, 3),
			probability.WithBounds(0.1, 0.9),
		)

		Convey("Then the options are applied", func() {
			So(m.TotalOvers(), ShouldEqual, 80.0)
			ev := model.Event{Type: model.EventWicket}
			So(m.UpdateDraw(0.4, ev, prior(10, 2)), ShouldAlmostEqual, 0.36, tolerance)
			So(m.UpdateDraw(0.4, ev, prior(10, 3)), ShouldAlmostEqual, 0.2, tolerance)
			So(m.UpdateDraw(0.12, ev, prior(10, 6)), ShouldEqual, 0.1)
		})

		Convey("Then invalid options are ignored", func() {
			d := probability.New(probability.WithTotalOvers(-1), probability.WithBounds(0.9, 0.1))
			So(d.TotalOvers(), ShouldEqual, 90.0)
			So(d.UpdateDraw(0.99, model.Event{Type: model.EventDot}, prior(6, 2)), ShouldEqual, 0.95)
		})
	})
}
