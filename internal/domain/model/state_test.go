package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/innings/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func seed() model.Seed {
	return model.Seed{
		MatchID:      "117380",
		TeamBatting:  "India",
		TeamFielding: "South Africa",
		TotalRuns:    27,
		WicketsLost:  2,
		OversPlayed:  6.0,
		Target:       549,
		Batter:       model.Batter{Name: "Sai Sudharsan", Runs: 2, BallsFaced: 4, OnStrike: true},
		PDraw:        0.35,
		Now:          time.Date(2025, 11, 26, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewMatchState(t *testing.T) {
	Convey("Given a seed for the day-five position", t, func() {
		s, err := model.NewMatchState(seed())
		So(err, ShouldBeNil)

		Convey("Then totals and probabilities come from the seed", func() {
			So(s.TotalRuns, ShouldEqual, 27)
			So(s.WicketsLost, ShouldEqual, 2)
			So(s.PDraw, ShouldEqual, 0.35)
			So(s.PFieldingWin, ShouldEqual, 1-0.35)
			So(s.CurrentBatter.Name, ShouldEqual, "Sai Sudharsan")
			So(s.RecentEvents, ShouldBeEmpty)
			So(s.DismissedPlayers, ShouldNotBeNil)
		})

		Convey("Then derived reads are consistent", func() {
			So(s.WicketsRemaining(), ShouldEqual, 8)
			So(s.RunsNeeded(), ShouldEqual, 522)
			So(s.OversRemaining(90), ShouldEqual, 84.0)
			So(s.OversRemaining(5), ShouldEqual, 0.0)
		})
	})

	Convey("Given invalid seeds", t, func() {
		cases := []struct {
			name   string
			mutate func(*model.Seed)
		}{
			{"wickets above ten", func(s *model.Seed) { s.WicketsLost = 11 }},
			{"negative wickets", func(s *model.Seed) { s.WicketsLost = -1 }},
			{"negative overs", func(s *model.Seed) { s.OversPlayed = -0.1 }},
			{"p_draw above one", func(s *model.Seed) { s.PDraw = 1.2 }},
			{"negative runs", func(s *model.Seed) { s.TotalRuns = -3 }},
		}
		for _, tc := range cases {
			Convey("Then "+tc.name+" is rejected", func() {
				sd := seed()
				tc.mutate(&sd)
				_, err := model.NewMatchState(sd)
				So(errors.Is(err, model.ErrInvalidSeed), ShouldBeTrue)
			})
		}
	})
}

func TestMatchStateCopies(t *testing.T) {
	Convey("Given a state with recent events and dismissals", t, func() {
		s, _ := model.NewMatchState(seed())
		s.RecentEvents = []model.Event{
			{Type: model.EventRuns, RunsScored: 1},
			{Type: model.EventDot},
			{Type: model.EventRuns, RunsScored: 4},
		}
		s.DismissedPlayers = []model.DismissedPlayer{{Name: "Yashasvi Jaiswal", Runs: 13}}

		Convey("When cloning", func() {
			c := s.Clone()
			c.RecentEvents[0].RunsScored = 6
			c.DismissedPlayers[0].Runs = 99

			Convey("Then the original is untouched", func() {
				So(s.RecentEvents[0].RunsScored, ShouldEqual, 1)
				So(s.DismissedPlayers[0].Runs, ShouldEqual, 13)
			})
		})

		Convey("When taking the last two events", func() {
			last := s.LastEvents(2)
			So(last, ShouldHaveLength, 2)
			So(last[1].RunsScored, ShouldEqual, 4)
			last[1].RunsScored = 0
			So(s.RecentEvents[2].RunsScored, ShouldEqual, 4)
			So(s.LastEvents(10), ShouldHaveLength, 3)
			So(s.LastEvents(0), ShouldBeEmpty)
		})

		Convey("When reading the last dismissal", func() {
			d, ok := s.LastDismissal()
			So(ok, ShouldBeTrue)
			So(d.Name, ShouldEqual, "Yashasvi Jaiswal")
		})

		Convey("When replacing dismissals", func() {
			h := s.WithDismissals([]model.DismissedPlayer{{Name: "KL Rahul"}, {Name: "Yashasvi Jaiswal"}})
			So(h.DismissedPlayers, ShouldHaveLength, 2)
			So(s.DismissedPlayers, ShouldHaveLength, 1)
		})
	})
}

func TestTags(t *testing.T) {
	Convey("Event types and dismissal modes keep unknown values", t, func() {
		So(model.EventWicket.Known(), ShouldBeTrue)
		So(model.EventType("review").Known(), ShouldBeFalse)
		So(model.DismissalLBW.Known(), ShouldBeTrue)
		So(model.DismissalUnknown.Known(), ShouldBeFalse)

		ev := model.Event{}
		So(ev.Mode(), ShouldEqual, model.DismissalUnknown)
		ev.DismissalMode = model.Ptr(model.DismissalCaught)
		So(ev.Mode(), ShouldEqual, model.DismissalCaught)
		So(ev.BatterName(), ShouldEqual, "")
	})

	Convey("Ball of over reads the decimal digit", t, func() {
		So(model.BallOfOver(6.0), ShouldEqual, 0)
		So(model.BallOfOver(6.3), ShouldEqual, 3)
		So(model.BallOfOver(12.5), ShouldEqual, 5)
	})
}

func TestMatchStateJSON(t *testing.T) {
	Convey("Given a seeded state", t, func() {
		s, err := model.NewMatchState(seed())
		So(err, ShouldBeNil)

		b, err := json.Marshal(s)
		So(err, ShouldBeNil)
		var m map[string]any
		So(json.Unmarshal(b, &m), ShouldBeNil)

		Convey("Then the fielding win probability is written under both names", func() {
			So(m["p_fielding_win"], ShouldEqual, s.PFieldingWin)
			So(m["p_sa_win"], ShouldEqual, s.PFieldingWin)
			So(m["total_runs"], ShouldEqual, 27.0)
		})

		Convey("Then the output decodes back into the same state", func() {
			var back model.MatchState
			So(json.Unmarshal(b, &back), ShouldBeNil)
			So(back.PFieldingWin, ShouldEqual, s.PFieldingWin)
			So(back.TotalRuns, ShouldEqual, s.TotalRuns)
			So(back.TeamBatting, ShouldEqual, s.TeamBatting)
		})
	})
}
