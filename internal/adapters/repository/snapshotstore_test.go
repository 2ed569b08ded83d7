package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func seedState() model.MatchState {
	s, _ := model.NewMatchState(model.Seed{
		MatchID: "117380", TeamBatting: "India", TeamFielding: "South Africa",
		TotalRuns: 27, WicketsLost: 2, OversPlayed: 6.0, Target: 549,
		Batter: model.Batter{Name: "Sai Sudharsan", Runs: 2, BallsFaced: 4, OnStrike: true},
		PDraw:  0.35,
	})
	return s
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store seeded with the opening position", t, func() {
		store := repository.NewSnapshotStore(seedState(), repository.WithHistory(3))

		Convey("Then the seed is version 1", func() {
			cur := store.Current(ctx)
			So(cur.Version, ShouldEqual, 1)
			So(cur.State.TotalRuns, ShouldEqual, 27)
		})

		Convey("When states are published", func() {
			held := store.Current(ctx)
			for runs := 31; runs <= 34; runs++ {
				next := store.Current(ctx).State.Clone()
				next.TotalRuns = runs
				_, err := store.Publish(ctx, next)
				So(err, ShouldBeNil)
			}

			Convey("Then versions increase by one", func() {
				cur := store.Current(ctx)
				So(cur.Version, ShouldEqual, 5)
				So(cur.State.TotalRuns, ShouldEqual, 34)
			})

			Convey("Then a held snapshot is unaffected", func() {
				So(held.Version, ShouldEqual, 1)
				So(held.State.TotalRuns, ShouldEqual, 27)
			})

			Convey("Then only the bounded history is addressable", func() {
				v, err := store.At(ctx, 4)
				So(err, ShouldBeNil)
				So(v.State.TotalRuns, ShouldEqual, 33)

				_, err = store.At(ctx, 2)
				So(err, ShouldEqual, repository.ErrNotFound)
				_, err = store.At(ctx, 6)
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When the store is closed", func() {
			So(store.Close(), ShouldBeNil)
			_, err := store.Publish(ctx, seedState())
			So(err, ShouldEqual, repository.ErrClosed)
			So(store.Current(ctx).Version, ShouldEqual, 1)
		})
	})

	Convey("Given concurrent readers during publishes", t, func() {
		store := repository.NewSnapshotStore(seedState())
		var wg sync.WaitGroup
		stop := make(chan struct{})
		regressions := 0
		var mu sync.Mutex

		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var last uint64
				for {
					select {
					case <-stop:
						return
					default:
					}
					v := store.Current(ctx).Version
					if v < last {
						mu.Lock()
						regressions++
						mu.Unlock()
					}
					last = v
				}
			}()
		}

		for i := 0; i < 200; i++ {
			next := store.Current(ctx).State.Clone()
			next.TotalRuns++
			_, _ = store.Publish(ctx, next)
		}
		close(stop)
		wg.Wait()

		So(regressions, ShouldEqual, 0)
		So(store.Current(ctx).Version, ShouldEqual, 201)
		So(store.Current(ctx).State.TotalRuns, ShouldEqual, 227)
	})
}
