package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/innings/internal/adapters/cache"
	"github.com/okian/innings/internal/domain/answer"
	. "github.com/smartystreets/goconvey/convey"
)

var _ answer.Cache = (*cache.Memory)(nil)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory cache with a controllable clock", t, func() {
		now := time.Date(2025, 11, 26, 9, 0, 0, 0, time.UTC)
		c := cache.NewMemory(
			cache.WithTTL(time.Minute),
			cache.WithMaxEntries(2),
			cache.WithClock(func() time.Time { return now }),
		)

		Convey("When a value is stored", func() {
			So(c.Set(ctx, "k1", "India 27/2"), ShouldBeNil)

			Convey("Then it is returned before expiry", func() {
				v, ok, err := c.Get(ctx, "k1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "India 27/2")
			})

			Convey("Then it is gone after the TTL", func() {
				now = now.Add(time.Minute)
				_, ok, _ := c.Get(ctx, "k1")
				So(ok, ShouldBeFalse)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When more entries than the bound are stored", func() {
			_ = c.Set(ctx, "k1", "a")
			_ = c.Set(ctx, "k2", "b")
			_, _, _ = c.Get(ctx, "k1")
			_ = c.Set(ctx, "k3", "c")

			Convey("Then the least recently used entry is evicted", func() {
				So(c.Len(), ShouldEqual, 2)
				_, ok, _ := c.Get(ctx, "k2")
				So(ok, ShouldBeFalse)
				_, ok, _ = c.Get(ctx, "k1")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When a key is overwritten and the cache cleared", func() {
			_ = c.Set(ctx, "k1", "a")
			_ = c.Set(ctx, "k1", "b")
			v, _, _ := c.Get(ctx, "k1")
			So(v, ShouldEqual, "b")
			So(c.Len(), ShouldEqual, 1)

			c.Clear()
			So(c.Len(), ShouldEqual, 0)
		})
	})
}
