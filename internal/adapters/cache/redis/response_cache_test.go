package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/innings/internal/adapters/cache/redis"
	"github.com/okian/innings/internal/domain/answer"
	. "github.com/smartystreets/goconvey/convey"
)

var _ answer.Cache = (*redis.ResponseCache)(nil)

// Runs against a real server when CRICKET_TEST_REDIS_ADDR is set.
func TestResponseCache(t *testing.T) {
	addr := os.Getenv("CRICKET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CRICKET_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	Convey("Given a response cache on a live server", t, func() {
		client, err := redis.New(ctx, redis.ClientConfig{Addr: addr})
		So(err, ShouldBeNil)
		defer client.Close()

		rc := redis.NewResponseCache(client, "test:"+uuid.NewString()+":", time.Minute)

		Convey("Then a missing key is a miss, not an error", func() {
			_, ok, err := rc.Get(ctx, "absent")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Then a stored answer is read back", func() {
			So(rc.Set(ctx, "k", "India 27/2"), ShouldBeNil)
			v, ok, err := rc.Get(ctx, "k")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "India 27/2")
		})
	})
}

func TestNewUnreachable(t *testing.T) {
	Convey("Given an address nothing listens on", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := redis.New(ctx, redis.ClientConfig{Addr: "127.0.0.1:1"})
		So(err, ShouldNotBeNil)
	})
}
