package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/innings/internal/adapters/http/ws"
	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func store() *repository.SnapshotStore {
	s, _ := model.NewMatchState(model.Seed{
		MatchID: "117380", TeamBatting: "India", TeamFielding: "South Africa",
		TotalRuns: 27, WicketsLost: 2, OversPlayed: 6.0, Target: 549,
		Batter: model.Batter{Name: "Sai Sudharsan", Runs: 2, BallsFaced: 4},
		PDraw:  0.35,
	})
	return repository.NewSnapshotStore(s)
}

func read(conn *websocket.Conn) (ws.Message, error) {
	var msg ws.Message
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	err = json.Unmarshal(raw, &msg)
	return msg, err
}

func TestHub(t *testing.T) {
	Convey("Given a running hub behind a test server", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		st := store()
		hub := ws.NewHub(st)
		go func() { _ = hub.Run(ctx) }()

		srv := httptest.NewServer(hub)
		defer srv.Close()
		url := "ws" + strings.TrimPrefix(srv.URL, "http")

		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("Then the current snapshot arrives on connect", func() {
			msg, err := read(conn)
			So(err, ShouldBeNil)
			So(msg.Type, ShouldEqual, ws.MessageSnapshot)
			So(msg.Version, ShouldEqual, 1)
			So(msg.State.TotalRuns, ShouldEqual, 27)
		})

		Convey("When a new snapshot is published", func() {
			_, err := read(conn)
			So(err, ShouldBeNil)

			next := st.Current(ctx).State.Clone()
			next.TotalRuns = 31
			version, _ := st.Publish(ctx, next)
			hub.Publish(ctx, repository.Versioned{Version: version, State: next})

			Convey("Then the client receives it", func() {
				msg, err := read(conn)
				So(err, ShouldBeNil)
				So(msg.Version, ShouldEqual, 2)
				So(msg.State.TotalRuns, ShouldEqual, 31)
			})
		})

		Convey("When the hub stops", func() {
			_, _ = read(conn)
			cancel()

			Convey("Then the connection is closed", func() {
				_, err := read(conn)
				So(err, ShouldNotBeNil)
			})
		})
	})
}
