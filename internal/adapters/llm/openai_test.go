package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/innings/internal/domain/answer"
	"github.com/okian/innings/internal/domain/classify"
	"github.com/okian/innings/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type recorded struct {
	mu   sync.Mutex
	path string
	auth string
	body map[string]any
}

func completionServer(t *testing.T, status int, content string, rec *recorded) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		_ = json.Unmarshal(raw, &rec.body)
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1733000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func sampleRequest(label classify.Label) answer.Request {
	return answer.Request{
		Query: "Can India save this Test?",
		Label: label,
		Snapshot: answer.Snapshot{
			TeamBatting: "India", TeamFielding: "South Africa",
			TotalRuns: 27, WicketsLost: 2, OversPlayed: 6, Target: 549,
			OversRemaining: 84, WicketsRemaining: 8, RunsNeeded: 522,
			PDraw: 0.35, PFieldingWin: 0.65,
			CurrentBatter: &answer.BatterLine{Name: "Sai Sudharsan", Runs: 2, BallsFaced: 4},
			RecentSummary: []string{"Yashasvi Jaiswal dismissed by Marco Jansen"},
		},
	}
}

func TestNew(t *testing.T) {
	Convey("New requires an api key", t, func() {
		_, err := New(Config{})
		So(err, ShouldEqual, ErrMissingAPIKey)

		g, err := New(Config{APIKey: "sk-test"})
		So(err, ShouldBeNil)
		So(g.cfg.Model, ShouldEqual, DefaultModel)
		So(g.cfg.MaxTokens, ShouldEqual, DefaultMaxTokens)
		So(g.cfg.Timeout, ShouldEqual, DefaultTimeout)
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a chat completions endpoint", t, func() {
		rec := &recorded{}
		srv := completionServer(t, http.StatusOK, "  India need a long rearguard.  ", rec)
		defer srv.Close()

		g, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", MaxTokens: 150, Temperature: 0.3})
		So(err, ShouldBeNil)

		Convey("When a probability question is generated", func() {
			text, err := g.Generate(ctx, sampleRequest(classify.Probability))

			Convey("Then the trimmed completion is returned", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "India need a long rearguard.")
			})

			Convey("Then the request carries the model and prompt", func() {
				rec.mu.Lock()
				defer rec.mu.Unlock()
				So(rec.path, ShouldEndWith, "/chat/completions")
				So(rec.auth, ShouldEqual, "Bearer sk-test")
				So(rec.body["model"], ShouldEqual, "gpt-4o-mini")
				So(rec.body["max_tokens"], ShouldEqual, 150.0)

				msgs, ok := rec.body["messages"].([]any)
				So(ok, ShouldBeTrue)
				So(msgs, ShouldHaveLength, 2)
				user, _ := msgs[1].(map[string]any)
				content, _ := user["content"].(string)
				So(content, ShouldContainSubstring, "P(South Africa Win): 65%")
				So(content, ShouldContainSubstring, "User Question: Can India save this Test?")
			})
		})
	})

	Convey("Given an endpoint returning an empty completion", t, func() {
		rec := &recorded{}
		srv := completionServer(t, http.StatusOK, "   ", rec)
		defer srv.Close()

		g, _ := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
		_, err := g.Generate(ctx, sampleRequest(classify.Stats))
		So(err, ShouldEqual, answer.ErrEmptyResponse)
	})

	Convey("Given an endpoint that fails", t, func() {
		rec := &recorded{}
		srv := completionServer(t, http.StatusInternalServerError, "", rec)
		defer srv.Close()

		g, _ := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
		_, err := g.Generate(ctx, sampleRequest(classify.Momentum))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldStartWith, "chat completion")
	})
}

func TestBuildPrompt(t *testing.T) {
	Convey("Prompts carry the label specific context", t, func() {
		req := sampleRequest(classify.Stats)
		req.Snapshot.Dismissed = []answer.DismissalLine{{Name: "Yashasvi Jaiswal", Runs: 13, DismissalMode: "caught", Bowler: "Marco Jansen", Fielder: "Kyle Verreynne"}}
		p := buildPrompt(req)
		So(p, ShouldContainSubstring, "- Score: 27/2")
		So(p, ShouldContainSubstring, "- Current batsman: Sai Sudharsan (2* runs)")
		So(p, ShouldContainSubstring, "Yashasvi Jaiswal 13 (c Kyle Verreynne b Marco Jansen)")
		So(p, ShouldContainSubstring, "Be specific with numbers.")

		req.Label = classify.Momentum
		p = buildPrompt(req)
		So(p, ShouldContainSubstring, "- Recent events: Yashasvi Jaiswal dismissed by Marco Jansen")

		req.Label = classify.Tactical
		req.Snapshot.RecentDetail = []answer.EventLine{{Type: "wicket", Batter: "Yashasvi Jaiswal", Bowler: "Marco Jansen", DismissalMode: "caught"}}
		p = buildPrompt(req)
		So(p, ShouldContainSubstring, "* wicket batter=Yashasvi Jaiswal bowler=Marco Jansen mode=caught")
		So(strings.Count(p, "User Question:"), ShouldEqual, 1)
	})
}
