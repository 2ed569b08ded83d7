package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	service "github.com/okian/innings/internal/app"
	"github.com/okian/innings/internal/cli"
	"github.com/okian/innings/internal/config"
	"github.com/okian/innings/internal/replay"
	"github.com/okian/innings/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// execute runs the root command with args and returns stdout and the error.
func execute(args ...string) (string, error) {
	cmd := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func offlineConfig() *config.Config {
	cfg := config.New()
	cfg.LLM.Enabled = false
	cfg.Poll.Enabled = false
	return cfg
}

func TestRootCommand(t *testing.T) {
	Convey("Given the root command", t, func() {
		cmd := cli.NewRootCommand()

		Convey("Then every subcommand is registered", func() {
			var names []string
			for _, c := range cmd.Commands() {
				names = append(names, c.Name())
			}
			for _, want := range []string{"serve", "console", "apply", "ask", "replay", "simulate"} {
				So(names, ShouldContain, want)
			}
		})

		Convey("Then the global flags exist", func() {
			for _, f := range []string{"config", "env-file", "log-level", "format"} {
				So(cmd.PersistentFlags().Lookup(f), ShouldNotBeNil)
			}
			So(cmd.PersistentFlags().Lookup("format").DefValue, ShouldEqual, "text")
		})

		Convey("When the output format is unknown", func() {
			_, err := execute("--format", "xml", "ask", "score")
			So(err, ShouldNotBeNil)
			So(cli.GetExitCode(err), ShouldEqual, cli.ExitCommandError)
		})
	})
}

func TestGetExitCode(t *testing.T) {
	Convey("Exit codes are read from wrapped ExitErrors", t, func() {
		So(cli.GetExitCode(nil), ShouldEqual, cli.ExitSuccess)
		So(cli.GetExitCode(errors.New("boom")), ShouldEqual, cli.ExitFailure)

		inner := errors.New("disk")
		err := cli.WrapExitError(cli.ExitCommandError, "read", inner)
		So(cli.GetExitCode(err), ShouldEqual, cli.ExitCommandError)
		So(errors.Is(err, inner), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "read: disk")
		So(cli.NewExitError(cli.ExitFailure, "mismatch").Error(), ShouldEqual, "mismatch")
	})
}

func TestRunConsole(t *testing.T) {
	Convey("Given a console over the seed state", t, func() {
		ctx := context.Background()
		svc, err := service.New(ctx, offlineConfig())
		So(err, ShouldBeNil)
		defer func() { _ = svc.Close() }()

		var out bytes.Buffer

		Convey("When a question is asked and the user quits", func() {
			in := strings.NewReader("How many runs scored in total?\n\n  quit \nignored\n")
			So(cli.RunConsole(ctx, svc, in, &out, false), ShouldBeNil)

			text := out.String()
			So(text, ShouldContainSubstring, "=== Innings Tracker ===")
			So(text, ShouldContainSubstring, "Match: India vs South Africa (117380)")
			So(text, ShouldContainSubstring, "India: 27/2 in 6.0 overs (Sai Sudharsan 2*)")
			So(text, ShouldContainSubstring, "Enter your query (type 'exit' to quit):")
			So(text, ShouldContainSubstring, "[STATS] India's current score: 27 runs for 2 wickets.")
			So(text, ShouldContainSubstring, "Goodbye!")
			So(text, ShouldNotContainSubstring, "Auto-polling enabled")
		})

		Convey("When input ends without exit", func() {
			So(cli.RunConsole(ctx, svc, strings.NewReader("Can India draw?"), &out, true), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "Auto-polling enabled")
			So(out.String(), ShouldContainSubstring, "[PROBABILITY] P(Draw): ")
			So(out.String(), ShouldContainSubstring, "Goodbye!")
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			pr, pw := io.Pipe()
			defer func() { _ = pw.Close() }()
			So(cli.RunConsole(cctx, svc, pr, &out, false), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "Interrupted. Goodbye!")
		})
	})
}

func TestApplyAndSimulate(t *testing.T) {
	t.Setenv("CRICKET_LLM__ENABLED", "false")

	Convey("Given a simulated events file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "events.json")

		_, err := execute("simulate", "--balls", "12", "--seed", "7", "--out", path)
		So(err, ShouldBeNil)

		evs, err := replay.LoadFile(path)
		So(err, ShouldBeNil)
		So(len(evs), ShouldBeGreaterThan, 0)
		exp, ok := replay.Expect(evs)
		So(ok, ShouldBeTrue)

		Convey("When it is applied offline", func() {
			out, err := execute("apply", path)
			So(err, ShouldBeNil)
			So(out, ShouldStartWith, "applied "+itoa(len(evs))+", duplicates 0, rejected 0\n")
			So(out, ShouldContainSubstring, "version "+itoa(len(evs)+1)+":")
		})

		Convey("When the same event appears twice and one arrives late", func() {
			late := setID(evs[0], "late-1")
			all := append(append(append([]json.RawMessage{}, evs...), evs[0]), late)
			So(writeEvents(path, all), ShouldBeNil)

			out, err := execute("--format", "json", "apply", path)
			So(err, ShouldBeNil)
			So(int(gjson.Get(out, "applied").Int()), ShouldEqual, len(evs))
			So(int(gjson.Get(out, "duplicates").Int()), ShouldEqual, 1)
			So(int(gjson.Get(out, "rejected.#").Int()), ShouldEqual, 1)
			So(gjson.Get(out, "rejected.0.event_id").String(), ShouldEqual, "late-1")
			So(int(gjson.Get(out, "final.state.total_runs").Int()), ShouldEqual, exp.Score)

			Convey("And --strict turns rejections into exit code 1", func() {
				_, err := execute("apply", "--strict", path)
				So(cli.GetExitCode(err), ShouldEqual, cli.ExitFailure)
			})
		})

		Convey("When a question follows the events", func() {
			out, err := execute("ask", "--events", path, "how", "many", "wickets", "lost")
			So(err, ShouldBeNil)
			So(out, ShouldStartWith, "[STATS] India has lost "+itoa(exp.Wickets)+" wickets so far.")
		})
	})

	Convey("Simulation is reproducible for a seed", t, func() {
		a, err := execute("simulate", "-n", "6", "--seed", "3")
		So(err, ShouldBeNil)
		b, err := execute("simulate", "-n", "6", "--seed", "3")
		So(err, ShouldBeNil)
		So(gjson.Get(a, "#.event_type").String(), ShouldEqual, gjson.Get(b, "#.event_type").String())
		So(gjson.Get(a, "#.current_score").String(), ShouldEqual, gjson.Get(b, "#.current_score").String())
	})

	Convey("Missing files are command errors", t, func() {
		_, err := execute("apply", filepath.Join(t.TempDir(), "nope.json"))
		So(cli.GetExitCode(err), ShouldEqual, cli.ExitCommandError)

		_, err = execute("replay")
		So(cli.GetExitCode(err), ShouldEqual, cli.ExitCommandError)
	})
}

func itoa(n int) string { return strconv.Itoa(n) }

// setID returns a copy of raw with event_id replaced.
func setID(raw json.RawMessage, id string) json.RawMessage {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		panic(err)
	}
	m["event_id"] = id
	b, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return b
}

func writeEvents(path string, evs []json.RawMessage) error {
	b, err := json.Marshal(evs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
