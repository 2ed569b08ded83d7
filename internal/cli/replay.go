package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/innings/internal/replay"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Replay   replay.Config
	File     string
	Simulate int
	Seed     uint64
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Post events to a running server and verify the final state",
		Long: `Submit events to POST /events one at a time, wait for the ingester
to process them, then check that GET /state ends on the score, wickets and
overs of the last event.

Events come from --file, or --simulate N deliveries continuing from the
server's current state.

Exit codes:
  0 - all events applied and the final state verified
  1 - verification failed
  2 - command error`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var evs []json.RawMessage
			switch {
			case opts.File != "":
				var err error
				if evs, err = replay.LoadFile(opts.File); err != nil {
					return WrapExitError(ExitCommandError, "failed to read events", err)
				}
			case opts.Simulate > 0:
				state, err := replay.FetchState(ctx, opts.Replay)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read server state", err)
				}
				for _, ev := range replay.NewSimulator(opts.Seed, state.LastUpdated).Next(state, opts.Simulate) {
					b, err := json.Marshal(ev)
					if err != nil {
						return WrapExitError(ExitCommandError, "failed to encode event", err)
					}
					evs = append(evs, b)
				}
			default:
				return NewExitError(ExitCommandError, "one of --file or --simulate is required")
			}

			stats, err := replay.Run(ctx, opts.Replay, evs)
			if werr := writeReplayStats(cmd, opts.Format, stats); werr != nil {
				return werr
			}
			switch {
			case errors.Is(err, replay.ErrMismatch), errors.Is(err, replay.ErrTimeout):
				return WrapExitError(ExitFailure, "replay verification failed", err)
			case err != nil:
				return WrapExitError(ExitCommandError, "replay failed", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Replay.BaseURL, "url", replay.DefaultBaseURL, "base URL of the service")
	cmd.Flags().DurationVar(&opts.Replay.Timeout, "timeout", replay.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().DurationVar(&opts.Replay.Wait, "wait", replay.DefaultWait, "how long to wait for processing")
	cmd.Flags().DurationVar(&opts.Replay.Pace, "pace", 0, "pause between submissions")
	cmd.Flags().BoolVarP(&opts.Replay.Verbose, "verbose", "v", false, "log every submission")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "events file (JSON array or one object per line)")
	cmd.Flags().IntVar(&opts.Simulate, "simulate", 0, "simulate N deliveries instead of reading a file")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "simulation seed")

	return cmd
}

func writeReplayStats(cmd *cobra.Command, format string, s replay.Stats) error {
	w := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(w, s)
	}
	_, err := fmt.Fprintf(w, "submitted %d: accepted %d, duplicate %d, failed %d; final version %d; verified %t (%s)\n",
		s.EventsSubmitted, s.EventsAccepted, s.EventsDuplicate, s.EventsFailed, s.FinalVersion, s.Verified, s.Duration.Round(time.Millisecond))
	return err
}
