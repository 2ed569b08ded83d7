package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/internal/replay"
)

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		n    int
		seed uint64
		out  string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write simulated deliveries continuing from the seed state",
		Long: `Generate a reproducible events file. The same seed always produces
the same deliveries; feed the result to apply or replay.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if n <= 0 {
				return NewExitError(ExitCommandError, "--balls must be positive")
			}
			state, err := model.NewMatchState(rootOpts.Config().Seed())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid seed state", err)
			}
			evs := replay.NewSimulator(seed, time.Now().UTC().Truncate(time.Second)).Next(state, n)

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to create output", err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := replay.Write(w, evs); err != nil {
				return WrapExitError(ExitCommandError, "failed to write events", err)
			}
			if out != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d events to %s\n", len(evs), out)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "balls", "n", 60, "number of deliveries")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "simulation seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
