package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/innings/internal/app"
	"github.com/okian/innings/internal/replay"
)

// NewAskCommand creates the one-shot ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	var eventsFile string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question against the seed state",
		Long: `Answer a single question. With --events the file is applied first,
so the answer reflects the position after those deliveries.

Examples:
  innings ask "What's the score?"
  innings ask --events day5.json "Can India still draw?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := rootOpts.Config()
			cfg.Poll.Enabled = false

			svc, err := service.New(ctx, cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to start service", err)
			}
			defer func() { _ = svc.Close() }()

			if eventsFile != "" {
				evs, err := replay.LoadFile(eventsFile)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read events", err)
				}
				ApplyEvents(ctx, svc, evs)
			}

			ans := svc.AskCurrent(ctx, strings.Join(args, " "))
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), ans)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ans.Line())
			return err
		},
	}

	cmd.Flags().StringVar(&eventsFile, "events", "", "events file applied before answering")
	return cmd
}
