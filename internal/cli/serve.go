package cli

import (
	"github.com/spf13/cobra"

	service "github.com/okian/innings/internal/app"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, snapshot stream and optional feed poller",
		Long: `Serve the ingestion and query API.

Routes:
  POST /events        submit a ball event
  GET  /state         current snapshot (?version=N for a recent one)
  POST /query         ask a question
  GET  /ws            snapshot stream
  GET  /stats         pipeline counters
  GET  /healthz       Prometheus metrics
  GET  /api-docs      API reference`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rootOpts.Config()
			if addr != "" {
				cfg.Addr = addr
			}
			ctx := cmd.Context()

			svc, err := service.New(ctx, cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to start service", err)
			}
			defer func() { _ = svc.Close() }()

			return svc.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides config")
	return cmd
}
