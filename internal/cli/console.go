package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/okian/innings/internal/adapters/mq/worker"
	"github.com/okian/innings/internal/adapters/repository"
	service "github.com/okian/innings/internal/app"
	"github.com/okian/innings/internal/domain/answer"
)

const prompt = "> "

// ConsoleService is what the console needs from the match service.
type ConsoleService interface {
	Current(ctx context.Context) repository.Versioned
	AskCurrent(ctx context.Context, query string) answer.Answer
	OnPublish(fn worker.PublishFunc)
	Run(ctx context.Context) error
}

// NewConsoleCommand creates the interactive console command.
func NewConsoleCommand(rootOpts *RootOptions) *cobra.Command {
	var poll bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Ask questions interactively while the feed updates the state",
		Long: `Start an interactive session. Every line is a question about the
match; type exit, quit or q to leave. With polling enabled the score feed
updates the state in the background and each change is printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rootOpts.Config()
			if cmd.Flags().Changed("poll") {
				cfg.Poll.Enabled = poll
			}
			ctx := cmd.Context()

			svc, err := service.New(ctx, cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to start service", err)
			}
			defer func() { _ = svc.Close() }()

			return RunConsole(ctx, svc, cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Poll.Enabled)
		},
	}

	cmd.Flags().BoolVar(&poll, "poll", false, "poll the score feed, overrides config")
	return cmd
}

// RunConsole reads questions from in until exit, EOF or ctx is cancelled.
// Answers and state updates are written to out.
func RunConsole(ctx context.Context, svc ConsoleService, in io.Reader, out io.Writer, polling bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(out, format, args...)
	}

	mu.Lock()
	writeBanner(out, svc.Current(ctx))
	_, _ = fmt.Fprintln(out, "Enter your query (type 'exit' to quit):")
	if polling {
		_, _ = fmt.Fprintln(out, "(Auto-polling enabled - events update automatically from the score feed)")
	}
	_, _ = fmt.Fprintln(out)
	mu.Unlock()

	svc.OnPublish(func(_ context.Context, v repository.Versioned) {
		printf("\n%s\n", stateLine(v))
	})

	runErr := make(chan error, 1)
	go func() { runErr <- svc.Run(ctx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		printf(prompt)
		select {
		case <-ctx.Done():
			printf("\n\nInterrupted. Goodbye!\n\n")
			return waitRun(cancel, runErr)
		case err := <-runErr:
			if ctx.Err() != nil {
				printf("\n\nInterrupted. Goodbye!\n\n")
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				printf("\n\nGoodbye!\n\n")
				return waitRun(cancel, runErr)
			}
			q := strings.TrimSpace(line)
			if q == "" {
				continue
			}
			switch strings.ToLower(q) {
			case "exit", "quit", "q":
				printf("\nGoodbye!\n\n")
				return waitRun(cancel, runErr)
			}
			ans := svc.AskCurrent(ctx, q)
			printf("\n%s\n\n", ans.Line())
		}
	}
}

func waitRun(cancel context.CancelFunc, runErr <-chan error) error {
	cancel()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
