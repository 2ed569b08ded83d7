package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/okian/innings/internal/adapters/mq/queue"
	"github.com/okian/innings/internal/adapters/repository"
	service "github.com/okian/innings/internal/app"
	"github.com/okian/innings/internal/replay"
)

// ApplyResult summarizes an offline run over an events file.
type ApplyResult struct {
	Applied    int                  `json:"applied"`
	Duplicates int                  `json:"duplicates"`
	Rejected   []Rejection          `json:"rejected"`
	Final      repository.Versioned `json:"final"`
}

// Rejection is one event the pipeline refused.
type Rejection struct {
	Index   int    `json:"index"`
	EventID string `json:"event_id,omitempty"`
	Error   string `json:"error"`
}

// NewApplyCommand creates the offline apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "apply <events.json>",
		Short: "Apply an events file to the configured seed state offline",
		Long: `Run every event in the file through validation and the state
transition, in order, without starting a server. The file is a JSON array
of events or one event object per line.

Exit codes:
  0 - all events processed (rejections are reported)
  1 - --strict was given and an event was rejected
  2 - command error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evs, err := replay.LoadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read events", err)
			}
			cfg := rootOpts.Config()
			cfg.Poll.Enabled = false

			svc, err := service.New(cmd.Context(), cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to start service", err)
			}
			defer func() { _ = svc.Close() }()

			res := ApplyEvents(cmd.Context(), svc, evs)
			if err := writeApplyResult(cmd.OutOrStdout(), rootOpts.Format, res); err != nil {
				return err
			}
			if strict && len(res.Rejected) > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d event(s) rejected", len(res.Rejected)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit 1 when any event is rejected")
	return cmd
}

// ApplyEvents runs evs through svc in order. Event ids already seen are
// skipped the way the HTTP API skips them; a rejected id may be retried.
func ApplyEvents(ctx context.Context, svc *service.Service, evs []json.RawMessage) ApplyResult {
	var res ApplyResult
	for i, raw := range evs {
		id := gjson.GetBytes(raw, "event_id").String()
		if id != "" && svc.SeenAndRecord(ctx, id) {
			res.Duplicates++
			continue
		}

		payload, err := decodePayload(raw)
		if err == nil {
			if id == "" {
				id = uuid.NewString()
			}
			_, err = svc.Apply(ctx, queue.Candidate{ID: id, Source: queue.SourceFile, Payload: payload})
		}
		if err != nil {
			svc.Unrecord(ctx, id)
			res.Rejected = append(res.Rejected, Rejection{Index: i, EventID: id, Error: err.Error()})
			continue
		}
		res.Applied++
	}
	res.Final = svc.Current(ctx)
	return res
}

func decodePayload(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return m, nil
}

func writeApplyResult(w io.Writer, format string, res ApplyResult) error {
	if format == "json" {
		return writeJSON(w, res)
	}
	_, _ = fmt.Fprintf(w, "applied %d, duplicates %d, rejected %d\n", res.Applied, res.Duplicates, len(res.Rejected))
	for _, r := range res.Rejected {
		_, _ = fmt.Fprintf(w, "  #%d %s: %s\n", r.Index, r.EventID, r.Error)
	}
	return writeState(w, format, res.Final)
}
