package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/internal/domain/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Verification failure (replay mismatch, rejected events)
	ExitCommandError = 2 // Command error (bad flags, unreadable files, config)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeBanner prints the position summary shown when the console starts.
func writeBanner(w io.Writer, v repository.Versioned) {
	s := v.State
	rule := strings.Repeat("=", 50)
	_, _ = fmt.Fprintf(w, "\n%s\n=== Innings Tracker ===\n", rule)
	_, _ = fmt.Fprintf(w, "Match: %s vs %s (%s)\n\nCurrent State:\n", s.TeamBatting, s.TeamFielding, s.MatchID)
	_, _ = fmt.Fprintf(w, "  %s: %d/%d in %.1f overs (%s %d*)\n", s.TeamBatting, s.TotalRuns, s.WicketsLost, s.OversPlayed,
		s.CurrentBatter.Name, s.CurrentBatter.Runs)
	_, _ = fmt.Fprintf(w, "  Target: %d\n", s.Target)
	_, _ = fmt.Fprintf(w, "  P(Draw): %s\n", pct(s.PDraw))
	_, _ = fmt.Fprintf(w, "  P(%s Win): %s\n%s\n\n", s.TeamFielding, pct(s.PFieldingWin), rule)
}

// stateLine is the one-line summary printed after each applied event.
func stateLine(v repository.Versioned) string {
	s := v.State
	what := "update"
	if n := len(s.RecentEvents); n > 0 {
		what = string(s.RecentEvents[n-1].Type)
	}
	return fmt.Sprintf("Auto-update: %s - Score: %d/%d (%.1f ov) - P(Draw): %s", what, s.TotalRuns, s.WicketsLost, s.OversPlayed, pct(s.PDraw))
}

func writeState(w io.Writer, format string, v repository.Versioned) error {
	if format == "json" {
		return writeJSON(w, v)
	}
	s := v.State
	_, err := fmt.Fprintf(w, "version %d: %s %d/%d in %.1f overs, target %d, P(Draw) %s, dismissed %s\n",
		v.Version, s.TeamBatting, s.TotalRuns, s.WicketsLost, s.OversPlayed, s.Target, pct(s.PDraw), dismissedNames(s.DismissedPlayers))
	return err
}

func dismissedNames(ds []model.DismissedPlayer) string {
	if len(ds) == 0 {
		return "none"
	}
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, fmt.Sprintf("%s %d", d.Name, d.Runs))
	}
	return strings.Join(names, ", ")
}

func pct(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}
