package llm

import (
	"fmt"
	"strings"

	"github.com/okian/innings/internal/domain/answer"
	"github.com/okian/innings/internal/domain/classify"
)

const systemPrompt = "You are a helpful cricket commentary assistant. Answer questions accurately and concisely."

// buildPrompt renders the user message for req.
func buildPrompt(req answer.Request) string {
	s := req.Snapshot
	var b strings.Builder

	fmt.Fprintf(&b, "You are a cricket commentary agent answering questions about a live Test match.\n\n")
	fmt.Fprintf(&b, "Current Match State:\n")
	fmt.Fprintf(&b, "- Team: %s\n", s.TeamBatting)
	fmt.Fprintf(&b, "- Score: %d/%d\n", s.TotalRuns, s.WicketsLost)
	fmt.Fprintf(&b, "- Overs played: %.1f\n", s.OversPlayed)
	fmt.Fprintf(&b, "- Target: %d runs\n", s.Target)

	switch req.Label {
	case classify.Stats:
		writeBatter(&b, s)
		fmt.Fprintf(&b, "- Wickets remaining: %d\n", s.WicketsRemaining)
		fmt.Fprintf(&b, "- Runs needed: %d\n", s.RunsNeeded)
		writeDismissals(&b, s)
		fmt.Fprintf(&b, "\nUser Question: %s\n\n", req.Query)
		b.WriteString("Provide a concise, accurate answer about match statistics. Be specific with numbers.\n")
	case classify.Probability:
		fmt.Fprintf(&b, "- Overs remaining: %.1f\n", s.OversRemaining)
		fmt.Fprintf(&b, "- Wickets remaining: %d\n", s.WicketsRemaining)
		fmt.Fprintf(&b, "- Runs needed: %d\n", s.RunsNeeded)
		writeOdds(&b, s)
		fmt.Fprintf(&b, "\nUser Question: %s\n\n", req.Query)
		b.WriteString("Analyze the probability of different match outcomes. Consider the match situation, required run rate, wickets remaining, and time left.\n")
	case classify.Momentum:
		recent := "None"
		if len(s.RecentSummary) > 0 {
			recent = strings.Join(s.RecentSummary, ", ")
		}
		fmt.Fprintf(&b, "- Recent events: %s\n", recent)
		writeOdds(&b, s)
		fmt.Fprintf(&b, "\nUser Question: %s\n\n", req.Query)
		b.WriteString("Analyze the current momentum in the match. Consider recent events, scoring rate, wickets, and which team has the upper hand.\n")
	case classify.Tactical:
		writeBatter(&b, s)
		writeDismissals(&b, s)
		b.WriteString("- Recent events:\n")
		for _, ev := range s.RecentDetail {
			fmt.Fprintf(&b, "  * %s", ev.Type)
			if ev.Batter != "" {
				fmt.Fprintf(&b, " batter=%s", ev.Batter)
			}
			if ev.Bowler != "" {
				fmt.Fprintf(&b, " bowler=%s", ev.Bowler)
			}
			if ev.DismissalMode != "" {
				fmt.Fprintf(&b, " mode=%s", ev.DismissalMode)
			}
			if ev.Fielder != "" {
				fmt.Fprintf(&b, " fielder=%s", ev.Fielder)
			}
			if ev.RunsScored > 0 {
				fmt.Fprintf(&b, " runs=%d", ev.RunsScored)
			}
			if ev.Commentary != "" {
				fmt.Fprintf(&b, " %q", ev.Commentary)
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\nUser Question: %s\n\n", req.Query)
		b.WriteString("Provide tactical analysis of dismissals, bowling strategies, batting approaches, and match situation.\n")
	default:
		fmt.Fprintf(&b, "\nUser Question: %s\n\n", req.Query)
		b.WriteString("Provide a concise, accurate answer based on the match state. Answer naturally, as if you're a cricket commentator.\n")
	}
	return b.String()
}

func writeBatter(b *strings.Builder, s answer.Snapshot) {
	if s.CurrentBatter == nil {
		return
	}
	fmt.Fprintf(b, "- Current batsman: %s (%d* runs)\n", s.CurrentBatter.Name, s.CurrentBatter.Runs)
}

func writeDismissals(b *strings.Builder, s answer.Snapshot) {
	for _, d := range s.Dismissed {
		how := d.DismissalMode
		if d.Fielder != "" {
			how = "c " + d.Fielder
		}
		fmt.Fprintf(b, "- Dismissed: %s %d (%s b %s)\n", d.Name, d.Runs, how, d.Bowler)
	}
}

func writeOdds(b *strings.Builder, s answer.Snapshot) {
	fmt.Fprintf(b, "- P(Draw): %.0f%%\n", s.PDraw*100)
	fmt.Fprintf(b, "- P(%s Win): %.0f%%\n", s.TeamFielding, s.PFieldingWin*100)
}
