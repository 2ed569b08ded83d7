// Package classify routes a free-text question to the kind of answer it needs.
package classify

import "strings"

// Label is the answer category for a question.
type Label string

const (
	Stats       Label = "stats"
	Momentum    Label = "momentum"
	Probability Label = "probability"
	Tactical    Label = "tactical"
)

// Labels lists every category.
var Labels = []Label{Stats, Momentum, Probability, Tactical}

func (l Label) String() string { return string(l) }

// Tag is the console prefix for answers of this label, e.g. "[STATS]".
func (l Label) Tag() string { return "[" + strings.ToUpper(string(l)) + "]" }

var (
	statsWords       = []string{"score", "runs", "wickets", "overs", "batting"}
	probabilityWords = []string{"chance", "draw", "win", "probability", "odds", "likely"}
	momentumWords    = []string{"momentum", "happening", "happened", "situation", "trouble", "doing"}
	dismissalWords   = []string{"dismissed", "dismissal"}
)

// Route classifies query by keyword. Rules are checked in order and the
// first match wins; anything unmatched is a stats question.
func Route(query string) Label {
	q := strings.ToLower(query)

	switch {
	case containsAny(q, statsWords...):
		return Stats
	case strings.Contains(q, "run") && strings.Contains(q, "win"):
		// "runs to win" is a scorecard question
		return Stats
	case strings.Contains(q, "who") && !strings.Contains(q, "momentum"):
		return Stats
	case containsAny(q, probabilityWords...):
		return Probability
	case containsAny(q, momentumWords...):
		return Momentum
	case containsAny(q, dismissalWords...):
		return Tactical
	case containsAny(q, "why", "how") && strings.Contains(q, "out"):
		return Tactical
	}
	return Stats
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
