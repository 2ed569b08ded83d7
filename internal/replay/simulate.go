package replay

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/innings/internal/domain/model"
)

// Outcome weights per delivery, out of 1000.
const (
	weightDot      = 560
	weightSingle   = 200
	weightTwo      = 70
	weightThree    = 15
	weightFour     = 100
	weightSix      = 25
	ballsPerOver   = 6
	secondsPerBall = 40
)

var (
	defaultBatters = []string{"Dhruv Jurel", "Rishabh Pant", "Ravindra Jadeja", "Washington Sundar", "Nitish Kumar Reddy", "Kuldeep Yadav", "Jasprit Bumrah", "Mohammed Siraj"}
	defaultBowlers = []string{"Marco Jansen", "Simon Harmer", "Keshav Maharaj", "Kagiso Rabada"}
	wicketModes    = []model.DismissalMode{model.DismissalCaught, model.DismissalCaught, model.DismissalBowled, model.DismissalLBW, model.DismissalStumped, model.DismissalRunOut}
	fielders       = []string{"Aiden Markram", "Kyle Verreynne", "Tony de Zorzi", "Tristan Stubbs"}
)

// Simulator produces a plausible sequence of deliveries continuing from a
// match state. The same seed always yields the same events.
type Simulator struct {
	rng     *rand.Rand
	batters []string
	bowlers []string
	start   time.Time
}

// NewSimulator creates a simulator seeded with seed. start is the timestamp
// of the first delivery; zero means now.
func NewSimulator(seed uint64, start time.Time) *Simulator {
	if start.IsZero() {
		start = time.Now().UTC().Truncate(time.Second)
	}
	return &Simulator{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		batters: defaultBatters,
		bowlers: defaultBowlers,
		start:   start,
	}
}

// Next returns up to n events after s. It stops early when the batting
// side is all out.
func (sim *Simulator) Next(s model.MatchState, n int) []model.Event {
	out := make([]model.Event, 0, n)
	balls := oversToBalls(s.OversPlayed)
	score, wickets := s.TotalRuns, s.WicketsLost
	striker := s.CurrentBatter.Name
	if striker == "" {
		striker = model.UnknownActor
	}
	nextIn := 0

	for i := 0; i < n && wickets < model.MaxWickets; i++ {
		balls++
		overs := ballsToOvers(balls)
		bowler := sim.bowlers[((balls-1)/ballsPerOver)%len(sim.bowlers)]
		ev := model.Event{
			ID:          uuid.NewString(),
			Timestamp:   sim.start.Add(time.Duration(i*secondsPerBall) * time.Second),
			OversPlayed: overs,
			BallsInOver: ballOfOver(balls),
			Batter:      model.Ptr(striker),
			Bowler:      model.Ptr(bowler),
		}

		roll := sim.rng.IntN(1000)
		runs := 0
		switch {
		case roll < weightDot:
			ev.Type = model.EventDot
		case roll < weightDot+weightSingle:
			runs = 1
		case roll < weightDot+weightSingle+weightTwo:
			runs = 2
		case roll < weightDot+weightSingle+weightTwo+weightThree:
			runs = 3
		case roll < weightDot+weightSingle+weightTwo+weightThree+weightFour:
			runs = 4
		case roll < weightDot+weightSingle+weightTwo+weightThree+weightFour+weightSix:
			runs = 6
		default:
			ev.Type = model.EventWicket
		}

		switch ev.Type {
		case model.EventWicket:
			wickets++
			mode := wicketModes[sim.rng.IntN(len(wicketModes))]
			ev.DismissalMode = model.Ptr(mode)
			if mode == model.DismissalCaught {
				ev.Fielder = model.Ptr(fielders[sim.rng.IntN(len(fielders))])
			}
			ev.Commentary = model.Ptr(fmt.Sprintf("%s, %s gone", mode, striker))
			if nextIn < len(sim.batters) {
				striker = sim.batters[nextIn]
				nextIn++
			} else {
				striker = fmt.Sprintf("Batter %d", wickets+2)
			}
		case model.EventDot:
		default:
			ev.Type = model.EventRuns
			ev.RunsScored = runs
			score += runs
			if runs >= 4 {
				ev.Commentary = model.Ptr(fmt.Sprintf("%s hits a boundary for %d", striker, runs))
			}
		}
		ev.CurrentScore = score
		ev.CurrentWickets = wickets
		out = append(out, ev)
	}
	return out
}

func oversToBalls(overs float64) int {
	whole := math.Floor(overs)
	return int(whole)*ballsPerOver + model.BallOfOver(overs)
}

func ballsToOvers(balls int) float64 {
	return float64(balls/ballsPerOver) + float64(balls%ballsPerOver)/10
}

func ballOfOver(balls int) int {
	if b := balls % ballsPerOver; b != 0 {
		return b
	}
	return ballsPerOver
}
