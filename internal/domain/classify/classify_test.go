package classify_test

import (
	"testing"

	"github.com/okian/innings/internal/domain/classify"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRoute(t *testing.T) {
	Convey("Given typical questions during a chase", t, func() {
		examples := []struct {
			query string
			want  classify.Label
		}{
			{"What's the score?", classify.Stats},
			{"How many runs has Jaiswal scored?", classify.Stats},
			{"Who is batting now?", classify.Stats},
			{"How many runs to win?", classify.Stats},
			{"What just happened?", classify.Momentum},
			{"Is India in trouble?", classify.Momentum},
			{"Who has the momentum?", classify.Momentum},
			{"Can India draw?", classify.Probability},
			{"What are India's chances?", classify.Probability},
			{"What's the win probability?", classify.Probability},
			{"Why did Jaiswal get out?", classify.Tactical},
			{"What was the dismissal?", classify.Tactical},
			{"How was Sudharsan dismissed?", classify.Tactical},
			{"Tell me something", classify.Stats},
			{"", classify.Stats},
		}
		for _, ex := range examples {
			Convey("Then "+ex.query+" routes to "+ex.want.String(), func() {
				So(classify.Route(ex.query), ShouldEqual, ex.want)
			})
		}
	})

	Convey("Given mixed case input", t, func() {
		So(classify.Route("CAN THEY DRAW"), ShouldEqual, classify.Probability)
	})

	Convey("Labels render console tags", t, func() {
		So(classify.Probability.Tag(), ShouldEqual, "[PROBABILITY]")
		So(classify.Labels, ShouldHaveLength, 4)
	})
}
