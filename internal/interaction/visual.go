package interaction

// #region imports
import (
	"strings"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region visual-processor

// visualProcessor scores pattern recognition with a simple-vs-complex
// split when per-item complexity scores are supplied.
type visualProcessor struct{}

func (visualProcessor) Type() TestType { return TestVisualProcessing }

func (visualProcessor) Process(rec Record) Result {
	n := len(rec.Patterns)
	if n == 0 {
		return emptyResult()
	}

	pairs := len(rec.StudentResponses)
	if len(rec.CorrectResponses) < pairs {
		pairs = len(rec.CorrectResponses)
	}
	matched := func(i int) bool {
		return i < pairs &&
			strings.TrimSpace(rec.StudentResponses[i]) == strings.TrimSpace(rec.CorrectResponses[i])
	}

	correct := 0
	for i := 0; i < pairs; i++ {
		if matched(i) {
			correct++
		}
	}
	accuracy := float64(correct) / float64(n) * 100

	// Complexity threshold at 3: below is simple, at or above is complex.
	simpleAccuracy := accuracy
	complexAccuracy := accuracy
	if len(rec.PatternComplexity) > 0 {
		var simpleCorrect, simpleTotal, complexCorrect, complexTotal int
		for i, c := range rec.PatternComplexity {
			if c < 3 {
				simpleTotal++
				if matched(i) {
					simpleCorrect++
				}
			} else {
				complexTotal++
				if matched(i) {
					complexCorrect++
				}
			}
		}
		simpleAccuracy = 0
		if simpleTotal > 0 {
			simpleAccuracy = float64(simpleCorrect) / float64(simpleTotal) * 100
		}
		complexAccuracy = 0
		if complexTotal > 0 {
			complexAccuracy = float64(complexCorrect) / float64(complexTotal) * 100
		}
	}

	avgRT, _ := meanStd(rec.ResponseTimes)

	fs := feature.NewSet()
	fs.Put("overall_accuracy", round2(accuracy))
	fs.Put("simple_pattern_accuracy", round2(simpleAccuracy))
	fs.Put("complex_pattern_accuracy", round2(complexAccuracy))
	fs.Put("avg_response_time", round2(avgRT))
	fs.Put("completion_rate", round2(float64(len(rec.StudentResponses))/float64(n)))

	return Result{Score: round2(accuracy), Errors: n - correct, Features: fs}
}

// #endregion visual-processor
