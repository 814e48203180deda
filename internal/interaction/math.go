package interaction

// #region imports
import (
	"math"
	"strconv"
	"strings"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region math-processor

// mathProcessor scores math problems and splits wrong answers into an
// error taxonomy: sign errors, place-value errors, and residual
// calculation errors. Records may carry either parallel answer arrays or
// per-problem items; items win when present.
type mathProcessor struct{}

func (mathProcessor) Type() TestType { return TestMath }

func (m mathProcessor) Process(rec Record) Result {
	if len(rec.ProblemItems) > 0 {
		return m.processItems(rec)
	}
	return m.processArrays(rec)
}

// #endregion math-processor

// #region items-path

// processItems handles per-problem records: correctness comes from the
// recorded flag, the taxonomy from labels plus answer comparison.
func (mathProcessor) processItems(rec Record) Result {
	n := len(rec.ProblemItems)
	if n == 0 {
		return emptyResult()
	}

	var correct, calcErrors, conceptErrors, procedureErrors, reversals int
	var signErrors, placeValueErrors int
	for _, item := range rec.ProblemItems {
		if item.IsCorrect {
			correct++
			continue
		}
		switch item.ErrorType {
		case "concept":
			conceptErrors++
		case "procedure":
			procedureErrors++
		default:
			switch classifyAnswerError(item.StudentAnswer, item.CorrectAnswer) {
			case "sign":
				signErrors++
			case "place_value":
				placeValueErrors++
			default:
				calcErrors++
			}
		}
		if isNumberReversal(item.StudentAnswer, item.CorrectAnswer) {
			reversals++
		}
	}

	accuracy := float64(correct) / float64(n) * 100
	errors := n - correct
	avgTime := 0.0
	if rec.TimeTaken > 0 {
		avgTime = rec.TimeTaken / float64(n)
	}

	fs := feature.NewSet()
	fs.Put("total_problems", float64(n))
	fs.Put("correct_answers", float64(correct))
	fs.Put("accuracy", round2(accuracy))
	fs.Put("score", round2(accuracy))
	fs.Put("errors", float64(errors))
	fs.Put("calculation_errors", float64(calcErrors))
	fs.Put("sign_errors", float64(signErrors))
	fs.Put("place_value_errors", float64(placeValueErrors))
	fs.Put("concept_errors", float64(conceptErrors))
	fs.Put("procedure_errors", float64(procedureErrors))
	fs.Put("number_reversals", float64(reversals))
	fs.Put("avg_time_per_problem", round2(avgTime))
	fs.Put("completion_rate", 1)
	fs.Put("time_taken", rec.TimeTaken)

	return Result{Score: round2(accuracy), Errors: errors, Features: fs}
}

// #endregion items-path

// #region array-path

// processArrays handles parallel problems/answers/correct_answers arrays:
// correctness by exact match of trimmed answers.
func (mathProcessor) processArrays(rec Record) Result {
	n := len(rec.Problems)
	if n == 0 {
		return emptyResult()
	}

	pairs := len(rec.Answers)
	if len(rec.CorrectAnswers) < pairs {
		pairs = len(rec.CorrectAnswers)
	}

	var correct, signErrors, placeValueErrors, calcErrors, reversals int
	for i := 0; i < pairs; i++ {
		student := strings.TrimSpace(rec.Answers[i])
		want := strings.TrimSpace(rec.CorrectAnswers[i])
		if student == want {
			correct++
			continue
		}
		switch classifyAnswerError(student, want) {
		case "sign":
			signErrors++
		case "place_value":
			placeValueErrors++
		default:
			calcErrors++
		}
		if isNumberReversal(student, want) {
			reversals++
		}
	}

	accuracy := float64(correct) / float64(n) * 100
	errors := n - correct

	avgTime, stdTime := meanStd(rec.TimePerProblem)
	timeConsistency := consistency(avgTime, stdTime)

	fs := feature.NewSet()
	fs.Put("total_problems", float64(n))
	fs.Put("correct_answers", float64(correct))
	fs.Put("accuracy", round2(accuracy))
	fs.Put("score", round2(accuracy))
	fs.Put("errors", float64(errors))
	fs.Put("calculation_errors", float64(calcErrors))
	fs.Put("sign_errors", float64(signErrors))
	fs.Put("place_value_errors", float64(placeValueErrors))
	fs.Put("concept_errors", 0)
	fs.Put("procedure_errors", 0)
	fs.Put("number_reversals", float64(reversals))
	fs.Put("avg_time_per_problem", round2(avgTime))
	fs.Put("time_consistency", round2(timeConsistency))
	fs.Put("completion_rate", round2(float64(len(rec.Answers))/float64(n)))
	fs.Put("time_taken", rec.TimeTaken)

	return Result{Score: round2(accuracy), Errors: errors, Features: fs}
}

// #endregion array-path

// #region taxonomy

// classifyAnswerError labels a wrong numeric answer as "sign" when it is
// the negation of the correct value, "place_value" when the magnitude is
// exactly ten times or one tenth of the correct one, and "calculation"
// otherwise (including non-numeric answers).
func classifyAnswerError(student, correct string) string {
	s, errS := strconv.ParseFloat(strings.TrimSpace(student), 64)
	c, errC := strconv.ParseFloat(strings.TrimSpace(correct), 64)
	if errS != nil || errC != nil {
		return "calculation"
	}
	// Negation is meaningless at zero; a zero-for-zero mismatch from an
	// inconsistent record falls through to place_value (0/10 == 0).
	if s == -c && c != 0 {
		return "sign"
	}
	if math.Abs(s)/10 == math.Abs(c) || math.Abs(s)*10 == math.Abs(c) {
		return "place_value"
	}
	return "calculation"
}

// #endregion taxonomy
