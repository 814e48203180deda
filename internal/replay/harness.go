package replay

// #region imports
import (
	"fmt"
	"math"

	"github.com/sojwal000/learning-screen/internal/engine"
	"github.com/sojwal000/learning-screen/internal/risk"
)

// #endregion

// #region types

// floatTolerance bounds acceptable drift on replayed confidences and
// risk scores.
const floatTolerance = 1e-9

// Expected is the recorded outcome for one submission.
type Expected struct {
	SubmissionID   string
	PredictedClass string
	RiskLevel      risk.Level
	Confidence     float64
	RiskScore      float64
}

// Result captures the outcome of replaying one submission.
type Result struct {
	SubmissionID   string
	Match          bool
	Mismatches     []string
	Classification engine.Classification
	Err            error
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Total      int
	Matches    int
	Mismatches int
	Failures   int
}

// #endregion types

// #region replay

// Replay runs every fixture submission through the engine and compares
// against the expected results, keyed by submission id. Submissions
// without an expectation are replayed but only checked for pipeline
// errors.
func Replay(eng *engine.Engine, fixture *Fixture) []Result {
	expected := make(map[string]Expected, len(fixture.ExpectedResults))
	for _, fe := range fixture.ExpectedResults {
		expected[fe.SubmissionID] = fe.ToExpected()
	}

	results := make([]Result, 0, len(fixture.Submissions))
	for _, fs := range fixture.Submissions {
		cls, err := eng.ProcessSubmission(fs.ToSubmission())
		if err != nil {
			results = append(results, Result{SubmissionID: fs.ID, Err: err})
			continue
		}
		r := Result{SubmissionID: fs.ID, Classification: cls, Match: true}
		if exp, ok := expected[fs.ID]; ok {
			r.Mismatches = compare(exp, cls)
			r.Match = len(r.Mismatches) == 0
		}
		results = append(results, r)
	}
	return results
}

// compare diffs one classification against its recorded outcome.
func compare(exp Expected, got engine.Classification) []string {
	var diffs []string
	if got.PredictedClass != exp.PredictedClass {
		diffs = append(diffs, fmt.Sprintf("predicted_class: got %q want %q", got.PredictedClass, exp.PredictedClass))
	}
	if got.RiskLevel != exp.RiskLevel {
		diffs = append(diffs, fmt.Sprintf("risk_level: got %q want %q", got.RiskLevel, exp.RiskLevel))
	}
	if math.Abs(got.Confidence-exp.Confidence) > floatTolerance {
		diffs = append(diffs, fmt.Sprintf("confidence: got %v want %v", got.Confidence, exp.Confidence))
	}
	if math.Abs(got.RiskScore-exp.RiskScore) > floatTolerance {
		diffs = append(diffs, fmt.Sprintf("risk_score: got %v want %v", got.RiskScore, exp.RiskScore))
	}
	return diffs
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failures++
		case r.Match:
			s.Matches++
		default:
			s.Mismatches++
		}
	}
	return s
}

// #endregion replay
