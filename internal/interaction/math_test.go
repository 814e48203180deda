package interaction

import "testing"

func TestMathItemsPathTaxonomy(t *testing.T) {
	res := mustProcess(t, TestMath, Record{
		ProblemItems: []ProblemItem{
			{ProblemText: "3 + 4", StudentAnswer: "7", CorrectAnswer: "7", IsCorrect: true},
			{ProblemText: "5 - 8", StudentAnswer: "3", CorrectAnswer: "-3"},
			{ProblemText: "6 x 2", StudentAnswer: "120", CorrectAnswer: "12"},
			{ProblemText: "3 x 4", StudentAnswer: "21", CorrectAnswer: "12"},
			{ProblemText: "1/2 + 1/2", StudentAnswer: "2", CorrectAnswer: "1", ErrorType: "concept"},
		},
		TimeTaken: 50,
	})

	if got := featVal(t, res, "accuracy"); got != 20 {
		t.Fatalf("accuracy: expected 20, got %v", got)
	}
	if got := featVal(t, res, "sign_errors"); got != 1 {
		t.Fatalf("sign_errors: expected 1, got %v", got)
	}
	if got := featVal(t, res, "place_value_errors"); got != 1 {
		t.Fatalf("place_value_errors: expected 1, got %v", got)
	}
	if got := featVal(t, res, "concept_errors"); got != 1 {
		t.Fatalf("concept_errors: expected 1, got %v", got)
	}
	if got := featVal(t, res, "calculation_errors"); got != 1 {
		t.Fatalf("calculation_errors: expected 1 (21 for 12), got %v", got)
	}
	// Two reversals: 21 for 12, and 3 for -3 (sign-stripped digits match
	// their own reversal).
	if got := featVal(t, res, "number_reversals"); got != 2 {
		t.Fatalf("number_reversals: expected 2, got %v", got)
	}
	if got := featVal(t, res, "avg_time_per_problem"); got != 10 {
		t.Fatalf("avg_time_per_problem: expected 10, got %v", got)
	}
}

func TestMathArrayPath(t *testing.T) {
	res := mustProcess(t, TestMath, Record{
		Problems:       []string{"2+2", "3+3", "10-5"},
		Answers:        []string{"4", "7", "5"},
		CorrectAnswers: []string{"4", "6", "5"},
		TimePerProblem: []float64{5, 5, 5},
	})
	if got := featVal(t, res, "correct_answers"); got != 2 {
		t.Fatalf("correct_answers: expected 2, got %v", got)
	}
	if got := featVal(t, res, "accuracy"); got != 66.67 {
		t.Fatalf("accuracy: expected 66.67, got %v", got)
	}
	if got := featVal(t, res, "time_consistency"); got != 1 {
		t.Fatalf("time_consistency: expected 1 for uniform times, got %v", got)
	}
	if got := featVal(t, res, "completion_rate"); got != 1 {
		t.Fatalf("completion_rate: expected 1, got %v", got)
	}
}

func TestMathPartialAnswersCountAsErrors(t *testing.T) {
	res := mustProcess(t, TestMath, Record{
		Problems:       []string{"1+1", "2+2", "3+3", "4+4"},
		Answers:        []string{"2"},
		CorrectAnswers: []string{"2", "4", "6", "8"},
	})
	if got := featVal(t, res, "accuracy"); got != 25 {
		t.Fatalf("accuracy: expected 25, got %v", got)
	}
	if got := featVal(t, res, "completion_rate"); got != 0.25 {
		t.Fatalf("completion_rate: expected 0.25, got %v", got)
	}
	if res.Errors != 3 {
		t.Fatalf("errors: expected 3, got %d", res.Errors)
	}
}

func TestMathZeroProblemsIsEmptyResult(t *testing.T) {
	res := mustProcess(t, TestMath, Record{})
	if res.Score != 0 || res.Errors != 0 || res.Features.Len() != 0 {
		t.Fatalf("expected empty result, got score=%v errors=%d", res.Score, res.Errors)
	}
}

func TestNumberReversalDetection(t *testing.T) {
	cases := []struct {
		student, correct string
		want             bool
	}{
		{"21", "12", true},
		{"12", "12", false},
		{"123", "321", true},
		{"13", "12", false},
		{"7", "7", true}, // single digit is its own reversal
		{"", "12", false},
	}
	for _, c := range cases {
		if got := isNumberReversal(c.student, c.correct); got != c.want {
			t.Errorf("isNumberReversal(%q, %q) = %v, want %v", c.student, c.correct, got, c.want)
		}
	}
}

func TestAnswerErrorTaxonomy(t *testing.T) {
	cases := []struct {
		student, correct, want string
	}{
		{"-7", "7", "sign"},
		{"70", "7", "place_value"},
		{"0.7", "7", "place_value"},
		{"8", "7", "calculation"},
		{"abc", "7", "calculation"},
		// Zero has no sign; an inconsistent zero-for-zero record lands on
		// place_value rather than sign.
		{"0", "0", "place_value"},
	}
	for _, c := range cases {
		if got := classifyAnswerError(c.student, c.correct); got != c.want {
			t.Errorf("classifyAnswerError(%q, %q) = %q, want %q", c.student, c.correct, got, c.want)
		}
	}
}
