package interaction

// #region imports
import (
	"errors"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region test-type

// TestType identifies the assessment domain of a submitted record.
type TestType string

const (
	TestReading          TestType = "reading"
	TestWriting          TestType = "writing"
	TestMath             TestType = "math"
	TestMemory           TestType = "memory"
	TestAttention        TestType = "attention"
	TestPhonological     TestType = "phonological"
	TestVisualProcessing TestType = "visual_processing"
)

// ErrUnsupportedTestType is returned by ForType for unknown tags. It
// surfaces at the classification boundary only, never inside processors.
var ErrUnsupportedTestType = errors.New("unsupported test type")

// #endregion test-type

// #region record

// ProblemItem is one math problem as recorded by the test client.
type ProblemItem struct {
	ProblemText   string `json:"problem_text,omitempty"`
	StudentAnswer string `json:"student_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	ErrorType     string `json:"error_type,omitempty"` // "calculation" | "concept" | "procedure"
}

// Record is the structured per-domain interaction log. Each domain reads
// its own fixed key subset; absent fields fall back to safe defaults.
type Record struct {
	// Reading
	TextProvided string  `json:"text_provided,omitempty"`
	TextRead     string  `json:"text_read,omitempty"`
	TimeTaken    float64 `json:"time_taken,omitempty"` // seconds

	// Writing
	Prompt      string `json:"prompt,omitempty"`
	TextWritten string `json:"text_written,omitempty"`

	// Math
	Problems       []string      `json:"problems,omitempty"`
	Answers        []string      `json:"answers,omitempty"`
	CorrectAnswers []string      `json:"correct_answers,omitempty"`
	TimePerProblem []float64     `json:"time_per_problem,omitempty"`
	ProblemItems   []ProblemItem `json:"problem_items,omitempty"`

	// Memory
	ItemsShown    []string `json:"items_shown,omitempty"`
	ItemsRecalled []string `json:"items_recalled,omitempty"`
	RecallOrder   []string `json:"recall_order,omitempty"`
	TimeToRecall  float64  `json:"time_to_recall,omitempty"`

	// Attention
	Targets        []string  `json:"targets,omitempty"`
	Distractors    []string  `json:"distractors,omitempty"`
	Responses      []string  `json:"responses,omitempty"`
	ResponseTimes  []float64 `json:"response_times,omitempty"`
	CorrectTargets int       `json:"correct_targets,omitempty"`
	FalseAlarms    int       `json:"false_alarms,omitempty"`

	// Phonological
	Tasks            []string `json:"tasks,omitempty"`
	StudentResponses []string `json:"student_responses,omitempty"`
	CorrectResponses []string `json:"correct_responses,omitempty"`
	TaskTypes        []string `json:"task_types,omitempty"`

	// Visual processing
	Patterns          []string  `json:"patterns,omitempty"`
	PatternComplexity []float64 `json:"pattern_complexity,omitempty"`
}

// #endregion record

// #region result

// Result bundles score, error count, and the extracted feature set.
type Result struct {
	Score    float64
	Errors   int
	Features *feature.Set
}

// emptyResult is the terminal case for zero-item records: explicit, not an
// error.
func emptyResult() Result {
	return Result{Score: 0, Errors: 0, Features: feature.NewSet()}
}

// #endregion result

// #region processor

// Processor extracts features from one assessment domain.
type Processor interface {
	Type() TestType
	Process(rec Record) Result
}

// processors is the closed dispatch table. Selection happens here once,
// never by string branching at call sites.
var processors = map[TestType]Processor{
	TestReading:          readingProcessor{},
	TestWriting:          writingProcessor{},
	TestMath:             mathProcessor{},
	TestMemory:           memoryProcessor{},
	TestAttention:        attentionProcessor{},
	TestPhonological:     phonologicalProcessor{},
	TestVisualProcessing: visualProcessor{},
}

// ForType returns the processor for a test type tag.
func ForType(t TestType) (Processor, error) {
	p, ok := processors[t]
	if !ok {
		return nil, ErrUnsupportedTestType
	}
	return p, nil
}

// Types returns all supported test types.
func Types() []TestType {
	return []TestType{
		TestReading, TestWriting, TestMath, TestMemory,
		TestAttention, TestPhonological, TestVisualProcessing,
	}
}

// #endregion processor
