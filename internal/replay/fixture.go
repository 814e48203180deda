// Package replay re-runs recorded submissions through the full pipeline
// and checks the classifications against the outcomes recorded in the
// fixture. The pipeline is deterministic, so any drift is a behavior
// change.
package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sojwal000/learning-screen/internal/engine"
	"github.com/sojwal000/learning-screen/internal/interaction"
	"github.com/sojwal000/learning-screen/internal/risk"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Strict          bool                    `json:"strict"`
	Submissions     []FixtureSubmission     `json:"submissions"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureSubmission mirrors engine.Submission with JSON tags. Audio
// clips are not replayed; fixtures carry interaction records and
// optional handwriting image paths only.
type FixtureSubmission struct {
	ID         string             `json:"id"`
	StudentRef string             `json:"student_ref,omitempty"`
	TestType   string             `json:"test_type"`
	Record     interaction.Record `json:"record"`
	ImagePath  string             `json:"image_path,omitempty"`
}

// FixtureExpectedResult captures the expected classification per
// submission.
type FixtureExpectedResult struct {
	SubmissionID   string  `json:"submission_id"`
	PredictedClass string  `json:"predicted_class"`
	RiskLevel      string  `json:"risk_level"`
	Confidence     float64 `json:"confidence"`
	RiskScore      float64 `json:"risk_score"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToSubmission converts a FixtureSubmission to a domain Submission.
func (fs *FixtureSubmission) ToSubmission() engine.Submission {
	return engine.Submission{
		ID:         fs.ID,
		StudentRef: fs.StudentRef,
		TestType:   interaction.TestType(fs.TestType),
		Record:     fs.Record,
		ImagePath:  fs.ImagePath,
	}
}

// ToExpected converts a FixtureExpectedResult to a domain Expected.
func (fe *FixtureExpectedResult) ToExpected() Expected {
	return Expected{
		SubmissionID:   fe.SubmissionID,
		PredictedClass: fe.PredictedClass,
		RiskLevel:      risk.Level(fe.RiskLevel),
		Confidence:     fe.Confidence,
		RiskScore:      fe.RiskScore,
	}
}

// #endregion fixture-loader
