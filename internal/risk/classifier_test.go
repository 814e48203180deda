package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/sojwal000/learning-screen/internal/feature"
)

func set(pairs map[string]float64) *feature.Set {
	fs := feature.NewSet()
	for _, k := range []string{
		"accuracy", "reading_speed", "error_rate", "reversed_letters",
		"letter_confusions", "spelling_errors", "grammar_errors",
		"letter_reversals", "inconsistent_spacing", "writing_speed",
		"total_problems", "calculation_errors", "concept_errors",
		"number_reversals",
	} {
		if v, ok := pairs[k]; ok {
			fs.Put(k, v)
		}
	}
	return fs
}

func TestReadingCleanFeaturesAreNone(t *testing.T) {
	a, err := Classify(DomainReading, set(map[string]float64{
		"accuracy": 98, "reading_speed": 130, "error_rate": 2,
		"reversed_letters": 0, "letter_confusions": 0,
	}))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if a.PredictedClass != "none" {
		t.Fatalf("expected none, got %s (score %v)", a.PredictedClass, a.RiskScore)
	}
	if a.RiskLevel != LevelLow {
		t.Fatalf("expected low risk, got %s", a.RiskLevel)
	}
}

func TestReadingSevereProfileIsHigh(t *testing.T) {
	// accuracy<70 (.30) + speed<80 (.25) + error_rate>20 (.20) +
	// reversals>3 (.15) + confusions>3 (.10) = 1.00
	a, err := Classify(DomainReading, set(map[string]float64{
		"accuracy": 50, "reading_speed": 40, "error_rate": 50,
		"reversed_letters": 5, "letter_confusions": 4,
	}))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if a.PredictedClass != "dyslexia" {
		t.Fatalf("expected dyslexia, got %s", a.PredictedClass)
	}
	if a.RiskLevel != LevelHigh {
		t.Fatalf("expected high, got %s", a.RiskLevel)
	}
	if a.RiskScore != 1.0 {
		t.Fatalf("expected risk score 1.0, got %v", a.RiskScore)
	}
	if a.Confidence != 0.95 {
		t.Fatalf("confidence must cap at 0.95, got %v", a.Confidence)
	}
}

func TestFirstMatchingTierWins(t *testing.T) {
	// accuracy 65 is below both 70 and 85; only the 0.30 tier may fire.
	a, err := Classify(DomainReading, set(map[string]float64{
		"accuracy": 65, "reading_speed": 130, "error_rate": 0,
		"reversed_letters": 0, "letter_confusions": 0,
	}))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if a.RiskScore != 0.30 {
		t.Fatalf("expected exactly 0.30, got %v", a.RiskScore)
	}
}

func TestSecondTierFiresAlone(t *testing.T) {
	// accuracy 80: not <70, but <85 -> 0.15 only.
	a, _ := Classify(DomainReading, set(map[string]float64{
		"accuracy": 80, "reading_speed": 130, "error_rate": 0,
		"reversed_letters": 0, "letter_confusions": 0,
	}))
	if a.RiskScore != 0.15 {
		t.Fatalf("expected exactly 0.15, got %v", a.RiskScore)
	}
}

func TestMissingKeysUseNeutralDefaults(t *testing.T) {
	// Empty set: accuracy defaults 100, speeds default 100, counts 0.
	// Only reading_speed<120 fires (0.15).
	a, _ := Classify(DomainReading, feature.NewSet())
	if a.RiskScore != 0.15 {
		t.Fatalf("expected 0.15 from speed default, got %v", a.RiskScore)
	}
	if a.PredictedClass != "none" {
		t.Fatalf("expected none below 0.2, got %s", a.PredictedClass)
	}
}

func TestWritingThresholds(t *testing.T) {
	// accuracy<60 (.30) + spelling>5 (.25) + grammar>4 (.15) +
	// reversals>2 (.15) + spacing>0 (.10) + speed<40 (.15) = 1.10
	a, err := Classify(DomainWriting, set(map[string]float64{
		"accuracy": 40, "spelling_errors": 8, "grammar_errors": 5,
		"letter_reversals": 3, "inconsistent_spacing": 1, "writing_speed": 20,
	}))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if a.PredictedClass != "dysgraphia" || a.RiskLevel != LevelHigh {
		t.Fatalf("expected high dysgraphia, got %s/%s", a.PredictedClass, a.RiskLevel)
	}
	if math.Abs(a.RiskScore-1.10) > 1e-9 {
		t.Fatalf("expected 1.10, got %v", a.RiskScore)
	}
}

func TestMathRatesDerivedFromCounts(t *testing.T) {
	// 5 calc errors over 10 problems = 50% > 40 -> 0.25; 2 concept errors
	// = 20% > 15 -> 0.10; accuracy 30 < 60 -> 0.35; reversals 1 > 0 -> 0.08.
	a, err := Classify(DomainMath, set(map[string]float64{
		"accuracy": 30, "total_problems": 10,
		"calculation_errors": 5, "concept_errors": 2, "number_reversals": 1,
	}))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if math.Abs(a.RiskScore-0.78) > 1e-9 {
		t.Fatalf("expected 0.78, got %v", a.RiskScore)
	}
	if a.PredictedClass != "dyscalculia" || a.RiskLevel != LevelHigh {
		t.Fatalf("expected high dyscalculia, got %s/%s", a.PredictedClass, a.RiskLevel)
	}
}

func TestMathRatesDefaultTotalProblems(t *testing.T) {
	// Without total_problems the divisor defaults to 10.
	fs := feature.NewSet()
	fs.Put("accuracy", 90)
	fs.Put("calculation_errors", 5) // 50% with default total
	a, _ := Classify(DomainMath, fs)
	if a.RiskScore != 0.25 {
		t.Fatalf("expected 0.25 from derived calc rate, got %v", a.RiskScore)
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	fs := feature.NewSet()
	fs.Put("accuracy", 50)
	fs.Put("calculation_errors", 5)
	before := fs.Len()
	if _, err := Classify(DomainMath, fs); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if fs.Len() != before || fs.Has("calc_error_rate") {
		t.Fatal("input feature set was mutated")
	}
}

func TestUnsupportedDomain(t *testing.T) {
	if _, err := Classify(Domain("memory"), feature.NewSet()); !errors.Is(err, ErrUnsupportedDomain) {
		t.Fatalf("expected ErrUnsupportedDomain, got %v", err)
	}
}

func TestFromScoreTiers(t *testing.T) {
	cases := []struct {
		score      float64
		class      string
		level      Level
		confidence float64
	}{
		{0.0, "none", LevelLow, 0},
		{0.19, "none", LevelLow, 0.228},
		{0.2, "dyslexia", LevelLow, 0.24},
		{0.35, "dyslexia", LevelMedium, 0.42},
		{0.59, "dyslexia", LevelMedium, 0.708},
		{0.6, "dyslexia", LevelHigh, 0.72},
		{1.0, "dyslexia", LevelHigh, 0.95},
	}
	for _, c := range cases {
		a := FromScore(DomainReading, c.score)
		if a.PredictedClass != c.class || a.RiskLevel != c.level {
			t.Errorf("score %v: got %s/%s, want %s/%s",
				c.score, a.PredictedClass, a.RiskLevel, c.class, c.level)
		}
		if math.Abs(a.Confidence-c.confidence) > 1e-9 {
			t.Errorf("score %v: confidence %v, want %v", c.score, a.Confidence, c.confidence)
		}
	}
}

func TestRiskScoreMonotonicInSeverity(t *testing.T) {
	mild, _ := Classify(DomainReading, set(map[string]float64{
		"accuracy": 84, "reading_speed": 119, "error_rate": 5,
	}))
	severe, _ := Classify(DomainReading, set(map[string]float64{
		"accuracy": 50, "reading_speed": 40, "error_rate": 30,
		"reversed_letters": 4, "letter_confusions": 4,
	}))
	if severe.RiskScore <= mild.RiskScore {
		t.Fatalf("severity must not lower the score: mild=%v severe=%v",
			mild.RiskScore, severe.RiskScore)
	}
}
