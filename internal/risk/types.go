package risk

import "errors"

// #region level

// Level is the tiered risk assignment for a classification.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// #endregion level

// #region domain

// Domain maps a screened test type to the learning difference it
// indicates.
type Domain string

const (
	DomainReading Domain = "reading"
	DomainWriting Domain = "writing"
	DomainMath    Domain = "math"
)

// disorderClass names the positive class per domain.
var disorderClass = map[Domain]string{
	DomainReading: "dyslexia",
	DomainWriting: "dysgraphia",
	DomainMath:    "dyscalculia",
}

// ErrUnsupportedDomain is returned when no rule table exists for a
// domain tag.
var ErrUnsupportedDomain = errors.New("unsupported risk domain")

// #endregion domain

// #region assessment

// Assessment is the rule-system output for one feature set.
type Assessment struct {
	PredictedClass string
	Confidence     float64
	RiskLevel      Level
	RiskScore      float64
}

// #endregion assessment
