package risk

// #region imports
import (
	"math"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region rule-tables

// tier compares one feature value against a threshold and contributes a
// fixed weight when it fires. Tiers within an indicator are exclusive:
// the first match wins. Indicators accumulate independently; there is no
// early exit.
type tier struct {
	below     bool // true: fire when value < threshold; false: value > threshold
	threshold float64
	weight    float64
}

// indicator is one weighted feature check with up to two tiers.
type indicator struct {
	key   string
	def   float64
	tiers []tier
}

// The threshold and weight constants below are fixed empirical values.
// They have no documented clinical derivation and are not validated
// diagnostic criteria.

var readingIndicators = []indicator{
	{key: "accuracy", def: 100, tiers: []tier{{below: true, threshold: 70, weight: 0.30}, {below: true, threshold: 85, weight: 0.15}}},
	{key: "reading_speed", def: 100, tiers: []tier{{below: true, threshold: 80, weight: 0.25}, {below: true, threshold: 120, weight: 0.15}}},
	{key: "error_rate", def: 0, tiers: []tier{{threshold: 20, weight: 0.20}, {threshold: 10, weight: 0.10}}},
	{key: "reversed_letters", def: 0, tiers: []tier{{threshold: 3, weight: 0.15}, {threshold: 0, weight: 0.05}}},
	{key: "letter_confusions", def: 0, tiers: []tier{{threshold: 3, weight: 0.10}}},
}

var writingIndicators = []indicator{
	{key: "accuracy", def: 100, tiers: []tier{{below: true, threshold: 60, weight: 0.30}, {below: true, threshold: 75, weight: 0.15}}},
	{key: "spelling_errors", def: 0, tiers: []tier{{threshold: 5, weight: 0.25}, {threshold: 2, weight: 0.10}}},
	{key: "grammar_errors", def: 0, tiers: []tier{{threshold: 4, weight: 0.15}, {threshold: 2, weight: 0.08}}},
	{key: "letter_reversals", def: 0, tiers: []tier{{threshold: 2, weight: 0.15}}},
	{key: "inconsistent_spacing", def: 0, tiers: []tier{{threshold: 0, weight: 0.10}}},
	{key: "writing_speed", def: 100, tiers: []tier{{below: true, threshold: 40, weight: 0.15}}},
}

var mathIndicators = []indicator{
	{key: "accuracy", def: 100, tiers: []tier{{below: true, threshold: 60, weight: 0.35}, {below: true, threshold: 75, weight: 0.20}}},
	{key: "calc_error_rate", def: 0, tiers: []tier{{threshold: 40, weight: 0.25}, {threshold: 20, weight: 0.12}}},
	{key: "concept_error_rate", def: 0, tiers: []tier{{threshold: 30, weight: 0.20}, {threshold: 15, weight: 0.10}}},
	{key: "number_reversals", def: 0, tiers: []tier{{threshold: 2, weight: 0.15}, {threshold: 0, weight: 0.08}}},
}

var domainIndicators = map[Domain][]indicator{
	DomainReading: readingIndicators,
	DomainWriting: writingIndicators,
	DomainMath:    mathIndicators,
}

// #endregion rule-tables

// #region classify

// Classify maps a domain feature set to a class, confidence, and risk
// tier via the additive weighted rule system. A trained model may replace
// the scoring function but never this tier/confidence output shape; this
// path is the permanent fallback.
func Classify(domain Domain, fs *feature.Set) (Assessment, error) {
	indicators, ok := domainIndicators[domain]
	if !ok {
		return Assessment{}, ErrUnsupportedDomain
	}

	lookup := fs
	if domain == DomainMath {
		lookup = withMathRates(fs)
	}

	score := 0.0
	for _, ind := range indicators {
		value := lookup.GetOr(ind.key, ind.def)
		for _, t := range ind.tiers {
			fired := false
			if t.below {
				fired = value < t.threshold
			} else {
				fired = value > t.threshold
			}
			if fired {
				score += t.weight
				break
			}
		}
	}

	return FromScore(domain, score), nil
}

// FromScore converts an accumulated risk score to the classification
// contract: tier thresholds at 0.6 / 0.35 / 0.2 and
// confidence = min(1.2 x score, 0.95).
func FromScore(domain Domain, score float64) Assessment {
	class := disorderClass[domain]
	a := Assessment{RiskScore: score}
	switch {
	case score >= 0.6:
		a.PredictedClass = class
		a.RiskLevel = LevelHigh
	case score >= 0.35:
		a.PredictedClass = class
		a.RiskLevel = LevelMedium
	case score >= 0.2:
		a.PredictedClass = class
		a.RiskLevel = LevelLow
	default:
		a.PredictedClass = "none"
		a.RiskLevel = LevelLow
	}
	a.Confidence = round3(math.Min(score*1.2, 0.95))
	return a
}

// #endregion classify

// #region math-rates

// withMathRates derives calc_error_rate and concept_error_rate from raw
// error counts over the problem total. The total defaults to 10 when the
// extractor did not record one.
func withMathRates(fs *feature.Set) *feature.Set {
	total := fs.GetOr("total_problems", 10)
	if total < 1 {
		total = 1
	}
	derived := fs.Clone()
	derived.Put("calc_error_rate", fs.GetOr("calculation_errors", 0)/total*100)
	derived.Put("concept_error_rate", fs.GetOr("concept_errors", 0)/total*100)
	return derived
}

// #endregion math-rates

// #region helpers

// DomainFor maps a test-type tag to its risk domain; ok is false for
// types without a rule table.
func DomainFor(testType string) (Domain, bool) {
	switch Domain(testType) {
	case DomainReading, DomainWriting, DomainMath:
		return Domain(testType), true
	}
	return "", false
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// #endregion helpers
