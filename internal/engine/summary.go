package engine

// #region imports
import (
	"fmt"
	"math"
	"strings"

	"github.com/sojwal000/learning-screen/internal/risk"
)

// #endregion

// #region types

// CategoryIndicator aggregates one detected category across a student's
// classifications.
type CategoryIndicator struct {
	Category      string     `json:"category"`
	Occurrences   int        `json:"occurrences"`
	AvgConfidence float64    `json:"avg_confidence"`
	RiskLevel     risk.Level `json:"risk_level"`
	Description   string     `json:"description"`
}

// Summary is the structured multi-test report for one student.
type Summary struct {
	Classification  string              `json:"classification"`
	RiskScore       float64             `json:"risk_score"`
	Indicators      []CategoryIndicator `json:"indicators"`
	Recommendations []string            `json:"recommendations"`
}

// #endregion types

// #region summarize

var summaryCategories = []string{"dyslexia", "dysgraphia", "dyscalculia"}

var riskOrder = map[risk.Level]int{risk.LevelLow: 1, risk.LevelMedium: 2, risk.LevelHigh: 3}

// Summarize aggregates classifications into the per-category report:
// occurrence counts, mean confidence, highest observed risk level, and
// recommendation text. Category order is fixed so the output is
// deterministic.
func Summarize(classifications []Classification) Summary {
	if len(classifications) == 0 {
		return Summary{Classification: "No assessment"}
	}

	counts := make(map[string]int)
	confidences := make(map[string][]float64)
	levels := make(map[string]risk.Level)
	for _, c := range summaryCategories {
		levels[c] = risk.LevelLow
	}

	for _, cls := range classifications {
		cat := cls.PredictedClass
		if _, known := levels[cat]; !known {
			continue
		}
		counts[cat]++
		confidences[cat] = append(confidences[cat], cls.Confidence)
		if riskOrder[cls.RiskLevel] > riskOrder[levels[cat]] {
			levels[cat] = cls.RiskLevel
		}
	}

	var detected []string
	for _, cat := range summaryCategories {
		if counts[cat] > 0 {
			detected = append(detected, cat)
		}
	}

	s := Summary{}
	switch len(detected) {
	case 0:
		s.Classification = "No learning disability detected"
	case 1:
		s.Classification = capitalize(detected[0])
		s.RiskScore = round3(mean(confidences[detected[0]]))
	default:
		parts := make([]string, len(detected))
		var all []float64
		for i, cat := range detected {
			parts[i] = capitalize(cat)
			all = append(all, confidences[cat]...)
		}
		s.Classification = "Multiple indicators: " + strings.Join(parts, ", ")
		s.RiskScore = round3(mean(all))
	}

	for _, cat := range detected {
		s.Indicators = append(s.Indicators, CategoryIndicator{
			Category:      cat,
			Occurrences:   counts[cat],
			AvgConfidence: round3(mean(confidences[cat])),
			RiskLevel:     levels[cat],
			Description:   categoryDescription(cat, levels[cat]),
		})
	}
	s.Recommendations = recommendations(s.Indicators)
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// #endregion summarize

// #region descriptions

var categoryDescriptions = map[string]map[risk.Level]string{
	"dyslexia": {
		risk.LevelLow:    "Mild reading difficulties observed",
		risk.LevelMedium: "Moderate reading and word recognition challenges",
		risk.LevelHigh:   "Significant difficulties with reading, spelling, and phonological processing",
	},
	"dysgraphia": {
		risk.LevelLow:    "Minor writing coordination issues",
		risk.LevelMedium: "Notable challenges with handwriting and written expression",
		risk.LevelHigh:   "Severe difficulties with writing, spelling, and fine motor coordination",
	},
	"dyscalculia": {
		risk.LevelLow:    "Some difficulty with basic math concepts",
		risk.LevelMedium: "Moderate challenges with numerical operations and math reasoning",
		risk.LevelHigh:   "Significant struggles with number sense, calculations, and math concepts",
	},
}

func categoryDescription(category string, level risk.Level) string {
	if d, ok := categoryDescriptions[category][level]; ok {
		return d
	}
	return "Indicators detected"
}

// #endregion descriptions

// #region recommendations

// recommendations renders the support guidance blocks for the detected
// categories.
func recommendations(indicators []CategoryIndicator) []string {
	out := []string{
		"**General Recommendations:**",
		"- Schedule a comprehensive evaluation with a learning specialist",
		"- Consider one-on-one tutoring in areas of difficulty",
		"- Provide additional time for completing tasks",
		"",
	}

	for _, ind := range indicators {
		out = append(out, fmt.Sprintf("**%s Support:**", capitalize(ind.Category)))
		elevated := ind.RiskLevel == risk.LevelMedium || ind.RiskLevel == risk.LevelHigh

		switch ind.Category {
		case "dyslexia":
			out = append(out,
				"- Implement multisensory reading programs (e.g., Orton-Gillingham)",
				"- Use audiobooks and text-to-speech technology",
				"- Practice phonemic awareness exercises",
				"- Break reading tasks into smaller segments",
			)
			if elevated {
				out = append(out,
					"- Consider specialized dyslexia intervention programs",
					"- Use colored overlays or specialized fonts",
				)
			}
		case "dysgraphia":
			out = append(out,
				"- Allow use of computers for written work",
				"- Provide graph paper for math and writing alignment",
				"- Practice fine motor skills and occupational therapy",
				"- Accept oral responses in place of written work when appropriate",
			)
			if elevated {
				out = append(out,
					"- Use speech-to-text software",
					"- Reduce writing requirements, focus on quality over quantity",
				)
			}
		case "dyscalculia":
			out = append(out,
				"- Use manipulatives and visual aids for math concepts",
				"- Allow use of calculators for complex operations",
				"- Break down math problems into step-by-step procedures",
				"- Provide extra practice with number lines and counting",
			)
			if elevated {
				out = append(out,
					"- Work with a math specialist or tutor",
					"- Use concrete examples to teach abstract concepts",
				)
			}
		}
		out = append(out, "")
	}

	out = append(out,
		"**Classroom Accommodations:**",
		"- Preferential seating near the teacher",
		"- Extended time on tests and assignments",
		"- Provide written instructions along with verbal",
		"- Allow breaks during longer tasks",
		"- Use positive reinforcement and encouragement",
	)
	return out
}

// #endregion recommendations
