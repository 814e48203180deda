// Package feedback derives explainable per-domain observations from a
// feature set and the raw interaction record. Generation is pure: every
// lookup has a numeric or empty default, and missing keys never fault.
package feedback

// #region imports
import (
	"fmt"
	"strings"

	"github.com/sojwal000/learning-screen/internal/feature"
	"github.com/sojwal000/learning-screen/internal/interaction"
)

// #endregion

// #region bundle

// Bundle groups the observations for one submission.
type Bundle struct {
	Errors   []string `json:"errors"`
	Skipped  []string `json:"skipped"`
	Concerns []string `json:"concerns"`
}

// #endregion bundle

// #region dispatch

// ForDomain generates feedback for a test type. Unknown types get the
// generic bundle rather than an error.
func ForDomain(t interaction.TestType, fs *feature.Set, rec interaction.Record) Bundle {
	switch t {
	case interaction.TestReading:
		return readingFeedback(fs)
	case interaction.TestWriting:
		return writingFeedback(fs, rec)
	case interaction.TestMath:
		return mathFeedback(fs, rec)
	case interaction.TestMemory:
		return memoryFeedback(fs)
	case interaction.TestAttention:
		return attentionFeedback(fs)
	case interaction.TestPhonological:
		return phonologicalFeedback(fs)
	case interaction.TestVisualProcessing:
		return visualFeedback(fs)
	}
	return Generic()
}

// Generic is the fallback bundle for unrecognized test types.
func Generic() Bundle {
	return Bundle{
		Concerns: []string{"Test type not recognized; results were recorded without domain-specific analysis"},
	}
}

// #endregion dispatch

// #region reading

func readingFeedback(fs *feature.Set) Bundle {
	var b Bundle
	if n := fs.GetOr("substitutions", 0); n > 0 {
		b.Errors = append(b.Errors, fmt.Sprintf("Substituted %d word(s) while reading", int(n)))
	}
	if n := fs.GetOr("additions", 0); n > 0 {
		b.Errors = append(b.Errors, fmt.Sprintf("Added %d word(s) not in the passage", int(n)))
	}
	if n := fs.GetOr("reversed_letters", 0); n > 0 {
		b.Errors = append(b.Errors, fmt.Sprintf("Reversed letter shapes (b/d, p/q) %d time(s)", int(n)))
	}
	if n := fs.GetOr("letter_confusions", 0); n > 0 {
		b.Errors = append(b.Errors, fmt.Sprintf("Confused similar letters %d time(s)", int(n)))
	}
	if n := fs.GetOr("omissions", 0); n > 0 {
		b.Skipped = append(b.Skipped, fmt.Sprintf("Skipped %d word(s) from the passage", int(n)))
	}
	if speed := fs.GetOr("reading_speed", 100); speed < 80 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Reading speed of %.0f words per minute is below the expected range", speed))
	}
	if acc := fs.GetOr("accuracy", 100); acc < 85 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Reading accuracy of %.0f%% is below the expected range", acc))
	}
	return b
}

// #endregion reading

// #region writing

func writingFeedback(fs *feature.Set, rec interaction.Record) Bundle {
	var b Bundle
	if n := fs.GetOr("spelling_errors", 0); n > 0 {
		b.Errors = append(b.Errors, fmt.Sprintf("Made %d spelling error(s)", int(n)))
	}
	if n := fs.GetOr("grammar_errors", 0); n > 0 {
		b.Errors = append(b.Errors, fmt.Sprintf("Grammar issues detected (%d)", int(n)))
	}
	if n := fs.GetOr("capitalization_errors", 0); n > 0 {
		b.Errors = append(b.Errors, fmt.Sprintf("Started %d sentence(s) without a capital letter", int(n)))
	}
	if n := fs.GetOr("punctuation_errors", 0); n > 0 {
		b.Errors = append(b.Errors, "Writing does not end with punctuation")
	}
	if n := fs.GetOr("letter_reversals", 0); n > 0 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Letter reversal patterns appeared %d time(s)", int(n)))
	}
	if fs.GetOr("inconsistent_spacing", 0) > 0 {
		b.Concerns = append(b.Concerns, "Spacing between words is inconsistent")
	}

	// Compare the written text against the prompt: trailing prompt words
	// the student never wrote are reported verbatim.
	promptWords := strings.Fields(rec.Prompt)
	writtenWords := strings.Fields(rec.TextWritten)
	if len(promptWords) > 0 {
		if len(writtenWords) < len(promptWords) {
			missing := strings.Join(promptWords[len(writtenWords):], " ")
			b.Skipped = append(b.Skipped, fmt.Sprintf("Did not write: %q", truncate(missing, 60)))
		}
		pct := int(float64(len(writtenWords)) / float64(len(promptWords)) * 100)
		b.Concerns = append(b.Concerns, fmt.Sprintf("Completed %d out of %d words (%d%%)",
			len(writtenWords), len(promptWords), pct))
	}
	return b
}

// #endregion writing

// #region math

func mathFeedback(fs *feature.Set, rec interaction.Record) Bundle {
	var b Bundle
	for _, item := range rec.ProblemItems {
		if item.IsCorrect {
			continue
		}
		if strings.TrimSpace(item.StudentAnswer) == "" {
			b.Skipped = append(b.Skipped, fmt.Sprintf("Skipped problem: %q", truncate(item.ProblemText, 60)))
		} else if item.ProblemText != "" {
			b.Errors = append(b.Errors, fmt.Sprintf("Incorrect answer for: %q", truncate(item.ProblemText, 60)))
		}
	}
	for i, problem := range rec.Problems {
		if i < len(rec.Answers) && strings.TrimSpace(rec.Answers[i]) == "" {
			b.Skipped = append(b.Skipped, fmt.Sprintf("Skipped problem: %q", truncate(problem, 60)))
		}
	}
	if n := fs.GetOr("sign_errors", 0); n > 0 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Answered with the wrong sign %d time(s)", int(n)))
	}
	if n := fs.GetOr("place_value_errors", 0); n > 0 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Place-value errors appeared %d time(s)", int(n)))
	}
	if n := fs.GetOr("number_reversals", 0); n > 0 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Wrote digits in reversed order %d time(s)", int(n)))
	}
	if acc := fs.GetOr("accuracy", 100); acc < 75 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Math accuracy of %.0f%% is below the expected range", acc))
	}
	return b
}

// #endregion math

// #region other-domains

func memoryFeedback(fs *feature.Set) Bundle {
	var b Bundle
	if n := fs.GetOr("false_recalls", 0); n > 0 {
		b.Errors = append(b.Errors, fmt.Sprintf("Recalled %d item(s) that were never shown", int(n)))
	}
	if acc := fs.GetOr("recall_accuracy", 100); acc < 60 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Recall accuracy of %.0f%% is below the expected range", acc))
	}
	if acc := fs.GetOr("order_accuracy", 100); acc < 50 {
		b.Concerns = append(b.Concerns, "Difficulty recalling items in their presented order")
	}
	return b
}

func attentionFeedback(fs *feature.Set) Bundle {
	var b Bundle
	if fa := fs.GetOr("false_alarm_rate", 0); fa > 0.3 {
		b.Errors = append(b.Errors, "Responded to distractors at a high rate")
	}
	if d := fs.GetOr("d_prime", 3); d < 1 {
		b.Concerns = append(b.Concerns, "Low sensitivity separating targets from distractors")
	}
	if fs.GetOr("fatigue_effect", 0) > 0.5 {
		b.Concerns = append(b.Concerns, "Responses slowed noticeably in the second half of the task")
	}
	if c := fs.GetOr("response_consistency", 1); c < 0.5 {
		b.Concerns = append(b.Concerns, "Response times varied widely across the task")
	}
	return b
}

func phonologicalFeedback(fs *feature.Set) Bundle {
	var b Bundle
	checks := []struct {
		key, label string
	}{
		{"rhyming_accuracy", "rhyming"},
		{"segmentation_accuracy", "segmentation"},
		{"blending_accuracy", "blending"},
		{"manipulation_accuracy", "manipulation"},
	}
	for _, c := range checks {
		if acc := fs.GetOr(c.key, 100); acc < 60 {
			b.Concerns = append(b.Concerns, fmt.Sprintf("Difficulty with %s tasks (%.0f%% accuracy)", c.label, acc))
		}
	}
	if acc := fs.GetOr("overall_accuracy", 100); acc < 70 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Overall phonological accuracy of %.0f%% is below the expected range", acc))
	}
	return b
}

func visualFeedback(fs *feature.Set) Bundle {
	var b Bundle
	simple := fs.GetOr("simple_pattern_accuracy", 100)
	complexAcc := fs.GetOr("complex_pattern_accuracy", 100)
	if simple-complexAcc > 30 {
		b.Concerns = append(b.Concerns, "Accuracy drops sharply on complex patterns")
	}
	if acc := fs.GetOr("overall_accuracy", 100); acc < 70 {
		b.Concerns = append(b.Concerns, fmt.Sprintf("Visual pattern accuracy of %.0f%% is below the expected range", acc))
	}
	return b
}

// #endregion other-domains

// #region helpers

// truncate shortens s to limit characters, appending an ellipsis when
// anything was cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// #endregion helpers
