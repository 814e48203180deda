package interaction

// #region imports
import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region patterns

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	punctNoSpace  = regexp.MustCompile(`[.!?,][a-zA-Z]`)
	spaceRuns     = regexp.MustCompile(` +`)
)

// hasRepeatedLetters reports whether s contains a run of 4 or more
// identical characters. Go's RE2 regexp has no backreferences, so the
// equivalent of `(.)\1{3,}` is checked directly.
func hasRepeatedLetters(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= 4 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// #endregion patterns

// #region writing-processor

// writingProcessor scores a free-writing sample with heuristic error
// tallies.
type writingProcessor struct{}

func (writingProcessor) Type() TestType { return TestWriting }

func (writingProcessor) Process(rec Record) Result {
	text := rec.TextWritten
	if strings.TrimSpace(text) == "" && strings.TrimSpace(rec.Prompt) == "" {
		return emptyResult()
	}

	wordCount := len(strings.Fields(text))
	charCount := len(text)
	sentenceCount := len(sentenceSplit.Split(text, -1)) - 1

	writingSpeed := 0.0
	if rec.TimeTaken > 0 {
		writingSpeed = float64(wordCount) / rec.TimeTaken * 60
	}

	spelling := countSpellingErrors(text)
	grammar := countGrammarErrors(text)
	capitalization := countCapitalizationErrors(text)
	punctuation := countPunctuationErrors(text)
	totalErrors := spelling + grammar + capitalization + punctuation

	denom := float64(wordCount)
	if denom < 1 {
		denom = 1
	}
	errorRate := float64(totalErrors) / denom * 100
	accuracy := 100 - errorRate
	if accuracy < 0 {
		accuracy = 0
	}

	// Reversal detection needs the intended text; with only the written
	// sample available the comparator runs against itself.
	reversals := countReversedLetters(text, text)
	spacing := analyzeSpacing(text)

	fs := feature.NewSet()
	fs.Put("word_count", float64(wordCount))
	fs.Put("char_count", float64(charCount))
	fs.Put("sentence_count", float64(sentenceCount))
	fs.Put("writing_speed", round2(writingSpeed))
	fs.Put("spelling_errors", float64(spelling))
	fs.Put("grammar_errors", float64(grammar))
	fs.Put("capitalization_errors", float64(capitalization))
	fs.Put("punctuation_errors", float64(punctuation))
	fs.Put("errors", float64(totalErrors))
	fs.Put("error_rate", round2(errorRate))
	fs.Put("accuracy", round2(accuracy))
	fs.Put("score", round2(accuracy))
	fs.Put("letter_reversals", float64(reversals))
	fs.Put("inconsistent_spacing", float64(spacing))
	fs.Put("time_taken", rec.TimeTaken)

	return Result{Score: round2(accuracy), Errors: totalErrors, Features: fs}
}

// #endregion writing-processor

// #region error-heuristics

// countSpellingErrors flags words containing a run of 4+ identical
// characters.
func countSpellingErrors(text string) int {
	errors := 0
	for _, word := range strings.Fields(text) {
		if hasRepeatedLetters(word) {
			errors++
		}
	}
	return errors
}

// countGrammarErrors checks two binary conditions: a missing space after
// punctuation, and a double space anywhere. Each adds at most one.
func countGrammarErrors(text string) int {
	errors := 0
	if punctNoSpace.MatchString(text) {
		errors++
	}
	if strings.Contains(text, "  ") {
		errors++
	}
	return errors
}

// countCapitalizationErrors counts sentences that do not start uppercase.
func countCapitalizationErrors(text string) int {
	errors := 0
	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		first := []rune(sentence)[0]
		if unicode.IsLetter(first) && unicode.IsLower(first) {
			errors++
		}
	}
	return errors
}

// countPunctuationErrors flags text that does not end in ., ! or ?.
func countPunctuationErrors(text string) int {
	if text == "" {
		return 0
	}
	last := text[len(text)-1]
	if last != '.' && last != '!' && last != '?' {
		return 1
	}
	return 0
}

// analyzeSpacing returns 1 when space runs of differing lengths appear.
func analyzeSpacing(text string) int {
	runs := spaceRuns.FindAllString(text, -1)
	if len(runs) == 0 {
		return 0
	}
	lengths := make(map[int]struct{}, len(runs))
	for _, r := range runs {
		lengths[len(r)] = struct{}{}
	}
	if len(lengths) > 1 {
		return 1
	}
	return 0
}

// #endregion error-heuristics
