package interaction

// #region imports
import (
	"strings"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region reading-processor

// readingProcessor aligns the provided and read texts word by word.
type readingProcessor struct{}

func (readingProcessor) Type() TestType { return TestReading }

// Process compares texts positionally, not by edit distance: a mismatch is
// a substitution while both sides have words, an addition when the provided
// text runs out first, and an omission when the read text runs out first.
func (readingProcessor) Process(rec Record) Result {
	if strings.TrimSpace(rec.TextProvided) == "" && strings.TrimSpace(rec.TextRead) == "" {
		return emptyResult()
	}
	providedWords := strings.Fields(strings.ToLower(rec.TextProvided))
	readWords := strings.Fields(strings.ToLower(rec.TextRead))

	wordsProvided := len(strings.Fields(rec.TextProvided))
	wordsRead := len(strings.Fields(rec.TextRead))

	readingSpeed := 0.0
	if rec.TimeTaken > 0 {
		readingSpeed = float64(wordsRead) / rec.TimeTaken * 60
	}

	var errors, substitutions, omissions, additions int
	maxLen := len(providedWords)
	if len(readWords) > maxLen {
		maxLen = len(readWords)
	}
	for i := 0; i < maxLen; i++ {
		switch {
		case i >= len(providedWords):
			additions++
			errors++
		case i >= len(readWords):
			omissions++
			errors++
		case providedWords[i] != readWords[i]:
			substitutions++
			errors++
		}
	}

	denom := float64(wordsProvided)
	if denom < 1 {
		denom = 1
	}
	accuracy := clampPct((float64(wordsProvided) - float64(errors)) / denom * 100)
	errorRate := float64(errors) / denom * 100

	reversed := countReversedLetters(rec.TextProvided, rec.TextRead)
	confusions := countLetterConfusions(rec.TextProvided, rec.TextRead)

	fs := feature.NewSet()
	fs.Put("words_provided", float64(wordsProvided))
	fs.Put("words_read", float64(wordsRead))
	fs.Put("reading_speed", round2(readingSpeed))
	fs.Put("accuracy", round2(accuracy))
	fs.Put("score", round2(accuracy))
	fs.Put("errors", float64(errors))
	fs.Put("error_rate", round2(errorRate))
	fs.Put("substitutions", float64(substitutions))
	fs.Put("omissions", float64(omissions))
	fs.Put("additions", float64(additions))
	fs.Put("reversed_letters", float64(reversed))
	fs.Put("letter_confusions", float64(confusions))
	fs.Put("time_taken", rec.TimeTaken)

	return Result{Score: round2(accuracy), Errors: errors, Features: fs}
}

// #endregion reading-processor
