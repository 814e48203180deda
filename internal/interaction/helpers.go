package interaction

// #region imports
import (
	"math"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/stat"
)

// #endregion

// #region letter-pairs

// reversalPairs are letter shapes commonly mirrored by struggling readers.
var reversalPairs = [][2]rune{{'b', 'd'}, {'p', 'q'}, {'n', 'u'}, {'m', 'w'}}

// confusionPairs are visually similar vowels commonly swapped.
var confusionPairs = [][2]rune{{'a', 'e'}, {'i', 'e'}, {'o', 'a'}, {'u', 'o'}}

// countPairMatches compares two strings position by position and counts
// characters that match either orientation of any pair.
func countPairMatches(original, read string, pairs [][2]rune) int {
	o := []rune(strings.ToLower(original))
	r := []rune(strings.ToLower(read))
	count := 0
	for i, ch := range o {
		if i >= len(r) {
			break
		}
		for _, p := range pairs {
			if (ch == p[0] && r[i] == p[1]) || (ch == p[1] && r[i] == p[0]) {
				count++
			}
		}
	}
	return count
}

// countReversedLetters counts positional b/d, p/q, n/u, m/w swaps.
func countReversedLetters(original, read string) int {
	return countPairMatches(original, read, reversalPairs)
}

// countLetterConfusions counts positional a/e, i/e, o/a, u/o swaps.
func countLetterConfusions(original, read string) int {
	return countPairMatches(original, read, confusionPairs)
}

// #endregion letter-pairs

// #region numeric

// meanStd returns the mean and population standard deviation of xs, or
// (0, 0) for empty input.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	m := stat.Mean(xs, nil)
	return m, stat.PopStdDev(xs, nil)
}

// consistency is 1 minus the coefficient of variation, 0 when the mean is
// not positive.
func consistency(mean, std float64) float64 {
	if mean <= 0 {
		return 0
	}
	return 1.0 - std/mean
}

// clampPct restricts a percentage to [0, 100].
func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// round2 rounds to two decimal places, matching the recorded feature
// precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// digitString strips everything but decimal digits.
func digitString(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// reverseString reverses a string rune-wise.
func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// isNumberReversal reports whether the student answer is the digit-reversal
// of the correct answer (e.g. 21 for 12).
func isNumberReversal(student, correct string) bool {
	sd := digitString(student)
	cd := digitString(correct)
	if len(sd) == 0 || len(sd) != len(cd) {
		return false
	}
	return sd == reverseString(cd)
}

// #endregion numeric
