package interaction

// #region imports
import (
	"strings"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region phonological-processor

// phonologicalProcessor scores phonological awareness tasks with a
// per-task-type accuracy breakdown.
type phonologicalProcessor struct{}

func (phonologicalProcessor) Type() TestType { return TestPhonological }

func (phonologicalProcessor) Process(rec Record) Result {
	n := len(rec.Tasks)
	if n == 0 {
		return emptyResult()
	}

	pairs := len(rec.StudentResponses)
	if len(rec.CorrectResponses) < pairs {
		pairs = len(rec.CorrectResponses)
	}

	correct := 0
	for i := 0; i < pairs; i++ {
		if phonMatch(rec.StudentResponses[i], rec.CorrectResponses[i]) {
			correct++
		}
	}
	accuracy := float64(correct) / float64(n) * 100

	// Accuracy broken out per task-type tag.
	byType := make(map[string][2]int) // type -> [correct, total]
	for i, taskType := range rec.TaskTypes {
		counts := byType[taskType]
		counts[1]++
		if i < pairs && phonMatch(rec.StudentResponses[i], rec.CorrectResponses[i]) {
			counts[0]++
		}
		byType[taskType] = counts
	}
	typeAccuracy := func(taskType string) float64 {
		counts, ok := byType[taskType]
		if !ok || counts[1] == 0 {
			return 0
		}
		return float64(counts[0]) / float64(counts[1]) * 100
	}

	fs := feature.NewSet()
	fs.Put("overall_accuracy", round2(accuracy))
	fs.Put("rhyming_accuracy", round2(typeAccuracy("rhyming")))
	fs.Put("segmentation_accuracy", round2(typeAccuracy("segmentation")))
	fs.Put("blending_accuracy", round2(typeAccuracy("blending")))
	fs.Put("manipulation_accuracy", round2(typeAccuracy("manipulation")))
	fs.Put("completion_rate", round2(float64(len(rec.StudentResponses))/float64(n)))

	return Result{Score: round2(accuracy), Errors: n - correct, Features: fs}
}

// phonMatch compares responses case-insensitively after trimming.
func phonMatch(student, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(student), strings.TrimSpace(correct))
}

// #endregion phonological-processor
