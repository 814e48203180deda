package interaction

// #region imports
import (
	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region memory-processor

// memoryProcessor scores recall against the presented item list.
type memoryProcessor struct{}

func (memoryProcessor) Type() TestType { return TestMemory }

func (memoryProcessor) Process(rec Record) Result {
	n := len(rec.ItemsShown)
	if n == 0 {
		return emptyResult()
	}

	shown := make(map[string]struct{}, n)
	for _, item := range rec.ItemsShown {
		shown[item] = struct{}{}
	}

	var correctRecalls, falseRecalls int
	for _, item := range rec.ItemsRecalled {
		if _, ok := shown[item]; ok {
			correctRecalls++
		} else {
			falseRecalls++
		}
	}
	recallAccuracy := float64(correctRecalls) / float64(n) * 100

	// Serial-order accuracy: positional match against the presented order.
	orderAccuracy := 0.0
	if len(rec.RecallOrder) > 0 {
		correctOrder := 0
		for i, item := range rec.RecallOrder {
			if i < n && item == rec.ItemsShown[i] {
				correctOrder++
			}
		}
		orderAccuracy = float64(correctOrder) / float64(n) * 100
	}

	// Primacy/recency over the first and last two shown items, only
	// meaningful with at least three items.
	var primacy, recency int
	if n >= 3 {
		recalled := make(map[string]struct{}, len(rec.ItemsRecalled))
		for _, item := range rec.ItemsRecalled {
			recalled[item] = struct{}{}
		}
		for _, item := range rec.ItemsShown[:2] {
			if _, ok := recalled[item]; ok {
				primacy++
			}
		}
		for _, item := range rec.ItemsShown[n-2:] {
			if _, ok := recalled[item]; ok {
				recency++
			}
		}
	}

	fs := feature.NewSet()
	fs.Put("recall_accuracy", round2(recallAccuracy))
	fs.Put("order_accuracy", round2(orderAccuracy))
	fs.Put("false_recalls", float64(falseRecalls))
	fs.Put("primacy_score", float64(primacy))
	fs.Put("recency_score", float64(recency))
	fs.Put("time_to_recall", rec.TimeToRecall)
	fs.Put("recall_rate", round2(float64(len(rec.ItemsRecalled))/float64(n)))

	errors := n - correctRecalls + falseRecalls
	return Result{Score: round2(recallAccuracy), Errors: errors, Features: fs}
}

// #endregion memory-processor
