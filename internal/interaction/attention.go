package interaction

// #region imports
import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region attention-processor

// attentionProcessor computes signal-detection metrics from a sustained
// attention run.
type attentionProcessor struct{}

func (attentionProcessor) Type() TestType { return TestAttention }

func (attentionProcessor) Process(rec Record) Result {
	nTargets := len(rec.Targets)
	nDistractors := len(rec.Distractors)
	total := nTargets + nDistractors
	if total == 0 {
		return emptyResult()
	}

	hitRate := 0.0
	if nTargets > 0 {
		hitRate = float64(rec.CorrectTargets) / float64(nTargets)
	}
	faRate := 0.0
	if nDistractors > 0 {
		faRate = float64(rec.FalseAlarms) / float64(nDistractors)
	}

	// Clamp away from 0 and 1 before the inverse-normal transform so d'
	// stays finite.
	hitRate = clampRate(hitRate)
	faRate = clampRate(faRate)
	dPrime := distuv.UnitNormal.Quantile(hitRate) - distuv.UnitNormal.Quantile(faRate)

	accuracy := float64(rec.CorrectTargets+(nDistractors-rec.FalseAlarms)) / float64(total) * 100

	avgRT, stdRT := meanStd(rec.ResponseTimes)
	rtConsistency := consistency(avgRT, stdRT)

	// Fatigue proxy: slower second half means attention faded across the
	// run. Needs at least 10 responses to be meaningful.
	fatigue := 0.0
	if len(rec.ResponseTimes) >= 10 {
		half := len(rec.ResponseTimes) / 2
		firstMean, _ := meanStd(rec.ResponseTimes[:half])
		secondMean, _ := meanStd(rec.ResponseTimes[half:])
		fatigue = secondMean - firstMean
	}

	fs := feature.NewSet()
	fs.Put("accuracy", round2(accuracy))
	fs.Put("d_prime", dPrime)
	fs.Put("hit_rate", hitRate)
	fs.Put("false_alarm_rate", faRate)
	fs.Put("avg_response_time", round2(avgRT))
	fs.Put("response_consistency", round2(rtConsistency))
	fs.Put("fatigue_effect", round2(fatigue))

	errors := rec.FalseAlarms + (nTargets - rec.CorrectTargets)
	return Result{Score: round2(accuracy), Errors: errors, Features: fs}
}

// clampRate restricts a detection rate to [0.01, 0.99].
func clampRate(r float64) float64 {
	if r < 0.01 {
		return 0.01
	}
	if r > 0.99 {
		return 0.99
	}
	return r
}

// #endregion attention-processor
