// Package engine wires extraction, risk classification, feedback, and
// provenance into the submission pipeline.
package engine

// #region imports
import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sojwal000/learning-screen/internal/audio"
	"github.com/sojwal000/learning-screen/internal/feature"
	"github.com/sojwal000/learning-screen/internal/feedback"
	"github.com/sojwal000/learning-screen/internal/handwriting"
	"github.com/sojwal000/learning-screen/internal/interaction"
	"github.com/sojwal000/learning-screen/internal/logging"
	"github.com/sojwal000/learning-screen/internal/risk"
)

// #endregion

// #region types

// Submission is one recorded test session to be screened. Audio and
// handwriting image are optional supplements; when present their
// features are merged into the interaction features.
type Submission struct {
	ID         string               `json:"id,omitempty"`
	StudentRef string               `json:"student_ref,omitempty"`
	TestType   interaction.TestType `json:"test_type"`
	Record     interaction.Record   `json:"record"`
	Audio      *audio.Clip          `json:"-"`
	ImagePath  string               `json:"image_path,omitempty"`
}

// Classification is the pipeline output for one submission. It is not
// mutated after ProcessSubmission returns.
type Classification struct {
	SubmissionID   string               `json:"submission_id"`
	StudentRef     string               `json:"student_ref,omitempty"`
	TestType       interaction.TestType `json:"test_type"`
	PredictedClass string               `json:"predicted_class"`
	Confidence     float64              `json:"confidence"`
	RiskLevel      risk.Level           `json:"risk_level"`
	RiskScore      float64              `json:"risk_score"`
	Score          float64              `json:"score"`
	Errors         int                  `json:"errors"`
	Features       *feature.Set         `json:"features"`
	Feedback       feedback.Bundle      `json:"feedback"`
	CreatedAt      time.Time            `json:"created_at"`
}

// #endregion types

// #region engine

// Options configures an Engine. Screenings may be nil to disable the
// provenance log; Strict makes unknown test types an error instead of a
// generic assessment.
type Options struct {
	Logger     *zap.Logger
	Screenings *ScreeningStore
	Strict     bool
}

// Engine runs the submission pipeline.
type Engine struct {
	log        *zap.Logger
	screenings *ScreeningStore
	strict     bool
}

// NewEngine constructs an engine. A nil logger is replaced by a no-op.
func NewEngine(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log, screenings: opts.Screenings, strict: opts.Strict}
}

// #endregion engine

// #region process

// ProcessSubmission runs record extraction, risk classification, and
// feedback for one submission, then appends the result to the screening
// log. Unknown test types yield a generic no-risk assessment unless the
// engine is strict.
func (e *Engine) ProcessSubmission(sub Submission) (Classification, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}

	proc, err := interaction.ForType(sub.TestType)
	if err != nil {
		if e.strict {
			return Classification{}, fmt.Errorf("submission %s: %w", sub.ID, err)
		}
		e.log.Warn("unknown test type, generic assessment",
			zap.String("submission_id", sub.ID),
			zap.String("test_type", string(sub.TestType)))
		cls := e.finish(sub, interaction.Result{Features: feature.NewSet()},
			genericAssessment(), feedback.Generic())
		return cls, e.record(cls)
	}

	res := proc.Process(sub.Record)
	features := res.Features
	if sub.Audio != nil {
		mergeInto(features, audio.Extract(*sub.Audio))
	}
	if sub.ImagePath != "" {
		mergeInto(features, handwriting.ExtractFile(sub.ImagePath))
	}

	var assessment risk.Assessment
	if domain, ok := risk.DomainFor(string(sub.TestType)); ok {
		assessment, err = risk.Classify(domain, features)
		if err != nil {
			return Classification{}, fmt.Errorf("submission %s: %w", sub.ID, err)
		}
	} else {
		assessment = genericAssessment()
	}

	fb := feedback.ForDomain(sub.TestType, features, sub.Record)
	cls := e.finish(sub, res, assessment, fb)

	e.log.Info("submission classified",
		zap.String("submission_id", sub.ID),
		zap.String("test_type", string(sub.TestType)),
		zap.String("predicted_class", cls.PredictedClass),
		zap.Float64("confidence", cls.Confidence),
		zap.String("risk_level", string(cls.RiskLevel)))

	return cls, e.record(cls)
}

// genericAssessment is the neutral result for test types outside the
// three risk domains.
func genericAssessment() risk.Assessment {
	return risk.Assessment{PredictedClass: "none", Confidence: 0.5, RiskLevel: risk.LevelLow}
}

// finish builds the immutable classification. The feature set the
// caller handed in is cloned and augmented with feedback counts; the
// original is never touched.
func (e *Engine) finish(sub Submission, res interaction.Result, a risk.Assessment, fb feedback.Bundle) Classification {
	features := res.Features.Clone()
	features.Put("feedback_errors", float64(len(fb.Errors)))
	features.Put("feedback_skipped", float64(len(fb.Skipped)))
	features.Put("feedback_concerns", float64(len(fb.Concerns)))

	return Classification{
		SubmissionID:   sub.ID,
		StudentRef:     sub.StudentRef,
		TestType:       sub.TestType,
		PredictedClass: a.PredictedClass,
		Confidence:     a.Confidence,
		RiskLevel:      a.RiskLevel,
		RiskScore:      a.RiskScore,
		Score:          res.Score,
		Errors:         res.Errors,
		Features:       features,
		Feedback:       fb,
		CreatedAt:      time.Now().UTC(),
	}
}

// record appends one row to the screening log when a store is wired.
func (e *Engine) record(cls Classification) error {
	if e.screenings == nil {
		return nil
	}
	featuresJSON, err := json.Marshal(cls.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	return logging.LogScreening(e.screenings.DB(), logging.ScreeningEntry{
		SubmissionID:   cls.SubmissionID,
		StudentRef:     cls.StudentRef,
		TestType:       string(cls.TestType),
		PredictedClass: cls.PredictedClass,
		Confidence:     cls.Confidence,
		RiskLevel:      string(cls.RiskLevel),
		RiskScore:      cls.RiskScore,
		FeaturesJSON:   string(featuresJSON),
		CreatedAt:      cls.CreatedAt,
	})
}

// #endregion process

// #region merge

// mergeInto appends every key of src to dst, preserving src's order.
// Keys already in dst keep their first value.
func mergeInto(dst, src *feature.Set) {
	for _, k := range src.Keys() {
		if dst.Has(k) {
			continue
		}
		if v := src.Vec(k); v != nil {
			dst.PutVec(k, v)
			continue
		}
		if v, ok := src.Get(k); ok {
			dst.Put(k, v)
		}
	}
}

// #endregion merge
