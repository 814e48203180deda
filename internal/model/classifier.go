// Package model implements the trainable risk classifiers, their
// serialization, and the training pipeline. Three backends share one
// Classifier interface; callers never branch on the backend name.
package model

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sojwal000/learning-screen/internal/artifact"
)

// #endregion

// #region kind

// Kind identifies a classifier backend. The values double as the
// framework field of persisted artifact metadata.
type Kind string

const (
	KindEnsemble        Kind = artifact.FrameworkEnsemble
	KindGradientBoosted Kind = artifact.FrameworkGradientBoosted
	KindNeural          Kind = artifact.FrameworkNeural
)

// ErrInvalidKind is returned before any training work begins.
var ErrInvalidKind = errors.New("invalid classifier kind")

// New constructs an untrained classifier of the given kind with its
// default hyperparameters.
func New(kind Kind) (Classifier, error) {
	switch kind {
	case KindEnsemble:
		return NewForest(), nil
	case KindGradientBoosted:
		return NewBoosting(), nil
	case KindNeural:
		return NewNeural(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

// #endregion kind

// #region interface

// Classifier is a trainable multi-class classifier. Fit must be called
// before the predict methods. Implementations are deterministic: the
// same training data always yields the same fitted model.
type Classifier interface {
	// Fit trains on feature rows and integer class labels.
	Fit(X [][]float64, y []int) error
	// PredictLabel returns the most probable class for one feature row.
	PredictLabel(x []float64) int
	// PredictProbabilities returns one probability per class, in
	// ascending class order, summing to 1.
	PredictProbabilities(x []float64) []float64
	// Kind reports the backend identity.
	Kind() Kind
	// Classes returns the sorted distinct labels seen during Fit.
	Classes() []int
	// FeatureImportances returns per-feature importance weights summing
	// to 1, or nil when the backend does not expose them.
	FeatureImportances() []float64
}

// #endregion interface

// #region codec

// Encode serializes a fitted classifier for artifact storage.
func Encode(c Classifier) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s model: %w", c.Kind(), err)
	}
	return b, nil
}

// Decode reconstructs a classifier from an artifact blob. The kind comes
// from artifact metadata (or the model file's extension on disk).
func Decode(kind Kind, blob []byte) (Classifier, error) {
	c, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(blob, c); err != nil {
		return nil, fmt.Errorf("decode %s model: %w", kind, err)
	}
	return c, nil
}

// #endregion codec
