// Package artifact persists versioned model artifact triples: a model
// blob, a scaler blob, and a metadata document sharing one
// (name, version) key. Artifacts are never mutated after persistence; a
// new training run produces a new version.
package artifact

// #region imports
import (
	"errors"
	"time"
)

// #endregion

// #region errors

// ErrNotFound is returned when a requested model name or version has no
// persisted artifact. Callers never get a silently substituted version.
var ErrNotFound = errors.New("model artifact not found")

// #endregion errors

// #region metrics

// ClassMetrics holds per-class evaluation numbers.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Metrics is the training evaluation record persisted with every
// artifact version for audit and model selection.
type Metrics struct {
	Accuracy           float64                 `json:"accuracy"`
	CVMeanAccuracy     float64                 `json:"cv_mean_accuracy"`
	CVStdAccuracy      float64                 `json:"cv_std_accuracy"`
	NSamplesTrain      int                     `json:"n_samples_train"`
	NSamplesTest       int                     `json:"n_samples_test"`
	NFeatures          int                     `json:"n_features"`
	Classes            []int                   `json:"classes"`
	ClassReport        map[string]ClassMetrics `json:"classification_report"`
	ConfusionMatrix    [][]int                 `json:"confusion_matrix"`
	FeatureImportances []float64               `json:"feature_importance,omitempty"`
}

// #endregion metrics

// #region meta

// Meta is the metadata document of one artifact triple. The persisted
// metadata documents are the authoritative listing of available versions.
type Meta struct {
	ModelName string    `json:"model_name"`
	Version   int       `json:"version"`
	Framework string    `json:"framework"` // "ensemble" | "gradient_boosted" | "neural"
	TrainedAt time.Time `json:"trained_at"`
	Metrics   Metrics   `json:"metrics"`
}

// Triple bundles the three linked artifacts.
type Triple struct {
	Meta   Meta
	Model  []byte
	Scaler []byte
}

// #endregion meta

// #region store

// Store is the artifact persistence abstraction. Implementations must
// serialize writes per model name so version numbers are never reused
// under concurrent training runs.
type Store interface {
	// Put persists a complete triple. The triple's version must be unused.
	Put(t Triple) error
	// PutNext persists a triple under the next version for its model name.
	// Version allocation and the write happen under the same per-name
	// serialization, so concurrent callers each receive a distinct version.
	// Returns the assigned version.
	PutNext(t Triple) (int, error)
	// Get retrieves one version. Returns ErrNotFound when absent.
	Get(name string, version int) (Triple, error)
	// Latest retrieves the highest version. Returns ErrNotFound when the
	// name has no artifacts.
	Latest(name string) (Triple, error)
	// Versions lists persisted versions for a name in ascending order.
	Versions(name string) ([]int, error)
	// List returns the metadata of every persisted artifact.
	List() ([]Meta, error)
	// NextVersion computes max existing version + 1 (1 when none exist).
	NextVersion(name string) (int, error)
}

// #endregion store
