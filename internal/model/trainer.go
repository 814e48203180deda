package model

// #region imports
import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sojwal000/learning-screen/internal/artifact"
)

// #endregion

// #region errors

// ErrUnstratifiable is returned when some class has too few samples for
// a stratified split. Validation runs before any artifact is written.
var ErrUnstratifiable = errors.New("every class needs at least 2 samples for a stratified split")

// #endregion errors

// #region options

// TrainOptions configures one training run.
type TrainOptions struct {
	ModelName string
	Kind      Kind
	TestSize  float64 // holdout fraction, default 0.2
	Seed      int64   // split shuffle seed, default 42
	CVFolds   int     // cross-validation folds for tree kinds, default 5
}

func (o *TrainOptions) defaults() {
	if o.TestSize <= 0 || o.TestSize >= 1 {
		o.TestSize = 0.2
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.CVFolds <= 1 {
		o.CVFolds = 5
	}
}

// TrainResult reports one completed run. The same metrics are persisted
// in the artifact metadata.
type TrainResult struct {
	Meta artifact.Meta
}

// #endregion options

// #region trainer

// Trainer fits classifiers and persists versioned artifact triples.
type Trainer struct {
	store artifact.Store
}

// NewTrainer wires a trainer to an artifact store.
func NewTrainer(store artifact.Store) *Trainer {
	return &Trainer{store: store}
}

// Train validates, fits, evaluates, and persists one model version.
// All preconditions are checked before any artifact write, so a failed
// run never leaves a partial triple or burns a version number.
func (t *Trainer) Train(X [][]float64, y []int, opts TrainOptions) (TrainResult, error) {
	opts.defaults()
	if opts.ModelName == "" {
		return TrainResult{}, errors.New("model name required")
	}
	if _, err := New(opts.Kind); err != nil {
		return TrainResult{}, err
	}
	if len(X) == 0 || len(X) != len(y) {
		return TrainResult{}, errors.New("training data empty or misaligned")
	}
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	for label, c := range counts {
		if c < 2 {
			return TrainResult{}, fmt.Errorf("class %d has %d sample(s): %w", label, c, ErrUnstratifiable)
		}
	}

	trainIdx, testIdx := stratifiedSplit(y, opts.TestSize, opts.Seed)
	XTrain, yTrain := subset(X, y, trainIdx)
	XTest, yTest := subset(X, y, testIdx)

	scaler, err := FitScaler(XTrain)
	if err != nil {
		return TrainResult{}, err
	}
	XTrainS, err := scaler.TransformAll(XTrain)
	if err != nil {
		return TrainResult{}, err
	}
	XTestS, err := scaler.TransformAll(XTest)
	if err != nil {
		return TrainResult{}, err
	}

	clf, _ := New(opts.Kind)
	if err := clf.Fit(XTrainS, yTrain); err != nil {
		return TrainResult{}, fmt.Errorf("fit %s: %w", opts.Kind, err)
	}

	metrics := evaluate(clf, XTestS, yTest)
	metrics.NSamplesTrain = len(XTrain)
	metrics.NSamplesTest = len(XTest)
	metrics.NFeatures = len(X[0])
	metrics.Classes = distinctLabels(y)
	metrics.FeatureImportances = clf.FeatureImportances()

	// Cross-validation only for the tree backends; the network's epoch
	// count makes k refits prohibitively slow for interactive training.
	if opts.Kind != KindNeural {
		cvMean, cvStd, err := t.crossValidate(opts.Kind, XTrainS, yTrain, opts.CVFolds, opts.Seed)
		if err != nil {
			return TrainResult{}, err
		}
		metrics.CVMeanAccuracy = cvMean
		metrics.CVStdAccuracy = cvStd
	}

	modelBlob, err := Encode(clf)
	if err != nil {
		return TrainResult{}, err
	}
	scalerBlob, err := EncodeScaler(scaler)
	if err != nil {
		return TrainResult{}, err
	}
	triple := artifact.Triple{
		Meta: artifact.Meta{
			ModelName: opts.ModelName,
			Framework: string(opts.Kind),
			TrainedAt: time.Now().UTC(),
			Metrics:   metrics,
		},
		Model:  modelBlob,
		Scaler: scalerBlob,
	}
	// The store assigns the version atomically with the write, so
	// concurrent runs for one name each land on their own version.
	version, err := t.store.PutNext(triple)
	if err != nil {
		return TrainResult{}, fmt.Errorf("persist artifact: %w", err)
	}
	triple.Meta.Version = version
	return TrainResult{Meta: triple.Meta}, nil
}

// #endregion trainer

// #region split

// stratifiedSplit shuffles within each class and holds out testSize of
// every class, so rare classes appear on both sides.
func stratifiedSplit(y []int, testSize float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	labels := make([]int, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	for _, label := range labels {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(float64(len(idx)) * testSize)
		if nTest == 0 {
			nTest = 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func subset(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for i, j := range idx {
		outX[i] = X[j]
		outY[i] = y[j]
	}
	return outX, outY
}

// #endregion split

// #region cv

// crossValidate refits the model k times on rotating folds and reports
// mean and standard deviation of holdout accuracy.
func (t *Trainer) crossValidate(kind Kind, X [][]float64, y []int, folds int, seed int64) (float64, float64, error) {
	if folds > len(X) {
		folds = len(X)
	}
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(X))

	var scores []float64
	for f := 0; f < folds; f++ {
		var trainIdx, testIdx []int
		for i, j := range order {
			if i%folds == f {
				testIdx = append(testIdx, j)
			} else {
				trainIdx = append(trainIdx, j)
			}
		}
		if len(trainIdx) == 0 || len(testIdx) == 0 {
			continue
		}
		XTrain, yTrain := subset(X, y, trainIdx)
		XTest, yTest := subset(X, y, testIdx)

		clf, err := New(kind)
		if err != nil {
			return 0, 0, err
		}
		if err := clf.Fit(XTrain, yTrain); err != nil {
			return 0, 0, fmt.Errorf("cv fold %d: %w", f, err)
		}
		correct := 0
		for i, row := range XTest {
			if clf.PredictLabel(row) == yTest[i] {
				correct++
			}
		}
		scores = append(scores, float64(correct)/float64(len(XTest)))
	}
	if len(scores) == 0 {
		return 0, 0, nil
	}
	return stat.Mean(scores, nil), stat.PopStdDev(scores, nil), nil
}

// #endregion cv

// #region evaluate

// evaluate computes holdout accuracy, the confusion matrix, and the
// per-class precision/recall/F1 report.
func evaluate(clf Classifier, X [][]float64, y []int) artifact.Metrics {
	labels := clf.Classes()
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	confusion := make([][]int, len(labels))
	for i := range confusion {
		confusion[i] = make([]int, len(labels))
	}
	correct := 0
	for i, row := range X {
		pred := clf.PredictLabel(row)
		if pred == y[i] {
			correct++
		}
		if ti, ok := pos[y[i]]; ok {
			confusion[ti][pos[pred]]++
		}
	}

	report := make(map[string]artifact.ClassMetrics, len(labels))
	for i, label := range labels {
		tp := confusion[i][i]
		support, predicted := 0, 0
		for j := range labels {
			support += confusion[i][j]
			predicted += confusion[j][i]
		}
		var precision, recall, f1 float64
		if predicted > 0 {
			precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			recall = float64(tp) / float64(support)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		report[fmt.Sprintf("%d", label)] = artifact.ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
	}

	accuracy := 0.0
	if len(X) > 0 {
		accuracy = float64(correct) / float64(len(X))
	}
	return artifact.Metrics{
		Accuracy:        accuracy,
		ClassReport:     report,
		ConfusionMatrix: confusion,
	}
}

// #endregion evaluate
