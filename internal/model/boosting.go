package model

// #region imports
import (
	"errors"
	"math"
	"math/rand"
)

// #endregion

// #region boosting

const boostingSeed = 42

// Boosting is a multi-class gradient boosting machine with softmax loss.
// Each round fits one shallow regression tree per class to the current
// probability residuals.
type Boosting struct {
	Rounds       int           `json:"rounds"`
	LearningRate float64       `json:"learning_rate"`
	MaxDepth     int           `json:"max_depth"`
	MinSplit     int           `json:"min_split"`
	ClassLabels  []int         `json:"classes"`
	Trees        [][]*treeNode `json:"trees"` // [round][class]
	Importances  []float64     `json:"importances"`
}

// NewBoosting returns a booster with the default hyperparameters.
func NewBoosting() *Boosting {
	return &Boosting{Rounds: 100, LearningRate: 0.1, MaxDepth: 5, MinSplit: 5}
}

// Kind reports the backend identity.
func (b *Boosting) Kind() Kind { return KindGradientBoosted }

// Classes returns the sorted distinct labels seen during Fit.
func (b *Boosting) Classes() []int { return b.ClassLabels }

// FeatureImportances returns normalized split-gain importance.
func (b *Boosting) FeatureImportances() []float64 { return b.Importances }

// Fit trains the booster.
func (b *Boosting) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("training data empty or misaligned")
	}
	b.ClassLabels = distinctLabels(y)
	dense := denseLabels(y, b.ClassLabels)
	nClasses := len(b.ClassLabels)
	n := len(X)

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	raw := make([]float64, len(X[0]))
	scores := make([][]float64, n) // raw additive scores per sample
	for i := range scores {
		scores[i] = make([]float64, nClasses)
	}

	b.Trees = make([][]*treeNode, b.Rounds)
	residuals := make([]float64, n)
	for round := 0; round < b.Rounds; round++ {
		b.Trees[round] = make([]*treeNode, nClasses)
		for k := 0; k < nClasses; k++ {
			for i := range residuals {
				p := softmax(scores[i])
				target := 0.0
				if dense[i] == k {
					target = 1.0
				}
				residuals[i] = target - p[k]
			}
			builder := &treeBuilder{
				X:           X,
				maxDepth:    b.MaxDepth,
				minSplit:    b.MinSplit,
				rng:         rand.New(rand.NewSource(boostingSeed + int64(round*nClasses+k))),
				importances: raw,
			}
			tree := builder.buildReg(all, residuals, 0)
			b.Trees[round][k] = tree
			for i := range X {
				scores[i][k] += b.LearningRate * tree.predictValue(X[i])
			}
		}
	}
	b.Importances = normalizeImportances(raw)
	return nil
}

// PredictProbabilities softmaxes the additive scores.
func (b *Boosting) PredictProbabilities(x []float64) []float64 {
	scores := make([]float64, len(b.ClassLabels))
	for _, round := range b.Trees {
		for k, tree := range round {
			scores[k] += b.LearningRate * tree.predictValue(x)
		}
	}
	return softmax(scores)
}

// PredictLabel returns the class with the highest probability.
func (b *Boosting) PredictLabel(x []float64) int {
	return b.ClassLabels[argmax(b.PredictProbabilities(x))]
}

// #endregion boosting

// #region softmax

func softmax(scores []float64) []float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// #endregion softmax
