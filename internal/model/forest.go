package model

// #region imports
import (
	"errors"
	"math/rand"
	"sort"
)

// #endregion

// #region forest

const forestSeed = 42

// Forest is a bagged ensemble of CART classification trees. Each tree
// trains on a bootstrap sample with sqrt(d) random features per split.
// Tree seeds derive from a fixed base seed, so fits are reproducible.
type Forest struct {
	NumTrees    int         `json:"n_trees"`
	MaxDepth    int         `json:"max_depth"`
	MinSplit    int         `json:"min_split"`
	ClassLabels []int       `json:"classes"`
	Trees       []*treeNode `json:"trees"`
	Importances []float64   `json:"importances"`
}

// NewForest returns a forest with the default hyperparameters.
func NewForest() *Forest {
	return &Forest{NumTrees: 100, MaxDepth: 10, MinSplit: 5}
}

// Kind reports the backend identity.
func (f *Forest) Kind() Kind { return KindEnsemble }

// Classes returns the sorted distinct labels seen during Fit.
func (f *Forest) Classes() []int { return f.ClassLabels }

// FeatureImportances returns normalized Gini importance per feature.
func (f *Forest) FeatureImportances() []float64 { return f.Importances }

// Fit trains the ensemble.
func (f *Forest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("training data empty or misaligned")
	}
	f.ClassLabels = distinctLabels(y)
	dense := denseLabels(y, f.ClassLabels)
	nClasses := len(f.ClassLabels)
	nFeat := len(X[0])
	maxFeatures := intSqrt(nFeat)

	raw := make([]float64, nFeat)
	f.Trees = make([]*treeNode, f.NumTrees)
	for t := 0; t < f.NumTrees; t++ {
		rng := rand.New(rand.NewSource(forestSeed + int64(t)))
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = rng.Intn(len(X))
		}
		b := &treeBuilder{
			X:           X,
			maxDepth:    f.MaxDepth,
			minSplit:    f.MinSplit,
			maxFeatures: maxFeatures,
			rng:         rng,
			importances: raw,
		}
		f.Trees[t] = b.buildClass(idx, dense, nClasses, 0)
	}
	f.Importances = normalizeImportances(raw)
	return nil
}

// PredictProbabilities averages the leaf distributions across trees.
func (f *Forest) PredictProbabilities(x []float64) []float64 {
	probs := make([]float64, len(f.ClassLabels))
	for _, tree := range f.Trees {
		for i, p := range tree.predictProbs(x) {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	return probs
}

// PredictLabel returns the class with the highest averaged probability.
func (f *Forest) PredictLabel(x []float64) int {
	return f.ClassLabels[argmax(f.PredictProbabilities(x))]
}

// #endregion forest

// #region label-helpers

// distinctLabels returns the sorted distinct values of y.
func distinctLabels(y []int) []int {
	seen := make(map[int]bool)
	var labels []int
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			labels = append(labels, v)
		}
	}
	sort.Ints(labels)
	return labels
}

// denseLabels maps arbitrary labels onto 0..k-1 positions.
func denseLabels(y []int, labels []int) []int {
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}
	dense := make([]int, len(y))
	for i, v := range y {
		dense[i] = pos[v]
	}
	return dense
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func intSqrt(n int) int {
	r := 1
	for r*r < n {
		r++
	}
	return r
}

// #endregion label-helpers
