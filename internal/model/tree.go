package model

// #region imports
import (
	"math"
	"math/rand"
	"sort"
)

// #endregion

// #region node

// treeNode is one CART node. Classification leaves carry a class
// distribution, regression leaves a scalar value. Field tags are short
// because serialized forests carry thousands of nodes.
type treeNode struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Probs     []float64 `json:"p,omitempty"`
	Value     float64   `json:"v,omitempty"`
}

// predictProbs walks to a leaf and returns its class distribution.
func (n *treeNode) predictProbs(x []float64) []float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Probs
}

// predictValue walks to a leaf and returns its regression value.
func (n *treeNode) predictValue(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// #endregion node

// #region builder

// treeBuilder grows CART trees over index slices into a shared dataset.
// maxFeatures restricts the candidate features per split (random
// forests); 0 means consider every feature. importances, when non-nil,
// accumulates impurity decrease weighted by node size.
type treeBuilder struct {
	X           [][]float64
	maxDepth    int
	minSplit    int
	maxFeatures int
	rng         *rand.Rand
	importances []float64
}

// candidateFeatures returns the feature indices examined at one split.
func (b *treeBuilder) candidateFeatures() []int {
	nFeat := len(b.X[0])
	if b.maxFeatures <= 0 || b.maxFeatures >= nFeat {
		all := make([]int, nFeat)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := b.rng.Perm(nFeat)
	return perm[:b.maxFeatures]
}

// splitIdx partitions idx in place around feature/threshold.
func (b *treeBuilder) splitIdx(idx []int, feature int, threshold float64) ([]int, []int) {
	left := idx[:0:0]
	right := idx[:0:0]
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// thresholds returns midpoints between distinct adjacent sorted values.
func (b *treeBuilder) thresholds(idx []int, feature int) []float64 {
	vals := make([]float64, len(idx))
	for i, j := range idx {
		vals[i] = b.X[j][feature]
	}
	sort.Float64s(vals)
	var out []float64
	for i := 1; i < len(vals); i++ {
		if vals[i] != vals[i-1] {
			out = append(out, (vals[i]+vals[i-1])/2)
		}
	}
	return out
}

// #endregion builder

// #region classification

func classCounts(y []int, idx []int, nClasses int) []float64 {
	counts := make([]float64, nClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	return counts
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

func leafProbs(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	probs := make([]float64, len(counts))
	if total == 0 {
		return probs
	}
	for i, c := range counts {
		probs[i] = c / total
	}
	return probs
}

// buildClass grows a classification tree with Gini splits.
func (b *treeBuilder) buildClass(idx []int, y []int, nClasses, depth int) *treeNode {
	counts := classCounts(y, idx, nClasses)
	impurity := gini(counts, float64(len(idx)))
	if depth >= b.maxDepth || len(idx) < b.minSplit || impurity == 0 {
		return &treeNode{Leaf: true, Probs: leafProbs(counts)}
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	n := float64(len(idx))
	for _, f := range b.candidateFeatures() {
		for _, t := range b.thresholds(idx, f) {
			left, right := b.splitIdx(idx, f, t)
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			lc := classCounts(y, left, nClasses)
			rc := classCounts(y, right, nClasses)
			weighted := (float64(len(left))*gini(lc, float64(len(left))) +
				float64(len(right))*gini(rc, float64(len(right)))) / n
			if gain := impurity - weighted; gain > bestGain {
				bestGain, bestFeature, bestThreshold = gain, f, t
			}
		}
	}
	if bestFeature < 0 {
		return &treeNode{Leaf: true, Probs: leafProbs(counts)}
	}
	if b.importances != nil {
		b.importances[bestFeature] += bestGain * n
	}

	left, right := b.splitIdx(idx, bestFeature, bestThreshold)
	return &treeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      b.buildClass(left, y, nClasses, depth+1),
		Right:     b.buildClass(right, y, nClasses, depth+1),
	}
}

// #endregion classification

// #region regression

func meanTarget(targets []float64, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += targets[i]
	}
	return sum / float64(len(idx))
}

func sse(targets []float64, idx []int) float64 {
	m := meanTarget(targets, idx)
	s := 0.0
	for _, i := range idx {
		d := targets[i] - m
		s += d * d
	}
	return s
}

// buildReg grows a regression tree with variance-reduction splits.
func (b *treeBuilder) buildReg(idx []int, targets []float64, depth int) *treeNode {
	if depth >= b.maxDepth || len(idx) < b.minSplit {
		return &treeNode{Leaf: true, Value: meanTarget(targets, idx)}
	}
	parentSSE := sse(targets, idx)
	if parentSSE < 1e-12 {
		return &treeNode{Leaf: true, Value: meanTarget(targets, idx)}
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	for _, f := range b.candidateFeatures() {
		for _, t := range b.thresholds(idx, f) {
			left, right := b.splitIdx(idx, f, t)
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			if gain := parentSSE - sse(targets, left) - sse(targets, right); gain > bestGain {
				bestGain, bestFeature, bestThreshold = gain, f, t
			}
		}
	}
	if bestFeature < 0 || bestGain < 1e-12 {
		return &treeNode{Leaf: true, Value: meanTarget(targets, idx)}
	}
	if b.importances != nil {
		b.importances[bestFeature] += bestGain
	}

	left, right := b.splitIdx(idx, bestFeature, bestThreshold)
	return &treeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      b.buildReg(left, targets, depth+1),
		Right:     b.buildReg(right, targets, depth+1),
	}
}

// #endregion regression

// #region importances

// normalizeImportances scales accumulated importances to sum to 1.
func normalizeImportances(imp []float64) []float64 {
	total := 0.0
	for _, v := range imp {
		total += v
	}
	if total == 0 || math.IsNaN(total) {
		return imp
	}
	out := make([]float64, len(imp))
	for i, v := range imp {
		out[i] = v / total
	}
	return out
}

// #endregion importances
