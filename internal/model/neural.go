package model

// #region imports
import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// #endregion

// #region neural

const neuralSeed = 42

// Neural is a fully connected softmax classifier with ReLU hidden
// layers, trained by Adam on mini-batches. Initialization and shuffling
// use a fixed seed, so fits are reproducible across runs.
type Neural struct {
	Hidden       []int   // hidden layer widths
	Epochs       int
	BatchSize    int
	LearningRate float64
	ClassLabels  []int

	weights []*mat.Dense    // layer i: (out x in)
	biases  []*mat.VecDense // layer i: (out)
}

// NewNeural returns a network with the default architecture.
func NewNeural() *Neural {
	return &Neural{
		Hidden:       []int{128, 64, 32},
		Epochs:       50,
		BatchSize:    32,
		LearningRate: 0.001,
	}
}

// Kind reports the backend identity.
func (n *Neural) Kind() Kind { return KindNeural }

// Classes returns the sorted distinct labels seen during Fit.
func (n *Neural) Classes() []int { return n.ClassLabels }

// FeatureImportances returns nil; the network has no native importances.
func (n *Neural) FeatureImportances() []float64 { return nil }

// #endregion neural

// #region fit

// Fit trains the network with Adam and cross-entropy loss.
func (n *Neural) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("training data empty or misaligned")
	}
	n.ClassLabels = distinctLabels(y)
	dense := denseLabels(y, n.ClassLabels)
	nClasses := len(n.ClassLabels)
	nFeat := len(X[0])

	rng := rand.New(rand.NewSource(neuralSeed))
	dims := append(append([]int{nFeat}, n.Hidden...), nClasses)
	n.weights = make([]*mat.Dense, len(dims)-1)
	n.biases = make([]*mat.VecDense, len(dims)-1)
	for l := 0; l < len(dims)-1; l++ {
		in, out := dims[l], dims[l+1]
		// He initialization for ReLU layers.
		scale := math.Sqrt(2.0 / float64(in))
		data := make([]float64, out*in)
		for i := range data {
			data[i] = rng.NormFloat64() * scale
		}
		n.weights[l] = mat.NewDense(out, in, data)
		n.biases[l] = mat.NewVecDense(out, nil)
	}

	opt := newAdam(n.weights, n.biases, n.LearningRate)
	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < n.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for start := 0; start < len(order); start += n.BatchSize {
			end := start + n.BatchSize
			if end > len(order) {
				end = len(order)
			}
			gW, gB := n.zeroGrads()
			for _, i := range order[start:end] {
				n.accumulateGrads(X[i], dense[i], gW, gB)
			}
			scale := 1.0 / float64(end-start)
			for l := range gW {
				gW[l].Scale(scale, gW[l])
				gB[l].ScaleVec(scale, gB[l])
			}
			opt.step(n.weights, n.biases, gW, gB)
		}
	}
	return nil
}

func (n *Neural) zeroGrads() ([]*mat.Dense, []*mat.VecDense) {
	gW := make([]*mat.Dense, len(n.weights))
	gB := make([]*mat.VecDense, len(n.biases))
	for l, w := range n.weights {
		r, c := w.Dims()
		gW[l] = mat.NewDense(r, c, nil)
		gB[l] = mat.NewVecDense(r, nil)
	}
	return gW, gB
}

// forward runs one sample through the network, keeping pre- and
// post-activation values for backprop.
func (n *Neural) forward(x []float64) (activations []*mat.VecDense, preacts []*mat.VecDense) {
	a := mat.NewVecDense(len(x), append([]float64(nil), x...))
	activations = []*mat.VecDense{a}
	for l, w := range n.weights {
		out, _ := w.Dims()
		z := mat.NewVecDense(out, nil)
		z.MulVec(w, a)
		z.AddVec(z, n.biases[l])
		preacts = append(preacts, z)

		next := mat.NewVecDense(out, nil)
		if l == len(n.weights)-1 {
			copy(next.RawVector().Data, softmax(z.RawVector().Data))
		} else {
			for i := 0; i < out; i++ {
				if v := z.AtVec(i); v > 0 {
					next.SetVec(i, v)
				}
			}
		}
		activations = append(activations, next)
		a = next
	}
	return activations, preacts
}

// accumulateGrads backpropagates one sample into the gradient buffers.
func (n *Neural) accumulateGrads(x []float64, label int, gW []*mat.Dense, gB []*mat.VecDense) {
	activations, preacts := n.forward(x)
	last := len(n.weights) - 1

	// Softmax + cross-entropy gradient at the output.
	out := activations[len(activations)-1].Len()
	delta := mat.NewVecDense(out, nil)
	delta.CopyVec(activations[len(activations)-1])
	delta.SetVec(label, delta.AtVec(label)-1)

	for l := last; l >= 0; l-- {
		var outer mat.Dense
		outer.Outer(1, delta, activations[l])
		gW[l].Add(gW[l], &outer)
		gB[l].AddVec(gB[l], delta)

		if l == 0 {
			break
		}
		in := activations[l].Len()
		prev := mat.NewVecDense(in, nil)
		prev.MulVec(n.weights[l].T(), delta)
		for i := 0; i < in; i++ {
			if preacts[l-1].AtVec(i) <= 0 {
				prev.SetVec(i, 0)
			}
		}
		delta = prev
	}
}

// #endregion fit

// #region predict

// PredictProbabilities runs a forward pass.
func (n *Neural) PredictProbabilities(x []float64) []float64 {
	activations, _ := n.forward(x)
	outVec := activations[len(activations)-1]
	return append([]float64(nil), outVec.RawVector().Data...)
}

// PredictLabel returns the class with the highest probability.
func (n *Neural) PredictLabel(x []float64) int {
	return n.ClassLabels[argmax(n.PredictProbabilities(x))]
}

// #endregion predict

// #region adam

// adam holds first/second moment estimates per parameter tensor.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	mW, vW                []*mat.Dense
	mB, vB                []*mat.VecDense
}

func newAdam(weights []*mat.Dense, biases []*mat.VecDense, lr float64) *adam {
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
	for l, w := range weights {
		r, c := w.Dims()
		a.mW = append(a.mW, mat.NewDense(r, c, nil))
		a.vW = append(a.vW, mat.NewDense(r, c, nil))
		a.mB = append(a.mB, mat.NewVecDense(biases[l].Len(), nil))
		a.vB = append(a.vB, mat.NewVecDense(biases[l].Len(), nil))
	}
	return a
}

func (a *adam) step(weights []*mat.Dense, biases []*mat.VecDense, gW []*mat.Dense, gB []*mat.VecDense) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for l := range weights {
		a.updateSlice(weights[l].RawMatrix().Data, gW[l].RawMatrix().Data,
			a.mW[l].RawMatrix().Data, a.vW[l].RawMatrix().Data, c1, c2)
		a.updateSlice(biases[l].RawVector().Data, gB[l].RawVector().Data,
			a.mB[l].RawVector().Data, a.vB[l].RawVector().Data, c1, c2)
	}
}

func (a *adam) updateSlice(p, g, m, v []float64, c1, c2 float64) {
	for i := range p {
		m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
		v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
		p[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
	}
}

// #endregion adam

// #region codec

// neuralState is the serialized form of a fitted network.
type neuralState struct {
	Hidden       []int       `json:"hidden"`
	Epochs       int         `json:"epochs"`
	BatchSize    int         `json:"batch_size"`
	LearningRate float64     `json:"learning_rate"`
	Classes      []int       `json:"classes"`
	LayerDims    [][2]int    `json:"layer_dims"`
	Weights      [][]float64 `json:"weights"`
	Biases       [][]float64 `json:"biases"`
}

// MarshalJSON flattens the weight matrices for artifact storage.
func (n *Neural) MarshalJSON() ([]byte, error) {
	st := neuralState{
		Hidden:       n.Hidden,
		Epochs:       n.Epochs,
		BatchSize:    n.BatchSize,
		LearningRate: n.LearningRate,
		Classes:      n.ClassLabels,
	}
	for l, w := range n.weights {
		r, c := w.Dims()
		st.LayerDims = append(st.LayerDims, [2]int{r, c})
		st.Weights = append(st.Weights, append([]float64(nil), w.RawMatrix().Data...))
		st.Biases = append(st.Biases, append([]float64(nil), n.biases[l].RawVector().Data...))
	}
	return json.Marshal(st)
}

// UnmarshalJSON rebuilds the weight matrices.
func (n *Neural) UnmarshalJSON(data []byte) error {
	var st neuralState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	n.Hidden = st.Hidden
	n.Epochs = st.Epochs
	n.BatchSize = st.BatchSize
	n.LearningRate = st.LearningRate
	n.ClassLabels = st.Classes
	n.weights = nil
	n.biases = nil
	for l, dims := range st.LayerDims {
		n.weights = append(n.weights, mat.NewDense(dims[0], dims[1], st.Weights[l]))
		n.biases = append(n.biases, mat.NewVecDense(dims[0], st.Biases[l]))
	}
	return nil
}

// #endregion codec
