package model

// #region imports
import (
	"fmt"
	"sync"

	"github.com/sojwal000/learning-screen/internal/artifact"
)

// #endregion

// #region cache

// loaded is one deserialized artifact triple ready for prediction.
type loaded struct {
	clf    Classifier
	scaler *Scaler
	meta   artifact.Meta
}

// Cache keeps the latest loaded model per name. Reads take the shared
// lock so concurrent predictions never deserialize twice; a new trained
// version is made visible by Invalidate.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]loaded
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]loaded)}
}

func (c *Cache) get(name string) (loaded, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

func (c *Cache) put(name string, e loaded) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = e
}

// Invalidate drops the cached model so the next prediction reloads the
// latest persisted version.
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// #endregion cache

// #region predictor

// Prediction is one model inference result.
type Prediction struct {
	Label         int       `json:"label"`
	Confidence    float64   `json:"confidence"` // highest class probability
	Probabilities []float64 `json:"probabilities"`
	ModelVersion  int       `json:"model_version"`
}

// Predictor loads persisted models and runs scaled inference. The cache
// holds the latest version per model name.
type Predictor struct {
	store artifact.Store
	cache *Cache
}

// NewPredictor wires a predictor to an artifact store.
func NewPredictor(store artifact.Store, cache *Cache) *Predictor {
	if cache == nil {
		cache = NewCache()
	}
	return &Predictor{store: store, cache: cache}
}

// Cache exposes the predictor's cache for invalidation after training.
func (p *Predictor) Cache() *Cache { return p.cache }

// Predict scales the feature row and runs the latest version of the
// named model. Missing models surface artifact.ErrNotFound.
func (p *Predictor) Predict(name string, x []float64) (Prediction, error) {
	entry, ok := p.cache.get(name)
	if !ok {
		var err error
		entry, err = p.load(name)
		if err != nil {
			return Prediction{}, err
		}
		p.cache.put(name, entry)
	}
	return predictWith(entry, x)
}

// PredictVersion runs one pinned version, bypassing the cache.
func (p *Predictor) PredictVersion(name string, version int, x []float64) (Prediction, error) {
	triple, err := p.store.Get(name, version)
	if err != nil {
		return Prediction{}, err
	}
	entry, err := decodeTriple(triple)
	if err != nil {
		return Prediction{}, err
	}
	return predictWith(entry, x)
}

func (p *Predictor) load(name string) (loaded, error) {
	triple, err := p.store.Latest(name)
	if err != nil {
		return loaded{}, err
	}
	return decodeTriple(triple)
}

func decodeTriple(triple artifact.Triple) (loaded, error) {
	clf, err := Decode(Kind(triple.Meta.Framework), triple.Model)
	if err != nil {
		return loaded{}, fmt.Errorf("load %s v%d: %w", triple.Meta.ModelName, triple.Meta.Version, err)
	}
	scaler, err := DecodeScaler(triple.Scaler)
	if err != nil {
		return loaded{}, fmt.Errorf("load %s v%d scaler: %w", triple.Meta.ModelName, triple.Meta.Version, err)
	}
	return loaded{clf: clf, scaler: scaler, meta: triple.Meta}, nil
}

func predictWith(entry loaded, x []float64) (Prediction, error) {
	scaled, err := entry.scaler.Transform(x)
	if err != nil {
		return Prediction{}, err
	}
	probs := entry.clf.PredictProbabilities(scaled)
	best := argmax(probs)
	return Prediction{
		Label:         entry.clf.Classes()[best],
		Confidence:    probs[best],
		Probabilities: probs,
		ModelVersion:  entry.meta.Version,
	}, nil
}

// #endregion predictor
