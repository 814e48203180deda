package model

import (
	"errors"
	"sync"
	"testing"

	"github.com/sojwal000/learning-screen/internal/artifact"
)

func newTestStore(t *testing.T) artifact.Store {
	t.Helper()
	store, err := artifact.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return store
}

func TestTrainPersistsArtifactTriple(t *testing.T) {
	store := newTestStore(t)
	X, y := twoClusterData(12)

	res, err := NewTrainer(store).Train(X, y, TrainOptions{
		ModelName: "screening",
		Kind:      KindEnsemble,
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if res.Meta.Version != 1 {
		t.Fatalf("first version should be 1, got %d", res.Meta.Version)
	}
	if res.Meta.Framework != artifact.FrameworkEnsemble {
		t.Fatalf("unexpected framework %q", res.Meta.Framework)
	}
	if res.Meta.Metrics.Accuracy < 0.9 {
		t.Fatalf("separable data should score high accuracy, got %v", res.Meta.Metrics.Accuracy)
	}
	if res.Meta.Metrics.NFeatures != 3 {
		t.Fatalf("expected 3 features, got %d", res.Meta.Metrics.NFeatures)
	}
	if got := res.Meta.Metrics.Classes; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("unexpected classes %v", got)
	}
	if _, ok := res.Meta.Metrics.ClassReport["0"]; !ok {
		t.Fatal("class report missing label 0")
	}

	triple, err := store.Latest("screening")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(triple.Model) == 0 || len(triple.Scaler) == 0 {
		t.Fatal("persisted triple missing model or scaler blob")
	}
}

func TestTrainVersionsIncrement(t *testing.T) {
	store := newTestStore(t)
	X, y := twoClusterData(10)
	tr := NewTrainer(store)

	for want := 1; want <= 3; want++ {
		res, err := tr.Train(X, y, TrainOptions{ModelName: "screening", Kind: KindEnsemble})
		if err != nil {
			t.Fatalf("train %d: %v", want, err)
		}
		if res.Meta.Version != want {
			t.Fatalf("expected version %d, got %d", want, res.Meta.Version)
		}
	}
}

func TestTrainConcurrentSameName(t *testing.T) {
	store := newTestStore(t)
	X, y := twoClusterData(10)
	tr := NewTrainer(store)

	const n = 4
	start := make(chan struct{})
	versions := make([]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			res, err := tr.Train(X, y, TrainOptions{ModelName: "screening", Kind: KindEnsemble})
			versions[i], errs[i] = res.Meta.Version, err
		}(i)
	}
	close(start)
	wg.Wait()

	// Every run must land on its own version; none may be discarded.
	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("run %d: %v", i, errs[i])
		}
		if seen[versions[i]] {
			t.Fatalf("version %d assigned twice", versions[i])
		}
		seen[versions[i]] = true
	}
	for want := 1; want <= n; want++ {
		if !seen[want] {
			t.Fatalf("version %d never assigned, got %v", want, versions)
		}
	}
}

func TestTrainRejectsBeforeWriting(t *testing.T) {
	store := newTestStore(t)
	tr := NewTrainer(store)
	X, y := twoClusterData(10)

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"unknown kind", func() error {
			_, err := tr.Train(X, y, TrainOptions{ModelName: "m", Kind: Kind("svm")})
			return err
		}, ErrInvalidKind},
		{"singleton class", func() error {
			_, err := tr.Train([][]float64{{1}, {2}, {3}}, []int{0, 0, 1},
				TrainOptions{ModelName: "m", Kind: KindEnsemble})
			return err
		}, ErrUnstratifiable},
		{"empty data", func() error {
			_, err := tr.Train(nil, nil, TrainOptions{ModelName: "m", Kind: KindEnsemble})
			return err
		}, nil},
		{"missing name", func() error {
			_, err := tr.Train(X, y, TrainOptions{Kind: KindEnsemble})
			return err
		}, nil},
	}
	for _, tc := range cases {
		err := tc.run()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	// No precondition failure may burn a version or leave files behind.
	if v, err := store.NextVersion("m"); err != nil || v != 1 {
		t.Fatalf("store should be untouched, next version %d err %v", v, err)
	}
}

func TestTrainLoadPredictRoundTrip(t *testing.T) {
	store := newTestStore(t)
	X, y := twoClusterData(12)

	for _, kind := range []Kind{KindEnsemble, KindGradientBoosted} {
		name := "screening-" + string(kind)
		if _, err := NewTrainer(store).Train(X, y, TrainOptions{ModelName: name, Kind: kind}); err != nil {
			t.Fatalf("%s train: %v", kind, err)
		}

		pred := NewPredictor(store, nil)
		low, err := pred.Predict(name, []float64{1, 1, 0})
		if err != nil {
			t.Fatalf("%s predict: %v", kind, err)
		}
		if low.Label != 0 {
			t.Fatalf("%s: expected class 0, got %d", kind, low.Label)
		}
		high, err := pred.Predict(name, []float64{8, 9, 5})
		if err != nil {
			t.Fatalf("%s predict: %v", kind, err)
		}
		if high.Label != 1 {
			t.Fatalf("%s: expected class 1, got %d", kind, high.Label)
		}
		if high.ModelVersion != 1 {
			t.Fatalf("%s: expected version 1, got %d", kind, high.ModelVersion)
		}
		if high.Confidence <= 0 || high.Confidence > 1 {
			t.Fatalf("%s: confidence out of range: %v", kind, high.Confidence)
		}
	}
}

func TestPredictorCacheInvalidation(t *testing.T) {
	store := newTestStore(t)
	X, y := twoClusterData(12)
	tr := NewTrainer(store)

	if _, err := tr.Train(X, y, TrainOptions{ModelName: "screening", Kind: KindEnsemble}); err != nil {
		t.Fatalf("train v1: %v", err)
	}
	pred := NewPredictor(store, nil)
	p1, err := pred.Predict("screening", []float64{1, 1, 0})
	if err != nil {
		t.Fatalf("predict v1: %v", err)
	}
	if p1.ModelVersion != 1 {
		t.Fatalf("expected version 1, got %d", p1.ModelVersion)
	}

	if _, err := tr.Train(X, y, TrainOptions{ModelName: "screening", Kind: KindEnsemble}); err != nil {
		t.Fatalf("train v2: %v", err)
	}

	// Cached entry keeps serving until invalidated.
	p2, err := pred.Predict("screening", []float64{1, 1, 0})
	if err != nil {
		t.Fatalf("predict cached: %v", err)
	}
	if p2.ModelVersion != 1 {
		t.Fatalf("cache should still serve v1, got %d", p2.ModelVersion)
	}

	pred.Cache().Invalidate("screening")
	p3, err := pred.Predict("screening", []float64{1, 1, 0})
	if err != nil {
		t.Fatalf("predict after invalidate: %v", err)
	}
	if p3.ModelVersion != 2 {
		t.Fatalf("expected version 2 after invalidation, got %d", p3.ModelVersion)
	}
}

func TestPredictMissingModel(t *testing.T) {
	pred := NewPredictor(newTestStore(t), nil)
	if _, err := pred.Predict("absent", []float64{1, 2, 3}); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPredictVersionPinned(t *testing.T) {
	store := newTestStore(t)
	X, y := twoClusterData(12)
	tr := NewTrainer(store)
	for i := 0; i < 2; i++ {
		if _, err := tr.Train(X, y, TrainOptions{ModelName: "screening", Kind: KindEnsemble}); err != nil {
			t.Fatalf("train: %v", err)
		}
	}
	pred := NewPredictor(store, nil)
	p, err := pred.PredictVersion("screening", 1, []float64{8, 9, 5})
	if err != nil {
		t.Fatalf("predict pinned: %v", err)
	}
	if p.ModelVersion != 1 {
		t.Fatalf("expected pinned version 1, got %d", p.ModelVersion)
	}
	if _, err := pred.PredictVersion("screening", 9, []float64{8, 9, 5}); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent version, got %v", err)
	}
}
