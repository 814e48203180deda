package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func sampleTriple(name string, version int, framework string) Triple {
	return Triple{
		Meta: Meta{
			ModelName: name,
			Version:   version,
			Framework: framework,
			TrainedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
			Metrics: Metrics{
				Accuracy:      0.91,
				NSamplesTrain: 80,
				NSamplesTest:  20,
				NFeatures:     50,
				Classes:       []int{0, 1, 2},
				ClassReport: map[string]ClassMetrics{
					"0": {Precision: 0.9, Recall: 0.95, F1: 0.92, Support: 8},
				},
				ConfusionMatrix:    [][]int{{8, 0, 0}, {1, 6, 0}, {0, 0, 5}},
				FeatureImportances: []float64{0.5, 0.3, 0.2},
			},
		},
		Model:  []byte(`{"trees":[]}`),
		Scaler: []byte(`{"mean":[0],"std":[1]}`),
	}
}

// storeUnderTest runs the shared contract against one backend.
func storeUnderTest(t *testing.T, name string, open func(t *testing.T) Store) {
	t.Run(name+"/put_get", func(t *testing.T) {
		s := open(t)
		want := sampleTriple("screening", 1, FrameworkEnsemble)
		if err := s.Put(want); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := s.Get("screening", 1)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Meta.ModelName != "screening" || got.Meta.Version != 1 {
			t.Fatalf("identity mismatch: %+v", got.Meta)
		}
		if got.Meta.Framework != FrameworkEnsemble {
			t.Fatalf("framework mismatch: %q", got.Meta.Framework)
		}
		if string(got.Model) != string(want.Model) || string(got.Scaler) != string(want.Scaler) {
			t.Fatal("blob round trip mismatch")
		}
		if got.Meta.Metrics.Accuracy != 0.91 {
			t.Fatalf("metrics lost: %+v", got.Meta.Metrics)
		}
		if got.Meta.Metrics.ClassReport["0"].Support != 8 {
			t.Fatalf("class report lost: %+v", got.Meta.Metrics.ClassReport)
		}
		if !got.Meta.TrainedAt.Equal(want.Meta.TrainedAt) {
			t.Fatalf("trained_at mismatch: %v vs %v", got.Meta.TrainedAt, want.Meta.TrainedAt)
		}
	})

	t.Run(name+"/not_found", func(t *testing.T) {
		s := open(t)
		if _, err := s.Get("absent", 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("get: expected ErrNotFound, got %v", err)
		}
		if _, err := s.Latest("absent"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("latest: expected ErrNotFound, got %v", err)
		}
	})

	t.Run(name+"/duplicate_version_rejected", func(t *testing.T) {
		s := open(t)
		if err := s.Put(sampleTriple("screening", 1, FrameworkEnsemble)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := s.Put(sampleTriple("screening", 1, FrameworkNeural)); err == nil {
			t.Fatal("expected duplicate version rejection")
		}
		got, err := s.Get("screening", 1)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Meta.Framework != FrameworkEnsemble {
			t.Fatalf("original artifact clobbered: %q", got.Meta.Framework)
		}
	})

	t.Run(name+"/unknown_framework_rejected", func(t *testing.T) {
		s := open(t)
		if err := s.Put(sampleTriple("screening", 1, "svm")); err == nil {
			t.Fatal("expected unknown framework rejection")
		}
		if _, err := s.PutNext(sampleTriple("screening", 0, "svm")); err == nil {
			t.Fatal("expected unknown framework rejection from PutNext")
		}
		if v, err := s.NextVersion("screening"); err != nil || v != 1 {
			t.Fatalf("rejected put must leave store empty, next version %d err %v", v, err)
		}
	})

	t.Run(name+"/versions_and_latest", func(t *testing.T) {
		s := open(t)
		for _, v := range []int{1, 2, 3} {
			if err := s.Put(sampleTriple("screening", v, FrameworkGradientBoosted)); err != nil {
				t.Fatalf("put v%d: %v", v, err)
			}
		}
		versions, err := s.Versions("screening")
		if err != nil {
			t.Fatalf("versions: %v", err)
		}
		if len(versions) != 3 || versions[0] != 1 || versions[2] != 3 {
			t.Fatalf("unexpected versions %v", versions)
		}
		latest, err := s.Latest("screening")
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if latest.Meta.Version != 3 {
			t.Fatalf("latest should be v3, got v%d", latest.Meta.Version)
		}
		next, err := s.NextVersion("screening")
		if err != nil || next != 4 {
			t.Fatalf("next version should be 4, got %d err %v", next, err)
		}
	})

	t.Run(name+"/put_next_assigns_versions", func(t *testing.T) {
		s := open(t)
		for want := 1; want <= 3; want++ {
			got, err := s.PutNext(sampleTriple("screening", 0, FrameworkEnsemble))
			if err != nil {
				t.Fatalf("put next: %v", err)
			}
			if got != want {
				t.Fatalf("expected version %d, got %d", want, got)
			}
		}
		latest, err := s.Latest("screening")
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if latest.Meta.Version != 3 {
			t.Fatalf("latest should be v3, got v%d", latest.Meta.Version)
		}
	})

	t.Run(name+"/put_next_concurrent", func(t *testing.T) {
		s := open(t)
		const writers = 8
		versions := make([]int, writers)
		errs := make([]error, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				versions[i], errs[i] = s.PutNext(sampleTriple("screening", 0, FrameworkEnsemble))
			}(i)
		}
		wg.Wait()

		seen := make(map[int]bool, writers)
		for i := 0; i < writers; i++ {
			if errs[i] != nil {
				t.Fatalf("writer %d: %v", i, errs[i])
			}
			if seen[versions[i]] {
				t.Fatalf("version %d assigned twice", versions[i])
			}
			seen[versions[i]] = true
		}
		for v := 1; v <= writers; v++ {
			if !seen[v] {
				t.Fatalf("version %d never assigned: %v", v, versions)
			}
		}
	})

	t.Run(name+"/list_sorted", func(t *testing.T) {
		s := open(t)
		if err := s.Put(sampleTriple("writing", 1, FrameworkNeural)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := s.Put(sampleTriple("reading", 2, FrameworkEnsemble)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := s.Put(sampleTriple("reading", 1, FrameworkEnsemble)); err != nil {
			t.Fatalf("put: %v", err)
		}
		metas, err := s.List()
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(metas) != 3 {
			t.Fatalf("expected 3 artifacts, got %d", len(metas))
		}
		if metas[0].ModelName != "reading" || metas[0].Version != 1 {
			t.Fatalf("list order wrong: %+v", metas[0])
		}
		if metas[2].ModelName != "writing" {
			t.Fatalf("list order wrong: %+v", metas[2])
		}
	})
}

func TestFSStoreContract(t *testing.T) {
	storeUnderTest(t, "fs", func(t *testing.T) Store {
		s, err := NewFSStore(t.TempDir())
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		return s
	})
}

func TestSQLiteStoreContract(t *testing.T) {
	storeUnderTest(t, "sqlite", func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "artifacts.db"))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestFSStoreFileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(sampleTriple("screening", 1, FrameworkNeural)); err != nil {
		t.Fatalf("put: %v", err)
	}
	for _, fn := range []string{
		"screening_v1.neural",
		"screening_scaler_v1.bin",
		"screening_metadata_v1.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, fn)); err != nil {
			t.Fatalf("expected file %s: %v", fn, err)
		}
	}
}

func TestFSStoreBlobWithoutMetadataInvisible(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// A crash between blob and metadata writes leaves orphan blobs; they
	// must not surface as a listed version.
	if err := os.WriteFile(filepath.Join(dir, "screening_v1.ensemble"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write orphan: %v", err)
	}
	versions, err := s.Versions("screening")
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("orphan blob leaked into versions: %v", versions)
	}
	if _, err := s.Latest("screening"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFSStoreFrameworkProbeFallback(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(sampleTriple("screening", 1, FrameworkGradientBoosted)); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Old metadata documents lack the framework field; loading must find
	// the model file by probing extensions.
	metaPath := filepath.Join(dir, "screening_metadata_v1.json")
	if err := os.WriteFile(metaPath, []byte(`{"model_name":"screening","version":1}`), 0o644); err != nil {
		t.Fatalf("rewrite metadata: %v", err)
	}
	got, err := s.Get("screening", 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Meta.Framework != FrameworkGradientBoosted {
		t.Fatalf("probe should recover framework, got %q", got.Meta.Framework)
	}
}
