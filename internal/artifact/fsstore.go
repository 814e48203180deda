package artifact

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// #endregion

// #region naming

// Framework identifiers accepted in metadata and used to pick the model
// file extension. Loading inspects which model file exists on disk, so
// the extension must be unique per framework.
const (
	FrameworkEnsemble        = "ensemble"
	FrameworkGradientBoosted = "gradient_boosted"
	FrameworkNeural          = "neural"
)

var frameworkExt = map[string]string{
	FrameworkEnsemble:        ".ensemble",
	FrameworkGradientBoosted: ".gbt",
	FrameworkNeural:          ".neural",
}

func modelFileName(name string, version int, framework string) string {
	return fmt.Sprintf("%s_v%d%s", name, version, frameworkExt[framework])
}

func scalerFileName(name string, version int) string {
	return fmt.Sprintf("%s_scaler_v%d.bin", name, version)
}

func metaFileName(name string, version int) string {
	return fmt.Sprintf("%s_metadata_v%d.json", name, version)
}

// #endregion naming

// #region store

// FSStore persists artifact triples as three sibling files per version
// under a single directory. Metadata files are the authoritative index:
// a model blob without its metadata document is treated as absent.
type FSStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFSStore creates the directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FSStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// nameLock serializes writes per model name.
func (s *FSStore) nameLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Put writes a triple under the explicit version carried in its
// metadata. The version must be unused.
func (s *FSStore) Put(t Triple) error {
	if _, ok := frameworkExt[t.Meta.Framework]; !ok {
		return fmt.Errorf("unknown framework %q", t.Meta.Framework)
	}
	l := s.nameLock(t.Meta.ModelName)
	l.Lock()
	defer l.Unlock()

	if _, err := os.Stat(filepath.Join(s.dir, metaFileName(t.Meta.ModelName, t.Meta.Version))); err == nil {
		return fmt.Errorf("artifact %s v%d already exists", t.Meta.ModelName, t.Meta.Version)
	}
	return s.writeTriple(t)
}

// PutNext assigns max existing version + 1 and writes the triple without
// releasing the name lock in between, so concurrent writers for one name
// never collide on a version.
func (s *FSStore) PutNext(t Triple) (int, error) {
	if _, ok := frameworkExt[t.Meta.Framework]; !ok {
		return 0, fmt.Errorf("unknown framework %q", t.Meta.Framework)
	}
	l := s.nameLock(t.Meta.ModelName)
	l.Lock()
	defer l.Unlock()

	version, err := s.NextVersion(t.Meta.ModelName)
	if err != nil {
		return 0, err
	}
	t.Meta.Version = version
	if err := s.writeTriple(t); err != nil {
		return 0, err
	}
	return version, nil
}

// writeTriple writes the model and scaler blobs first and the metadata
// document last, so a crash mid-write never yields a listed but
// incomplete triple. Callers hold the name lock.
func (s *FSStore) writeTriple(t Triple) error {
	modelPath := filepath.Join(s.dir, modelFileName(t.Meta.ModelName, t.Meta.Version, t.Meta.Framework))
	scalerPath := filepath.Join(s.dir, scalerFileName(t.Meta.ModelName, t.Meta.Version))
	metaPath := filepath.Join(s.dir, metaFileName(t.Meta.ModelName, t.Meta.Version))

	if err := os.WriteFile(modelPath, t.Model, 0o644); err != nil {
		return fmt.Errorf("write model blob: %w", err)
	}
	if err := os.WriteFile(scalerPath, t.Scaler, 0o644); err != nil {
		os.Remove(modelPath)
		return fmt.Errorf("write scaler blob: %w", err)
	}
	metaBytes, err := json.MarshalIndent(t.Meta, "", "  ")
	if err != nil {
		os.Remove(modelPath)
		os.Remove(scalerPath)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
		os.Remove(modelPath)
		os.Remove(scalerPath)
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Get reads one triple. The framework recorded in metadata selects the
// model file; when metadata predates the framework field the store falls
// back to probing each known extension.
func (s *FSStore) Get(name string, version int) (Triple, error) {
	metaBytes, err := os.ReadFile(filepath.Join(s.dir, metaFileName(name, version)))
	if os.IsNotExist(err) {
		return Triple{}, ErrNotFound
	}
	if err != nil {
		return Triple{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return Triple{}, fmt.Errorf("decode metadata %s v%d: %w", name, version, err)
	}

	modelBytes, framework, err := s.readModelBlob(name, version, meta.Framework)
	if err != nil {
		return Triple{}, err
	}
	meta.Framework = framework

	scalerBytes, err := os.ReadFile(filepath.Join(s.dir, scalerFileName(name, version)))
	if err != nil {
		return Triple{}, fmt.Errorf("read scaler blob: %w", err)
	}
	return Triple{Meta: meta, Model: modelBytes, Scaler: scalerBytes}, nil
}

func (s *FSStore) readModelBlob(name string, version int, framework string) ([]byte, string, error) {
	candidates := []string{framework}
	if framework == "" {
		candidates = []string{FrameworkEnsemble, FrameworkGradientBoosted, FrameworkNeural}
	}
	for _, fw := range candidates {
		b, err := os.ReadFile(filepath.Join(s.dir, modelFileName(name, version, fw)))
		if err == nil {
			return b, fw, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("read model blob: %w", err)
		}
	}
	return nil, "", fmt.Errorf("model blob missing for %s v%d: %w", name, version, ErrNotFound)
}

// Latest returns the highest persisted version.
func (s *FSStore) Latest(name string) (Triple, error) {
	versions, err := s.Versions(name)
	if err != nil {
		return Triple{}, err
	}
	if len(versions) == 0 {
		return Triple{}, ErrNotFound
	}
	return s.Get(name, versions[len(versions)-1])
}

// Versions scans metadata filenames; blobs without metadata are invisible.
func (s *FSStore) Versions(name string) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan artifact dir: %w", err)
	}
	prefix := name + "_metadata_v"
	var versions []int
	for _, e := range entries {
		fn := e.Name()
		if !strings.HasPrefix(fn, prefix) || !strings.HasSuffix(fn, ".json") {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(fn, prefix), ".json"))
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

// List decodes every metadata document in the directory.
func (s *FSStore) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan artifact dir: %w", err)
	}
	var metas []Meta
	for _, e := range entries {
		fn := e.Name()
		if !strings.Contains(fn, "_metadata_v") || !strings.HasSuffix(fn, ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, fn))
		if err != nil {
			return nil, fmt.Errorf("read metadata %s: %w", fn, err)
		}
		var meta Meta
		if err := json.Unmarshal(b, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", fn, err)
		}
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].ModelName != metas[j].ModelName {
			return metas[i].ModelName < metas[j].ModelName
		}
		return metas[i].Version < metas[j].Version
	})
	return metas, nil
}

// NextVersion returns max persisted version + 1, starting at 1.
func (s *FSStore) NextVersion(name string) (int, error) {
	versions, err := s.Versions(name)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 1, nil
	}
	return versions[len(versions)-1] + 1, nil
}

// #endregion store
