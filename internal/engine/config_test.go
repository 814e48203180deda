package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := DefaultConfig()
	if cfg != want {
		t.Fatalf("missing file should yield defaults: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.yaml")
	body := `
artifact_dir: /var/models
store_backend: sqlite
artifact_db_path: /var/models/artifacts.db
strict: true
training:
  kind: neural
  test_size: 0.3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ArtifactDir != "/var/models" || cfg.StoreBackend != "sqlite" || !cfg.Strict {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Training.Kind != "neural" || cfg.Training.TestSize != 0.3 {
		t.Fatalf("training section not applied: %+v", cfg.Training)
	}
	// Unset fields keep their defaults.
	if cfg.ScreeningDBPath != "screenings.db" || cfg.Training.Seed != 42 {
		t.Fatalf("defaults lost for unset fields: %+v", cfg)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SCREEN_MODEL_DIR", "/tmp/override-models")
	t.Setenv("SCREEN_DB_PATH", "/tmp/override.db")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ArtifactDir != "/tmp/override-models" || cfg.ScreeningDBPath != "/tmp/override.db" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("artifact_dir: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpenArtifactStoreBackends(t *testing.T) {
	dir := t.TempDir()
	fsCfg := Config{StoreBackend: "fs", ArtifactDir: filepath.Join(dir, "models")}
	if _, err := fsCfg.OpenArtifactStore(); err != nil {
		t.Fatalf("fs backend: %v", err)
	}
	dbCfg := Config{StoreBackend: "sqlite", ArtifactDBPath: filepath.Join(dir, "artifacts.db")}
	if _, err := dbCfg.OpenArtifactStore(); err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	bad := Config{StoreBackend: "s3"}
	if _, err := bad.OpenArtifactStore(); err == nil {
		t.Fatal("unknown backend should error")
	}
}
