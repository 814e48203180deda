package engine

// #region imports
import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sojwal000/learning-screen/internal/artifact"
)

// #endregion

// #region config

// TrainingConfig holds the defaults applied when a training run does
// not specify its own options.
type TrainingConfig struct {
	Kind     string  `yaml:"kind"`
	TestSize float64 `yaml:"test_size"`
	Seed     int64   `yaml:"seed"`
}

// Config is the engine's file-based configuration. All fields have
// working defaults; a missing config file is not an error.
type Config struct {
	ArtifactDir     string         `yaml:"artifact_dir"`
	StoreBackend    string         `yaml:"store_backend"` // "fs" | "sqlite"
	ArtifactDBPath  string         `yaml:"artifact_db_path"`
	ScreeningDBPath string         `yaml:"screening_db_path"`
	Strict          bool           `yaml:"strict"`
	Training        TrainingConfig `yaml:"training"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ArtifactDir:     "trained_models",
		StoreBackend:    "fs",
		ArtifactDBPath:  "artifacts.db",
		ScreeningDBPath: "screenings.db",
		Training: TrainingConfig{
			Kind:     "ensemble",
			TestSize: 0.2,
			Seed:     42,
		},
	}
}

// LoadConfig reads a YAML config file and applies environment
// overrides. An empty path or a missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if v := os.Getenv("SCREEN_MODEL_DIR"); v != "" {
		cfg.ArtifactDir = v
	}
	if v := os.Getenv("SCREEN_DB_PATH"); v != "" {
		cfg.ScreeningDBPath = v
	}
	return cfg, nil
}

// OpenArtifactStore constructs the configured artifact backend.
func (c Config) OpenArtifactStore() (artifact.Store, error) {
	switch c.StoreBackend {
	case "", "fs":
		return artifact.NewFSStore(c.ArtifactDir)
	case "sqlite":
		return artifact.NewSQLiteStore(c.ArtifactDBPath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
}

// #endregion config
