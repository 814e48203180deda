package artifact

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS model_artifacts (
	name          TEXT NOT NULL,
	version       INTEGER NOT NULL,
	framework     TEXT NOT NULL,
	trained_at    TEXT NOT NULL,
	metrics_json  TEXT NOT NULL,
	model_blob    BLOB NOT NULL,
	scaler_blob   BLOB NOT NULL,
	PRIMARY KEY (name, version)
);
`

// #endregion schema

// #region store-struct

// SQLiteStore persists artifact triples as single rows. The composite
// primary key enforces that a version is written at most once; the keyed
// mutex serializes version allocation per model name within the process.
type SQLiteStore struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// #endregion store-struct

// #region constructor

// NewSQLiteStore opens a SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

// nameLock serializes version allocation per model name.
func (s *SQLiteStore) nameLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// #endregion close

// #region put

// Put inserts a triple as one row. The row insert is atomic, so partial
// triples cannot appear.
func (s *SQLiteStore) Put(t Triple) error {
	if _, ok := frameworkExt[t.Meta.Framework]; !ok {
		return fmt.Errorf("unknown framework %q", t.Meta.Framework)
	}
	metricsJSON, err := json.Marshal(t.Meta.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO model_artifacts (name, version, framework, trained_at, metrics_json, model_blob, scaler_blob)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Meta.ModelName, t.Meta.Version, t.Meta.Framework,
		t.Meta.TrainedAt.UTC().Format(time.RFC3339Nano), string(metricsJSON),
		t.Model, t.Scaler,
	)
	if err != nil {
		return fmt.Errorf("insert artifact %s v%d: %w", t.Meta.ModelName, t.Meta.Version, err)
	}
	return nil
}

// PutNext allocates max existing version + 1 and inserts the triple
// while holding the name lock, so concurrent writers for one name never
// collide. The primary key stays as the fail-loud backstop for writers
// outside this process.
func (s *SQLiteStore) PutNext(t Triple) (int, error) {
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
	if err := s.Put(t); err != nil {
		return 0, err
	}
	return version, nil
}

// #endregion put

// #region get

// Get retrieves one version.
func (s *SQLiteStore) Get(name string, version int) (Triple, error) {
	row := s.db.QueryRow(
		`SELECT name, version, framework, trained_at, metrics_json, model_blob, scaler_blob
		 FROM model_artifacts WHERE name = ? AND version = ?`, name, version,
	)
	return scanTriple(row)
}

// Latest retrieves the highest version for a name.
func (s *SQLiteStore) Latest(name string) (Triple, error) {
	row := s.db.QueryRow(
		`SELECT name, version, framework, trained_at, metrics_json, model_blob, scaler_blob
		 FROM model_artifacts WHERE name = ? ORDER BY version DESC LIMIT 1`, name,
	)
	return scanTriple(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTriple(row rowScanner) (Triple, error) {
	var t Triple
	var trainedStr, metricsJSON string
	err := row.Scan(
		&t.Meta.ModelName, &t.Meta.Version, &t.Meta.Framework,
		&trainedStr, &metricsJSON, &t.Model, &t.Scaler,
	)
	if err == sql.ErrNoRows {
		return Triple{}, ErrNotFound
	}
	if err != nil {
		return Triple{}, fmt.Errorf("scan artifact: %w", err)
	}
	t.Meta.TrainedAt, _ = time.Parse(time.RFC3339Nano, trainedStr)
	if err := json.Unmarshal([]byte(metricsJSON), &t.Meta.Metrics); err != nil {
		return Triple{}, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return t, nil
}

// #endregion get

// #region listing

// Versions lists persisted versions for a name in ascending order.
func (s *SQLiteStore) Versions(name string) ([]int, error) {
	rows, err := s.db.Query(
		`SELECT version FROM model_artifacts WHERE name = ? ORDER BY version ASC`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// List returns the metadata of every persisted artifact.
func (s *SQLiteStore) List() ([]Meta, error) {
	rows, err := s.db.Query(
		`SELECT name, version, framework, trained_at, metrics_json
		 FROM model_artifacts ORDER BY name ASC, version ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var m Meta
		var trainedStr, metricsJSON string
		if err := rows.Scan(&m.ModelName, &m.Version, &m.Framework, &trainedStr, &metricsJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		m.TrainedAt, _ = time.Parse(time.RFC3339Nano, trainedStr)
		if err := json.Unmarshal([]byte(metricsJSON), &m.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// NextVersion returns max persisted version + 1, starting at 1.
func (s *SQLiteStore) NextVersion(name string) (int, error) {
	var maxVersion sql.NullInt64
	err := s.db.QueryRow(
		`SELECT MAX(version) FROM model_artifacts WHERE name = ?`, name,
	).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}
	if !maxVersion.Valid {
		return 1, nil
	}
	return int(maxVersion.Int64) + 1, nil
}

// #endregion listing
