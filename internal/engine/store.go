package engine

// #region imports
import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sojwal000/learning-screen/internal/logging"
)

// #endregion

// #region schema
const screeningSchema = `
CREATE TABLE IF NOT EXISTS screening_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	submission_id   TEXT NOT NULL,
	student_ref     TEXT,
	test_type       TEXT NOT NULL,
	predicted_class TEXT NOT NULL,
	confidence      REAL NOT NULL,
	risk_level      TEXT NOT NULL,
	risk_score      REAL NOT NULL,
	features_json   TEXT,
	created_at      TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// ScreeningStore manages the append-only screening log in SQLite.
type ScreeningStore struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewScreeningStore opens a SQLite database and runs migrations.
func NewScreeningStore(dbPath string) (*ScreeningStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(screeningSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &ScreeningStore{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *ScreeningStore) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by the provenance writer.
func (s *ScreeningStore) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region recent
// Recent returns the most recent screening entries, newest first.
func (s *ScreeningStore) Recent(limit int) ([]logging.ScreeningEntry, error) {
	rows, err := s.db.Query(
		`SELECT submission_id, student_ref, test_type, predicted_class, confidence, risk_level, risk_score, features_json, created_at
		 FROM screening_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list screenings: %w", err)
	}
	defer rows.Close()

	var entries []logging.ScreeningEntry
	for rows.Next() {
		var e logging.ScreeningEntry
		var studentRef, featuresJSON sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SubmissionID, &studentRef, &e.TestType, &e.PredictedClass,
			&e.Confidence, &e.RiskLevel, &e.RiskScore, &featuresJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if studentRef.Valid {
			e.StudentRef = studentRef.String
		}
		if featuresJSON.Valid {
			e.FeaturesJSON = featuresJSON.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion recent
