package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-screening
// LogScreening writes a provenance entry to the screening_log table.
func LogScreening(db *sql.DB, entry ScreeningEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO screening_log (submission_id, student_ref, test_type, predicted_class, confidence, risk_level, risk_score, features_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SubmissionID,
		nullIfEmpty(entry.StudentRef),
		entry.TestType,
		entry.PredictedClass,
		entry.Confidence,
		entry.RiskLevel,
		entry.RiskScore,
		nullIfEmpty(entry.FeaturesJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log screening: %w", err)
	}
	return nil
}

// #endregion log-screening

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
