package logging

import "time"

// #region screening-entry
// ScreeningEntry is a single row in the screening_log table. One entry
// is appended per processed submission, so every classification the
// engine ever produced can be audited or replayed later.
type ScreeningEntry struct {
	SubmissionID   string
	StudentRef     string
	TestType       string
	PredictedClass string
	Confidence     float64
	RiskLevel      string
	RiskScore      float64
	FeaturesJSON   string
	CreatedAt      time.Time
}

// #endregion screening-entry
