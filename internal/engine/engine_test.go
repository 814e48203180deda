package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sojwal000/learning-screen/internal/feature"
	"github.com/sojwal000/learning-screen/internal/interaction"
	"github.com/sojwal000/learning-screen/internal/risk"
)

func fluentReading() interaction.Record {
	return interaction.Record{
		TextProvided: "the quick brown fox jumps over the lazy dog",
		TextRead:     "the quick brown fox jumps over the lazy dog",
		TimeTaken:    3,
	}
}

func TestProcessSubmissionReading(t *testing.T) {
	eng := NewEngine(Options{})
	cls, err := eng.ProcessSubmission(Submission{
		ID:         "sub-1",
		StudentRef: "student-7",
		TestType:   interaction.TestReading,
		Record:     fluentReading(),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if cls.SubmissionID != "sub-1" || cls.StudentRef != "student-7" {
		t.Fatalf("identity lost: %+v", cls)
	}
	if cls.PredictedClass != "none" {
		t.Fatalf("fluent reading should classify none, got %q", cls.PredictedClass)
	}
	if cls.RiskLevel != risk.LevelLow {
		t.Fatalf("expected low risk, got %s", cls.RiskLevel)
	}
	if v, ok := cls.Features.Get("accuracy"); !ok || v != 100 {
		t.Fatalf("accuracy missing or wrong: %v %v", v, ok)
	}
	for _, k := range []string{"feedback_errors", "feedback_skipped", "feedback_concerns"} {
		if !cls.Features.Has(k) {
			t.Fatalf("feedback count %s missing", k)
		}
	}
	if cls.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}

func TestProcessSubmissionAssignsID(t *testing.T) {
	eng := NewEngine(Options{})
	cls, err := eng.ProcessSubmission(Submission{
		TestType: interaction.TestReading,
		Record:   fluentReading(),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if cls.SubmissionID == "" {
		t.Fatal("submission id should be generated when absent")
	}
}

func TestProcessSubmissionStruggling(t *testing.T) {
	eng := NewEngine(Options{})
	cls, err := eng.ProcessSubmission(Submission{
		TestType: interaction.TestReading,
		Record: interaction.Record{
			TextProvided: "the big dog ran fast to the park and played with a red ball",
			TextRead:     "teh dig bog",
			TimeTaken:    90,
		},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if cls.PredictedClass != "dyslexia" {
		t.Fatalf("expected dyslexia, got %q (score %v)", cls.PredictedClass, cls.RiskScore)
	}
	if cls.RiskScore <= 0 {
		t.Fatalf("expected positive risk score, got %v", cls.RiskScore)
	}
	if len(cls.Feedback.Skipped) == 0 {
		t.Fatal("expected skipped-words feedback for a truncated read")
	}
}

func TestProcessSubmissionUnknownTypeGeneric(t *testing.T) {
	eng := NewEngine(Options{})
	cls, err := eng.ProcessSubmission(Submission{
		ID:       "sub-x",
		TestType: interaction.TestType("spelling"),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if cls.PredictedClass != "none" || cls.Confidence != 0.5 || cls.RiskLevel != risk.LevelLow {
		t.Fatalf("expected generic assessment, got %+v", cls)
	}
	if len(cls.Feedback.Concerns) == 0 {
		t.Fatal("generic assessment should carry the generic concern")
	}
}

func TestProcessSubmissionStrictRejectsUnknownType(t *testing.T) {
	eng := NewEngine(Options{Strict: true})
	_, err := eng.ProcessSubmission(Submission{
		TestType: interaction.TestType("spelling"),
	})
	if !errors.Is(err, interaction.ErrUnsupportedTestType) {
		t.Fatalf("expected ErrUnsupportedTestType, got %v", err)
	}
}

func TestProcessSubmissionWritesProvenance(t *testing.T) {
	store, err := NewScreeningStore(filepath.Join(t.TempDir(), "screenings.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer store.Close()

	eng := NewEngine(Options{Screenings: store})
	cls, err := eng.ProcessSubmission(Submission{
		ID:         "sub-log",
		StudentRef: "student-3",
		TestType:   interaction.TestReading,
		Record:     fluentReading(),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(entries))
	}
	e := entries[0]
	if e.SubmissionID != "sub-log" || e.StudentRef != "student-3" {
		t.Fatalf("identity not logged: %+v", e)
	}
	if e.TestType != "reading" || e.PredictedClass != cls.PredictedClass {
		t.Fatalf("classification not logged: %+v", e)
	}
	if e.FeaturesJSON == "" {
		t.Fatal("features snapshot not logged")
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("created_at not logged")
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store, err := NewScreeningStore(filepath.Join(t.TempDir(), "screenings.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer store.Close()

	eng := NewEngine(Options{Screenings: store})
	for _, id := range []string{"first", "second", "third"} {
		if _, err := eng.ProcessSubmission(Submission{
			ID:       id,
			TestType: interaction.TestReading,
			Record:   fluentReading(),
		}); err != nil {
			t.Fatalf("process %s: %v", id, err)
		}
	}
	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 || entries[0].SubmissionID != "third" || entries[1].SubmissionID != "second" {
		t.Fatalf("expected newest first, got %+v", entries)
	}
}

func TestMergeIntoKeepsFirstValue(t *testing.T) {
	dst := feature.NewSet()
	dst.Put("duration", 1.5)
	src := feature.NewSet()
	src.Put("duration", 9)
	src.Put("rms_mean", 0.2)
	src.PutVec("mfcc_mean", []float64{1, 2, 3})

	mergeInto(dst, src)

	if v, _ := dst.Get("duration"); v != 1.5 {
		t.Fatalf("merge clobbered existing key: %v", v)
	}
	if v, _ := dst.Get("rms_mean"); v != 0.2 {
		t.Fatalf("scalar not merged: %v", v)
	}
	if v := dst.Vec("mfcc_mean"); len(v) != 3 {
		t.Fatalf("vector not merged: %v", v)
	}
}
