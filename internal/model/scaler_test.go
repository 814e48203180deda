package model

import (
	"math"
	"testing"
)

func TestScalerStandardizesColumns(t *testing.T) {
	X := [][]float64{
		{1, 100},
		{2, 200},
		{3, 300},
	}
	s, err := FitScaler(X)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(s.Mean[0]-2) > 1e-12 || math.Abs(s.Mean[1]-200) > 1e-12 {
		t.Fatalf("unexpected means: %v", s.Mean)
	}

	out, err := s.TransformAll(X)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	for col := 0; col < 2; col++ {
		sum := 0.0
		for _, row := range out {
			sum += row[col]
		}
		if math.Abs(sum) > 1e-9 {
			t.Fatalf("column %d not centered, sum %v", col, sum)
		}
	}
}

func TestScalerConstantColumnSafe(t *testing.T) {
	X := [][]float64{{5, 1}, {5, 2}, {5, 3}}
	s, err := FitScaler(X)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	row, err := s.Transform([]float64{5, 2})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if row[0] != 0 {
		t.Fatalf("constant column should map to 0, got %v", row[0])
	}
	if math.IsNaN(row[0]) || math.IsInf(row[0], 0) {
		t.Fatalf("constant column produced non-finite value %v", row[0])
	}
}

func TestScalerWidthMismatch(t *testing.T) {
	s, err := FitScaler([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := s.Transform([]float64{1}); err == nil {
		t.Fatal("expected width mismatch error")
	}
}

func TestScalerEncodeDecodeRoundTrip(t *testing.T) {
	s, err := FitScaler([][]float64{{1, 10}, {2, 20}, {3, 30}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	blob, err := EncodeScaler(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeScaler(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	a, err := s.Transform([]float64{2.5, 17})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	b, err := back.Transform([]float64{2.5, 17})
	if err != nil {
		t.Fatalf("transform decoded: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("decoded scaler drifted: %v vs %v", a, b)
		}
	}
}
