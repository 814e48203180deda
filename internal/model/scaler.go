package model

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// #endregion

// #region scaler

// Scaler standardizes feature columns to zero mean and unit variance
// using the training population statistics. Columns with zero spread
// keep a unit divisor so scaling never produces NaN.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes column statistics over the training rows.
func FitScaler(X [][]float64) (*Scaler, error) {
	if len(X) == 0 {
		return nil, errors.New("no rows to fit scaler")
	}
	nFeat := len(X[0])
	s := &Scaler{Mean: make([]float64, nFeat), Std: make([]float64, nFeat)}
	col := make([]float64, len(X))
	for j := 0; j < nFeat; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		s.Std[j] = stat.PopStdDev(col, nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s, nil
}

// Transform standardizes one feature row.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("feature width %d does not match scaler width %d", len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// TransformAll standardizes a batch of rows.
func (s *Scaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		t, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// #endregion scaler

// #region codec

// EncodeScaler serializes the scaler for artifact storage.
func EncodeScaler(s *Scaler) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode scaler: %w", err)
	}
	return b, nil
}

// DecodeScaler reconstructs a scaler from an artifact blob.
func DecodeScaler(blob []byte) (*Scaler, error) {
	var s Scaler
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	return &s, nil
}

// #endregion codec
