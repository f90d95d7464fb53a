package ml

import (
	"errors"
	"fmt"
)

// Scaler is a fitted transform applied before classification.
type Scaler interface {
	NumFeatures() int
	Transform(x []float64) ([]float64, error)
}

// StandardScaler applies (x - mean) / scale per feature.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, errors.New("mean is empty")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("mean/scale length mismatch: %d vs %d", len(mean), len(scale))
	}
	s := &StandardScaler{
		Mean:  append([]float64(nil), mean...),
		Scale: make([]float64, len(scale)),
	}
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		s.Scale[i] = v
	}
	return s, nil
}

func (s *StandardScaler) NumFeatures() int {
	return len(s.Mean)
}

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if err := checkShape(x, len(s.Mean)); err != nil {
		return nil, err
	}
	result := make([]float64, len(x))
	for i := range x {
		result[i] = (x[i] - s.Mean[i]) / s.Scale[i]
	}
	return result, nil
}

// MinMaxScaler maps each feature from its fitted [min, max] onto the
// configured output range. Values outside the fitted range extrapolate unless
// Clip is set.
type MinMaxScaler struct {
	Min  []float64
	Max  []float64
	Low  float64
	High float64
	Clip bool
}

func NewMinMaxScaler(dataMin, dataMax []float64, featureRange [2]float64, clip bool) (*MinMaxScaler, error) {
	if len(dataMin) == 0 {
		return nil, errors.New("data_min is empty")
	}
	if len(dataMin) != len(dataMax) {
		return nil, fmt.Errorf("data_min/data_max length mismatch: %d vs %d", len(dataMin), len(dataMax))
	}
	if featureRange[0] >= featureRange[1] {
		return nil, fmt.Errorf("invalid feature range %v", featureRange)
	}
	return &MinMaxScaler{
		Min:  append([]float64(nil), dataMin...),
		Max:  append([]float64(nil), dataMax...),
		Low:  featureRange[0],
		High: featureRange[1],
		Clip: clip,
	}, nil
}

func (s *MinMaxScaler) NumFeatures() int {
	return len(s.Min)
}

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if err := checkShape(x, len(s.Min)); err != nil {
		return nil, err
	}
	result := make([]float64, len(x))
	for i := range x {
		result[i] = s.scale(i, x[i])
	}
	return result, nil
}

func (s *MinMaxScaler) scale(i int, value float64) float64 {
	span := s.Max[i] - s.Min[i]
	if span == 0 {
		span = 1
	}
	scaled := (value-s.Min[i])/span*(s.High-s.Low) + s.Low
	if s.Clip {
		if scaled < s.Low {
			return s.Low
		}
		if scaled > s.High {
			return s.High
		}
	}
	return scaled
}
