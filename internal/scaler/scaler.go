// Package scaler holds the fitted normalization transforms used to feed the
// sequence model and to map its output back to price units.
package scaler

import (
	"errors"
	"fmt"
)

// ErrWidth is returned when a row does not match the transformer width.
var ErrWidth = errors.New("scaler: width mismatch")

// Transformer is a fitted, invertible, column-wise numeric transform.
type Transformer interface {
	Transform(row []float64) ([]float64, error)
	Inverse(row []float64) ([]float64, error)
	Width() int
}

// MinMax maps each column linearly: x*Scale + Min, with sklearn MinMaxScaler semantics.
type MinMax struct {
	Min   []float64
	Scale []float64
}

// NewMinMax fits the transform that maps [dataMin, dataMax] onto [lo, hi] per column.
// Constant columns get a unit range, as sklearn does.
func NewMinMax(dataMin, dataMax []float64, lo, hi float64) (*MinMax, error) {
	if len(dataMin) != len(dataMax) || len(dataMin) == 0 {
		return nil, fmt.Errorf("minmax: data_min has %d columns, data_max has %d", len(dataMin), len(dataMax))
	}
	if hi <= lo {
		return nil, fmt.Errorf("minmax: invalid feature range [%g, %g]", lo, hi)
	}
	m := &MinMax{Min: make([]float64, len(dataMin)), Scale: make([]float64, len(dataMin))}
	for i := range dataMin {
		rng := dataMax[i] - dataMin[i]
		if rng == 0 {
			rng = 1
		}
		m.Scale[i] = (hi - lo) / rng
		m.Min[i] = lo - dataMin[i]*m.Scale[i]
	}
	return m, nil
}

func (m *MinMax) Width() int { return len(m.Scale) }

func (m *MinMax) Transform(row []float64) ([]float64, error) {
	if len(row) != m.Width() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWidth, len(row), m.Width())
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v*m.Scale[i] + m.Min[i]
	}
	return out, nil
}

func (m *MinMax) Inverse(row []float64) ([]float64, error) {
	if len(row) != m.Width() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWidth, len(row), m.Width())
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - m.Min[i]) / m.Scale[i]
	}
	return out, nil
}

// Standard maps each column to (x - Mean) / Scale.
type Standard struct {
	Mean  []float64
	Scale []float64
}

func (s *Standard) Width() int { return len(s.Scale) }

func (s *Standard) Transform(row []float64) ([]float64, error) {
	if len(row) != s.Width() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWidth, len(row), s.Width())
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

func (s *Standard) Inverse(row []float64) ([]float64, error) {
	if len(row) != s.Width() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWidth, len(row), s.Width())
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v*s.Scale[i] + s.Mean[i]
	}
	return out, nil
}

// Params is the per-symbol pair of feature and target transforms.
type Params struct {
	Feature Transformer
	Target  Transformer
}

// InverseTarget maps one normalized model output back to price units.
func (p Params) InverseTarget(v float64) (float64, error) {
	out, err := p.Target.Inverse([]float64{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// TransformTarget normalizes one price value with the target transform.
func (p Params) TransformTarget(v float64) (float64, error) {
	out, err := p.Target.Transform([]float64{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}
