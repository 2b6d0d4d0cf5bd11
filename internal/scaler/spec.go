package scaler

import "fmt"

// Kinds understood by Spec.Build.
const (
	KindMinMax   = "minmax"
	KindStandard = "standard"
)

// Spec is the persisted description of a fitted transform.
//
// A minmax spec carries either min/scale (the fitted attributes) or
// data_min/data_max with an optional feature_range (default [0, 1]).
type Spec struct {
	Kind         string     `json:"kind"`
	Min          []float64  `json:"min,omitempty"`
	Scale        []float64  `json:"scale,omitempty"`
	DataMin      []float64  `json:"data_min,omitempty"`
	DataMax      []float64  `json:"data_max,omitempty"`
	FeatureRange [2]float64 `json:"feature_range,omitempty"`
	Mean         []float64  `json:"mean,omitempty"`
}

// Build turns the spec into a Transformer.
func (s Spec) Build() (Transformer, error) {
	switch s.Kind {
	case KindMinMax, "":
		if len(s.Scale) > 0 {
			if len(s.Min) != len(s.Scale) {
				return nil, fmt.Errorf("minmax: min has %d columns, scale has %d", len(s.Min), len(s.Scale))
			}
			if err := nonZero(s.Scale); err != nil {
				return nil, err
			}
			return &MinMax{Min: s.Min, Scale: s.Scale}, nil
		}
		lo, hi := s.FeatureRange[0], s.FeatureRange[1]
		if lo == 0 && hi == 0 {
			hi = 1
		}
		return NewMinMax(s.DataMin, s.DataMax, lo, hi)
	case KindStandard:
		if len(s.Mean) != len(s.Scale) || len(s.Mean) == 0 {
			return nil, fmt.Errorf("standard: mean has %d columns, scale has %d", len(s.Mean), len(s.Scale))
		}
		if err := nonZero(s.Scale); err != nil {
			return nil, err
		}
		return &Standard{Mean: s.Mean, Scale: s.Scale}, nil
	default:
		return nil, fmt.Errorf("unknown scaler kind %q", s.Kind)
	}
}

func nonZero(scale []float64) error {
	for i, v := range scale {
		if v == 0 {
			return fmt.Errorf("scale[%d] is zero", i)
		}
	}
	return nil
}
