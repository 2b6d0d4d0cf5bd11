package modelstore

import (
	"context"
	"fmt"
	"math"
)

// LinearModel is a dense readout over the whole input window:
// out = activation(sum(W[t][f] * x[t][f]) + Bias).
type LinearModel struct {
	Weights    [][]float64
	Bias       float64
	Activation string // "linear" (default) or "sigmoid"
}

// Infer implements forecast.SequenceModel.
func (m *LinearModel) Infer(_ context.Context, window [][]float64) (float64, error) {
	if len(window) != len(m.Weights) {
		return 0, fmt.Errorf("linear model: window has %d steps, want %d", len(window), len(m.Weights))
	}
	sum := m.Bias
	for t, row := range window {
		w := m.Weights[t]
		if len(row) != len(w) {
			return 0, fmt.Errorf("linear model: step %d has %d features, want %d", t, len(row), len(w))
		}
		for f, x := range row {
			sum += w[f] * x
		}
	}
	if m.Activation == "sigmoid" {
		return 1 / (1 + math.Exp(-sum)), nil
	}
	return sum, nil
}

func (m *LinearModel) shape() (steps, width int) {
	if len(m.Weights) == 0 {
		return 0, 0
	}
	return len(m.Weights), len(m.Weights[0])
}
