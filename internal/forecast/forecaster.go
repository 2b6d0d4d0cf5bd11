package forecast

import (
	"context"
	"fmt"
	"time"
)

// SequenceModel is the trained predictor: given a window it returns the
// next-step normalized target. Implementations must be deterministic and
// safe for concurrent use.
type SequenceModel interface {
	Infer(ctx context.Context, window [][]float64) (float64, error)
}

// ModelFunc adapts a plain function to SequenceModel.
type ModelFunc func(ctx context.Context, window [][]float64) (float64, error)

func (f ModelFunc) Infer(ctx context.Context, window [][]float64) (float64, error) {
	return f(ctx, window)
}

// InferObserver receives the duration of every model call. Optional.
type InferObserver func(d time.Duration, err error)

// Forecaster rolls the sequence model forward to produce multi-day predictions.
type Forecaster struct {
	Model   SequenceModel
	Scalers Resolver
	MaxDays int // 0 means unbounded
	Observe InferObserver
}

// NewForecaster creates a Forecaster.
func NewForecaster(m SequenceModel, scalers Resolver, maxDays int) *Forecaster {
	return &Forecaster{Model: m, Scalers: scalers, MaxDays: maxDays}
}

// Forecast returns daysAhead price predictions, nearest day first.
//
// After each step the window is rotated by one row; the freed slot reuses the
// oldest row instead of freshly derived indicators, since those would depend
// on prices not yet known. Accuracy therefore degrades with the horizon.
func (f *Forecaster) Forecast(ctx context.Context, window Window, daysAhead int, symbol string) ([]float64, error) {
	if daysAhead < 1 || (f.MaxDays > 0 && daysAhead > f.MaxDays) {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrInvalidHorizon, daysAhead, f.MaxDays)
	}
	if window.Len() == 0 {
		return nil, &InsufficientDataError{}
	}
	params, _, err := f.Scalers.Resolve(symbol)
	if err != nil {
		return nil, fmt.Errorf("resolve scaler for %s: %w", symbol, err)
	}

	current := window.Clone()
	predictions := make([]float64, 0, daysAhead)
	for step := 0; step < daysAhead; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		scaled, err := f.Model.Infer(ctx, current)
		if f.Observe != nil {
			f.Observe(time.Since(start), err)
		}
		if err != nil {
			return nil, &ModelInferenceError{Step: step, Err: err}
		}

		price, err := params.InverseTarget(scaled)
		if err != nil {
			return nil, &ModelInferenceError{Step: step, Err: fmt.Errorf("inverse target: %w", err)}
		}
		predictions = append(predictions, price)

		current.Roll()
	}
	return predictions, nil
}
