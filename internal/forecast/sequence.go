package forecast

import (
	"errors"
	"fmt"
	"math"

	"StockForecast/internal/model"
	"StockForecast/internal/scaler"
)

// DefaultSequenceLength is the number of trailing steps the model consumes.
const DefaultSequenceLength = 60

// Resolver resolves a symbol to its scaler params.
type Resolver interface {
	Resolve(symbol string) (scaler.Params, scaler.Resolution, error)
}

// SequenceBuilder turns an indicator-augmented feature matrix into a
// normalized, fixed-length input window.
type SequenceBuilder struct {
	Scalers Resolver
}

// NewSequenceBuilder creates a SequenceBuilder.
func NewSequenceBuilder(scalers Resolver) *SequenceBuilder {
	return &SequenceBuilder{Scalers: scalers}
}

// Build selects columns from fm, fills undefined cells, normalizes each row with
// the symbol's feature scaler and returns the last seqLen rows. With fewer rows
// the window is left-padded by repeating the most recent normalized row.
func (b *SequenceBuilder) Build(fm *model.FeatureMatrix, symbol string, columns []string, seqLen int) (Window, scaler.Resolution, error) {
	if seqLen <= 0 {
		return nil, scaler.Resolution{}, fmt.Errorf("sequence length must be positive, got %d", seqLen)
	}
	if fm == nil || fm.Len() == 0 {
		return nil, scaler.Resolution{}, &InsufficientDataError{}
	}

	features, err := selectFilled(fm, columns)
	if err != nil {
		return nil, scaler.Resolution{}, err
	}

	params, res, err := b.Scalers.Resolve(symbol)
	if err != nil {
		return nil, res, fmt.Errorf("resolve scaler for %s: %w", symbol, err)
	}

	rows := fm.Len()
	scaled := make([][]float64, rows)
	row := make([]float64, len(columns))
	for i := 0; i < rows; i++ {
		for j := range columns {
			row[j] = features[j][i]
		}
		if scaled[i], err = params.Feature.Transform(row); err != nil {
			return nil, res, fmt.Errorf("scale features for %s: %w", symbol, err)
		}
	}

	return padWindow(scaled, seqLen), res, nil
}

// selectFilled copies the requested columns, back-filling leading NaN from the
// nearest later value and forward-filling the rest from the nearest earlier one.
// A column with no defined value at all (history shorter than its lookback)
// becomes all zero.
func selectFilled(fm *model.FeatureMatrix, columns []string) ([][]float64, error) {
	out := make([][]float64, len(columns))
	for j, name := range columns {
		col, ok := fm.Column(name)
		if !ok {
			return nil, &UnknownColumnError{Column: name}
		}
		filled := append([]float64(nil), col...)
		if backFill(filled) {
			forwardFill(filled)
		} else {
			for i := range filled {
				filled[i] = 0
			}
		}
		out[j] = filled
	}
	return out, nil
}

func backFill(v []float64) bool {
	next := math.NaN()
	for i := len(v) - 1; i >= 0; i-- {
		if math.IsNaN(v[i]) {
			v[i] = next
		} else {
			next = v[i]
		}
	}
	return !math.IsNaN(next)
}

func forwardFill(v []float64) {
	for i := 1; i < len(v); i++ {
		if math.IsNaN(v[i]) {
			v[i] = v[i-1]
		}
	}
}

func padWindow(scaled [][]float64, seqLen int) Window {
	n := len(scaled)
	w := make(Window, seqLen)
	if n >= seqLen {
		for i := range w {
			w[i] = append([]float64(nil), scaled[n-seqLen+i]...)
		}
		return w
	}
	last := scaled[n-1]
	pad := seqLen - n
	for i := 0; i < pad; i++ {
		w[i] = append([]float64(nil), last...)
	}
	for i := 0; i < n; i++ {
		w[pad+i] = append([]float64(nil), scaled[i]...)
	}
	return w
}

// IsConfigFault reports whether err indicates a mismatch between the model
// config and the indicator engine, rather than a data problem.
func IsConfigFault(err error) bool {
	return errors.Is(err, ErrUnknownColumn) || errors.Is(err, scaler.ErrWidth)
}
