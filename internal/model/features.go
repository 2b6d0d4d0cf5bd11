package model

import (
	"math"
	"time"
)

// Base column names available on every FeatureMatrix.
const (
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
)

// FeatureMatrix is an OHLCV series extended with named derived columns.
// Every column has exactly Len() values; undefined cells hold NaN.
type FeatureMatrix struct {
	Times   []time.Time
	columns map[string][]float64
	order   []string
}

// NewFeatureMatrix builds a matrix whose base columns come from bars.
func NewFeatureMatrix(bars []OHLCV) *FeatureMatrix {
	n := len(bars)
	fm := &FeatureMatrix{
		Times:   make([]time.Time, n),
		columns: make(map[string][]float64),
	}
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	cls := make([]float64, n)
	vol := make([]float64, n)
	for i, b := range bars {
		fm.Times[i] = b.Time
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		cls[i] = b.Close
		vol[i] = b.Volume
	}
	fm.Set(ColOpen, open)
	fm.Set(ColHigh, high)
	fm.Set(ColLow, low)
	fm.Set(ColClose, cls)
	fm.Set(ColVolume, vol)
	return fm
}

// Len returns the number of rows.
func (fm *FeatureMatrix) Len() int { return len(fm.Times) }

// Set adds or replaces a column. Panics if the length does not match Len().
func (fm *FeatureMatrix) Set(name string, values []float64) {
	if len(values) != fm.Len() {
		panic("model: column " + name + " has wrong length")
	}
	if _, ok := fm.columns[name]; !ok {
		fm.order = append(fm.order, name)
	}
	fm.columns[name] = values
}

// Column returns the named column and whether it exists.
// The returned slice is shared with the matrix and must not be modified.
func (fm *FeatureMatrix) Column(name string) ([]float64, bool) {
	v, ok := fm.columns[name]
	return v, ok
}

// Columns returns column names in insertion order.
func (fm *FeatureMatrix) Columns() []string {
	out := make([]string, len(fm.order))
	copy(out, fm.order)
	return out
}

// Defined reports whether the cell at row i of the named column holds a number.
func (fm *FeatureMatrix) Defined(name string, i int) bool {
	v, ok := fm.columns[name]
	if !ok || i < 0 || i >= len(v) {
		return false
	}
	return !math.IsNaN(v[i])
}
