package forecast

import (
	"math"
	"testing"
	"time"

	"StockForecast/internal/model"
	"StockForecast/internal/scaler"
)

func barsFromCloses(closes []float64) []model.OHLCV {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) // Friday
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c - 1,
			High:   c + 2,
			Low:    c - 2,
			Close:  c,
			Volume: 1e6 + float64(i),
		}
	}
	return bars
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 8000 + 10*float64(i) + 150*math.Sin(float64(i)/3)
	}
	return out
}

// halfScaler divides every feature by two; the target maps [0, 1] to [0, 200].
func halfRegistry(t *testing.T, width int, keys ...string) *scaler.Registry {
	t.Helper()
	mean := make([]float64, width)
	scale := make([]float64, width)
	for i := range scale {
		scale[i] = 2
	}
	target, err := scaler.NewMinMax([]float64{0}, []float64{200}, 0, 1)
	if err != nil {
		t.Fatalf("NewMinMax: %v", err)
	}
	var entries []scaler.Entry
	for _, k := range keys {
		entries = append(entries, scaler.Entry{
			Key:    k,
			Params: scaler.Params{Feature: &scaler.Standard{Mean: mean, Scale: scale}, Target: target},
		})
	}
	r, err := scaler.NewRegistry(entries)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func assertRow(t *testing.T, label string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected width %d, got %d", label, len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s[%d]: expected %.6f, got %.6f", label, i, want[i], got[i])
		}
	}
}
