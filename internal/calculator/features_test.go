package calculator

import (
	"math"
	"testing"
	"time"

	"StockForecast/internal/model"
)

func makeBars(closes []float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c * 0.99,
			High:   c * 1.01,
			Low:    c * 0.98,
			Close:  c,
			Volume: 1000 + float64(i%7)*100,
		}
	}
	return bars
}

func zigzag(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5 + 3*math.Sin(float64(i))
	}
	return closes
}

func TestSMASeries_ThreePeriodScenario(t *testing.T) {
	closes := []float64{100, 102, 101, 105, 103, 108}
	got := SMASeries(closes, 3)
	want := []float64{101.0, 102.67, 103.0, 105.33}

	for i := 0; i < 2; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("row %d: expected NaN, got %.4f", i, got[i])
		}
	}
	for i, w := range want {
		v := math.Round(got[i+2]*100) / 100
		if v != w {
			t.Errorf("row %d: expected %.2f, got %.2f", i+2, w, v)
		}
	}
}

func TestAddTechnicalIndicators_LookbackBoundaries(t *testing.T) {
	bars := makeBars(zigzag(80))
	fm := AddTechnicalIndicators(bars)
	if fm.Len() != len(bars) {
		t.Fatalf("expected %d rows, got %d", len(bars), fm.Len())
	}

	firstDefined := map[string]int{
		ColMA5:            4,
		ColMA10:           9,
		ColMA20:           19,
		ColMA50:           49,
		ColEMA12:          0,
		ColEMA26:          0,
		ColMACD:           0,
		ColMACDSignal:     0,
		ColRSI:            13,
		ColBBMiddle:       19,
		ColBBUpper:        19,
		ColBBLower:        19,
		ColVolumeMA:       19,
		ColVolumeRatio:    19,
		ColPriceChange:    1,
		ColHighLowRatio:   0,
		ColOpenCloseRatio: 0,
	}
	for _, col := range IndicatorColumns() {
		first, ok := firstDefined[col]
		if !ok {
			t.Fatalf("no expectation for column %s", col)
		}
		for i := 0; i < fm.Len(); i++ {
			defined := fm.Defined(col, i)
			if i < first && defined {
				t.Errorf("%s row %d: expected undefined", col, i)
			}
			if i >= first && !defined {
				t.Errorf("%s row %d: expected defined", col, i)
			}
		}
	}
}

func TestEMASeries_SeededFromFirstValue(t *testing.T) {
	got := EMASeries([]float64{10, 20, 30}, 3)
	// alpha = 0.5
	want := []float64{10, 15, 22.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("row %d: expected %.4f, got %.4f", i, want[i], got[i])
		}
	}
}

func TestMACD_IsEMADifference(t *testing.T) {
	fm := AddTechnicalIndicators(makeBars(zigzag(40)))
	e12, _ := fm.Column(ColEMA12)
	e26, _ := fm.Column(ColEMA26)
	macd, _ := fm.Column(ColMACD)
	for i := range macd {
		if math.Abs(macd[i]-(e12[i]-e26[i])) > 1e-12 {
			t.Fatalf("row %d: MACD mismatch", i)
		}
	}
}

func TestRSISeries_Bounds(t *testing.T) {
	rsi := RSISeries(zigzag(100), 14)
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("row %d: RSI out of range: %.4f", i, v)
		}
	}
}

func TestRSISeries_MonotonicIncrease(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSISeries(closes, 14)
	last := rsi[len(rsi)-1]
	if last != 100 {
		t.Errorf("expected RSI 100 for rising closes, got %.4f", last)
	}
}

func TestRSISeries_FlatWindowIsUndefined(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 50
	}
	rsi := RSISeries(closes, 14)
	if !math.IsNaN(rsi[19]) {
		t.Errorf("expected NaN for flat closes, got %.4f", rsi[19])
	}
}

func TestBollinger_SampleStd(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	fm := AddTechnicalIndicators(makeBars(closes))
	mid, _ := fm.Column(ColBBMiddle)
	up, _ := fm.Column(ColBBUpper)
	// mean 10.5, sample std of 1..20 = sqrt(35)
	wantUp := 10.5 + 2*math.Sqrt(35)
	if math.Abs(mid[19]-10.5) > 1e-9 {
		t.Errorf("expected middle 10.5, got %.6f", mid[19])
	}
	if math.Abs(up[19]-wantUp) > 1e-9 {
		t.Errorf("expected upper %.6f, got %.6f", wantUp, up[19])
	}
}

func TestRatio_ZeroDenominator(t *testing.T) {
	got := Ratio([]float64{1, 2}, []float64{0, 4})
	if !math.IsNaN(got[0]) {
		t.Errorf("expected NaN for zero denominator, got %.4f", got[0])
	}
	if got[1] != 0.5 {
		t.Errorf("expected 0.5, got %.4f", got[1])
	}
}

func TestCalculatePriceMetrics(t *testing.T) {
	bars := makeBars([]float64{100, 110, 99, 121})
	m, err := CalculatePriceMetrics(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.CurrentPrice != 121 {
		t.Errorf("expected current 121, got %.2f", m.CurrentPrice)
	}
	if math.Abs(m.DailyChangePct-(22.0/99*100)) > 1e-9 {
		t.Errorf("unexpected daily change pct %.4f", m.DailyChangePct)
	}
	if m.High52w != 121*1.01 || m.Low52w != 99*0.98 {
		t.Errorf("unexpected 52w range %.2f/%.2f", m.High52w, m.Low52w)
	}
	if m.Volatility <= 0 {
		t.Errorf("expected positive volatility, got %.4f", m.Volatility)
	}

	if _, err := CalculatePriceMetrics(bars[:1]); err == nil {
		t.Error("expected error for single bar")
	}
}
