package calculator

import (
	"errors"
	"math"

	"StockForecast/internal/model"
)

// tradingDaysPerYear is used both for the 52-week lookback and volatility annualization.
const tradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(dailyBars)
	start := n - tradingDaysPerYear
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if dailyBars[i].High > high {
			high = dailyBars[i].High
		}
		if dailyBars[i].Low < low {
			low = dailyBars[i].Low
		}
	}
	return high, low, nil
}

// CalculatePriceMetrics summarizes current price, last daily move, 52-week
// range and annualized close-to-close volatility (percent).
func CalculatePriceMetrics(dailyBars []model.OHLCV) (*model.PriceMetrics, error) {
	if len(dailyBars) < 2 {
		return nil, errors.New("need at least two bars for price metrics")
	}
	n := len(dailyBars)
	current := dailyBars[n-1].Close
	prev := dailyBars[n-2].Close

	m := &model.PriceMetrics{
		CurrentPrice: current,
		DailyChange:  current - prev,
	}
	if prev != 0 {
		m.DailyChangePct = (current - prev) / prev * 100
	}

	high, low, err := Calculate52WeekRange(dailyBars)
	if err != nil {
		return nil, err
	}
	m.High52w, m.Low52w = high, low

	changes := PctChange(model.Closes(dailyBars))[1:]
	m.Volatility = sampleStd(changes) * math.Sqrt(tradingDaysPerYear) * 100
	return m, nil
}

func sampleStd(values []float64) float64 {
	var sum float64
	var count int
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	if count < 2 {
		return 0
	}
	mean := sum / float64(count)
	ss := 0.0
	for _, v := range values {
		if !math.IsNaN(v) {
			ss += (v - mean) * (v - mean)
		}
	}
	return math.Sqrt(ss / float64(count-1))
}
