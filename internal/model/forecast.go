package model

import "time"

// Forecast is the result of one prediction request.
type Forecast struct {
	Symbol       string
	CanonicalKey string // scaler key actually used
	Predictions  []float64
	Dates        []time.Time
	LastClose    float64
	LastDate     time.Time
	FallbackUsed bool // scaler registry had no exact match for Symbol
	Metrics      *PriceMetrics
	GeneratedAt  time.Time
}

// Days returns the forecast horizon.
func (f *Forecast) Days() int { return len(f.Predictions) }

// PriceMetrics summarizes recent price performance of a series.
type PriceMetrics struct {
	CurrentPrice   float64
	DailyChange    float64
	DailyChangePct float64
	High52w        float64
	Low52w         float64
	Volatility     float64 // annualized, percent
}
