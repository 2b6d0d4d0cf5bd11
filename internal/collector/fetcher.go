package collector

import (
	"context"
	"fmt"
	"strings"

	"StockForecast/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	Fetch(ctx context.Context, symbol, period string) ([]model.OHLCV, error)
	Name() string
}

// periodDays maps supported period tokens to an approximate trading-day count.
var periodDays = map[string]int{
	"1mo": 22,
	"3mo": 66,
	"6mo": 126,
	"1y":  252,
	"2y":  504,
	"5y":  1260,
}

// NormalizePeriod maps coarse duration tokens such as "2y", "2 years" or
// "6 months" onto the canonical form ("2y", "6mo").
func NormalizePeriod(period string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	if _, ok := periodDays[p]; ok {
		return p, nil
	}
	var n int
	var unit string
	if _, err := fmt.Sscanf(p, "%d %s", &n, &unit); err == nil && n > 0 {
		switch strings.TrimSuffix(unit, "s") {
		case "year":
			p = fmt.Sprintf("%dy", n)
		case "month":
			p = fmt.Sprintf("%dmo", n)
		}
		if _, ok := periodDays[p]; ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported period %q", period)
}

// PeriodDays returns the approximate trading-day count of a period token.
func PeriodDays(period string) (int, error) {
	p, err := NormalizePeriod(period)
	if err != nil {
		return 0, err
	}
	return periodDays[p], nil
}

// LatestPrice returns the most recent close for symbol.
func LatestPrice(ctx context.Context, f Fetcher, symbol string) (float64, error) {
	bars, err := f.Fetch(ctx, symbol, "1mo")
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("%s: no price data", symbol)
	}
	return bars[len(bars)-1].Close, nil
}
