// Package outlook condenses a forecast into the headline figures shown in
// reports: average and final predicted price, trend and an outlook tier.
package outlook

import (
	"fmt"
	"math"

	"StockForecast/internal/model"
)

// Trend labels.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// Tier maps an expected price change to a label.
type Tier struct {
	Label string
	Emoji string
}

// Tiers is ordered from the highest minimum expected change (percent) down.
var Tiers = []struct {
	MinChangePct float64
	Tier         Tier
}{
	{5.0, Tier{Label: "Strong upside", Emoji: "🚀"}},
	{2.0, Tier{Label: "Upside", Emoji: "📈"}},
	{-2.0, Tier{Label: "Sideways", Emoji: "➖"}},
	{-5.0, Tier{Label: "Downside", Emoji: "📉"}},
}

// DefaultTier is used for expected changes below the last tier.
var DefaultTier = Tier{Label: "Strong downside", Emoji: "⚠️"}

// Outlook is the summary of one forecast.
type Outlook struct {
	CurrentPrice      float64
	AvgPredicted      float64
	FinalPredicted    float64
	HighPredicted     float64
	LowPredicted      float64
	ExpectedChangePct float64 // average predicted vs current
	Trend             string
	Tier              Tier
	Warning           string
}

func mapTier(changePct float64) Tier {
	for _, t := range Tiers {
		if changePct >= t.MinChangePct {
			return t.Tier
		}
	}
	return DefaultTier
}

// Evaluate computes the outlook for fc. It returns nil for an empty forecast.
func Evaluate(fc *model.Forecast) *Outlook {
	if fc == nil || len(fc.Predictions) == 0 {
		return nil
	}
	current := fc.LastClose
	if fc.Metrics != nil {
		current = fc.Metrics.CurrentPrice
	}

	o := &Outlook{
		CurrentPrice:   current,
		FinalPredicted: fc.Predictions[len(fc.Predictions)-1],
		HighPredicted:  math.Inf(-1),
		LowPredicted:   math.Inf(1),
	}
	sum := 0.0
	for _, p := range fc.Predictions {
		sum += p
		o.HighPredicted = math.Max(o.HighPredicted, p)
		o.LowPredicted = math.Min(o.LowPredicted, p)
	}
	o.AvgPredicted = sum / float64(len(fc.Predictions))

	o.Trend = TrendDecreasing
	if o.AvgPredicted > current {
		o.Trend = TrendIncreasing
	}
	if current != 0 {
		o.ExpectedChangePct = (o.AvgPredicted - current) / current * 100
	}
	o.Tier = mapTier(o.ExpectedChangePct)

	if fc.FallbackUsed {
		o.Warning = fmt.Sprintf("no scaler fitted for %s, used %s scaling", fc.Symbol, fc.CanonicalKey)
	}
	return o
}
