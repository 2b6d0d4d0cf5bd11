package calculator

import "math"

// RSISeries computes the simple-average RSI for every row.
//
// Gains and losses are the positive and (absolute) negative close deltas, with
// the first row counted as zero change. Average gain and loss are trailing
// period means, so the first period-1 rows are NaN. When the average loss is
// zero the result is 100 for a positive average gain and NaN for a flat window.
func RSISeries(closes []float64, period int) []float64 {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	avgGain := SMASeries(gains, period)
	avgLoss := SMASeries(losses, period)

	out := nanSlice(n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		out[i] = rsiFromAverages(g, l)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN()
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
