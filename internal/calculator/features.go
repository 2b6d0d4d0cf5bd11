package calculator

import (
	"fmt"
	"math"

	"StockForecast/internal/model"
)

// Derived column names produced by AddTechnicalIndicators.
const (
	ColMA5            = "MA_5"
	ColMA10           = "MA_10"
	ColMA20           = "MA_20"
	ColMA50           = "MA_50"
	ColEMA12          = "EMA_12"
	ColEMA26          = "EMA_26"
	ColMACD           = "MACD"
	ColMACDSignal     = "MACD_signal"
	ColRSI            = "RSI"
	ColBBMiddle       = "BB_middle"
	ColBBUpper        = "BB_upper"
	ColBBLower        = "BB_lower"
	ColVolumeMA       = "Volume_MA"
	ColVolumeRatio    = "Volume_ratio"
	ColPriceChange    = "Price_change"
	ColHighLowRatio   = "High_Low_ratio"
	ColOpenCloseRatio = "Open_Close_ratio"
)

const (
	rsiPeriod       = 14
	bollingerWindow = 20
	bollingerWidth  = 2.0
	volumeWindow    = 20
	macdFast        = 12
	macdSlow        = 26
	macdSignalSpan  = 9
)

var smaWindows = []int{5, 10, 20, 50}

// IndicatorColumns lists every derived column in the order it is added.
func IndicatorColumns() []string {
	return []string{
		ColMA5, ColMA10, ColMA20, ColMA50,
		ColEMA12, ColEMA26, ColMACD, ColMACDSignal,
		ColRSI,
		ColBBMiddle, ColBBUpper, ColBBLower,
		ColVolumeMA, ColVolumeRatio,
		ColPriceChange, ColHighLowRatio, ColOpenCloseRatio,
	}
}

// AddTechnicalIndicators builds a FeatureMatrix from bars and appends the
// moving-average, MACD, RSI, Bollinger, volume and ratio columns.
func AddTechnicalIndicators(bars []model.OHLCV) *model.FeatureMatrix {
	fm := model.NewFeatureMatrix(bars)
	closes, _ := fm.Column(model.ColClose)
	opens, _ := fm.Column(model.ColOpen)
	highs, _ := fm.Column(model.ColHigh)
	lows, _ := fm.Column(model.ColLow)
	volumes, _ := fm.Column(model.ColVolume)

	for _, w := range smaWindows {
		fm.Set(fmt.Sprintf("MA_%d", w), SMASeries(closes, w))
	}

	ema12 := EMASeries(closes, macdFast)
	ema26 := EMASeries(closes, macdSlow)
	fm.Set(ColEMA12, ema12)
	fm.Set(ColEMA26, ema26)

	macd := make([]float64, len(closes))
	for i := range macd {
		macd[i] = ema12[i] - ema26[i]
	}
	fm.Set(ColMACD, macd)
	fm.Set(ColMACDSignal, EMASeries(macd, macdSignalSpan))

	fm.Set(ColRSI, RSISeries(closes, rsiPeriod))

	middle := SMASeries(closes, bollingerWindow)
	std := RollingStd(closes, bollingerWindow)
	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	for i := range middle {
		upper[i] = middle[i] + bollingerWidth*std[i]
		lower[i] = middle[i] - bollingerWidth*std[i]
	}
	fm.Set(ColBBMiddle, middle)
	fm.Set(ColBBUpper, upper)
	fm.Set(ColBBLower, lower)

	volMA := SMASeries(volumes, volumeWindow)
	fm.Set(ColVolumeMA, volMA)
	fm.Set(ColVolumeRatio, Ratio(volumes, volMA))

	fm.Set(ColPriceChange, PctChange(closes))
	fm.Set(ColHighLowRatio, Ratio(highs, lows))
	fm.Set(ColOpenCloseRatio, Ratio(opens, closes))
	return fm
}

// PctChange returns values[i]/values[i-1] - 1, NaN for the first row.
func PctChange(values []float64) []float64 {
	out := nanSlice(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = safeDiv(values[i], values[i-1]) - 1
	}
	return out
}

// Ratio divides num by den element-wise. Division by zero yields NaN.
func Ratio(num, den []float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		out[i] = safeDiv(num[i], den[i])
	}
	return out
}

func safeDiv(a, b float64) float64 {
	if b == 0 || math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return a / b
}
