package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"StockForecast/internal/calculator"
	"StockForecast/internal/model"
)

// SeriesSource returns daily OHLCV for a symbol over a coarse period token.
type SeriesSource interface {
	Fetch(ctx context.Context, symbol, period string) ([]model.OHLCV, error)
}

// Observer is notified once per Predict call.
type Observer interface {
	ObserveForecast(symbol string, elapsed time.Duration, err error, fallbackUsed bool)
}

// Settings is the explicit pipeline configuration.
type Settings struct {
	SequenceLength int
	FeatureColumns []string
	MaxDays        int
	DefaultDays    int
	DataPeriod     string
}

// Predictor runs fetch, indicators, sequence building and forecasting for one
// symbol per call. It keeps no per-request state and is safe for concurrent use.
type Predictor struct {
	Source     SeriesSource
	Builder    *SequenceBuilder
	Forecaster *Forecaster
	Settings   Settings
	Observer   Observer
	Now        func() time.Time
}

// NewPredictor wires a Predictor from a data source, model and scaler registry.
func NewPredictor(src SeriesSource, m SequenceModel, scalers Resolver, s Settings) (*Predictor, error) {
	if s.SequenceLength <= 0 {
		s.SequenceLength = DefaultSequenceLength
	}
	if len(s.FeatureColumns) == 0 {
		return nil, errors.New("predictor: no feature columns configured")
	}
	if s.DefaultDays <= 0 {
		s.DefaultDays = 7
	}
	if s.MaxDays > 0 && s.DefaultDays > s.MaxDays {
		return nil, fmt.Errorf("predictor: default days %d exceeds max %d", s.DefaultDays, s.MaxDays)
	}
	if s.DataPeriod == "" {
		s.DataPeriod = "2y"
	}
	return &Predictor{
		Source:     src,
		Builder:    NewSequenceBuilder(scalers),
		Forecaster: NewForecaster(m, scalers, s.MaxDays),
		Settings:   s,
		Now:        time.Now,
	}, nil
}

// Predict forecasts daysAhead closing prices for symbol. daysAhead <= 0 uses
// the configured default.
func (p *Predictor) Predict(ctx context.Context, symbol string, daysAhead int) (*model.Forecast, error) {
	start := time.Now()
	fc, err := p.predict(ctx, symbol, daysAhead)
	if p.Observer != nil {
		p.Observer.ObserveForecast(symbol, time.Since(start), err, fc != nil && fc.FallbackUsed)
	}
	return fc, err
}

func (p *Predictor) predict(ctx context.Context, symbol string, daysAhead int) (*model.Forecast, error) {
	if daysAhead <= 0 {
		daysAhead = p.Settings.DefaultDays
	}
	period := p.Settings.DataPeriod

	bars, err := p.Source.Fetch(ctx, symbol, period)
	if err != nil {
		var due *DataUnavailableError
		if errors.As(err, &due) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &DataUnavailableError{Symbol: symbol, Period: period, Err: err}
	}
	if len(bars) == 0 {
		return nil, &DataUnavailableError{Symbol: symbol, Period: period}
	}

	fm := calculator.AddTechnicalIndicators(bars)
	window, res, err := p.Builder.Build(fm, symbol, p.Settings.FeatureColumns, p.Settings.SequenceLength)
	if err != nil {
		return nil, fmt.Errorf("build sequence for %s: %w", symbol, err)
	}

	preds, err := p.Forecaster.Forecast(ctx, window, daysAhead, symbol)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", symbol, err)
	}

	last := bars[len(bars)-1]
	fc := &model.Forecast{
		Symbol:       symbol,
		CanonicalKey: res.Key,
		Predictions:  preds,
		Dates:        NextTradingDays(last.Time, daysAhead),
		LastClose:    last.Close,
		LastDate:     last.Time,
		FallbackUsed: res.FallbackUsed,
		GeneratedAt:  p.Now(),
	}
	if m, err := calculator.CalculatePriceMetrics(bars); err != nil {
		log.Printf("[WARN] price metrics for %s: %v", symbol, err)
	} else {
		fc.Metrics = m
	}
	return fc, nil
}

// NextTradingDays returns the n weekdays following after. Exchange holidays
// are not known here and are not skipped.
func NextTradingDays(after time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := after
	for len(days) < n {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}
