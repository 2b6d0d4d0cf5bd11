package recorder

import (
	"time"

	"StockForecast/internal/model"

	"github.com/google/uuid"
)

// ForecastRecord is one persisted forecast run.
type ForecastRecord struct {
	RunID        string         `db:"run_id"`
	Symbol       string         `db:"symbol"`
	ScalerKey    string         `db:"scaler_key"`
	Days         int            `db:"days"`
	LastClose    float64        `db:"last_close"`
	LastDate     int64          `db:"last_date"`
	FallbackUsed int            `db:"fallback_used"`
	CreatedAt    int64          `db:"created_at"`
	Predictions  []PredictedDay `db:"-"`
}

// PredictedDay is one predicted price of a run.
type PredictedDay struct {
	RunID      string  `db:"run_id"`
	DayIndex   int     `db:"day_index"`
	TargetDate int64   `db:"target_date"`
	Price      float64 `db:"price"`
}

// NewForecastRecord converts a forecast into a record with a fresh run ID.
func NewForecastRecord(fc *model.Forecast) *ForecastRecord {
	rec := &ForecastRecord{
		RunID:     uuid.New().String(),
		Symbol:    fc.Symbol,
		ScalerKey: fc.CanonicalKey,
		Days:      len(fc.Predictions),
		LastClose: fc.LastClose,
		LastDate:  fc.LastDate.Unix(),
		CreatedAt: fc.GeneratedAt.Unix(),
	}
	if fc.FallbackUsed {
		rec.FallbackUsed = 1
	}
	if fc.GeneratedAt.IsZero() {
		rec.CreatedAt = time.Now().Unix()
	}
	for i, p := range fc.Predictions {
		day := PredictedDay{RunID: rec.RunID, DayIndex: i, Price: p}
		if i < len(fc.Dates) {
			day.TargetDate = fc.Dates[i].Unix()
		}
		rec.Predictions = append(rec.Predictions, day)
	}
	return rec
}

// Recorder persists forecast history for later comparison with actual prices.
type Recorder interface {
	RecordForecast(rec *ForecastRecord) error
	RecentForecasts(symbol string, limit int) ([]ForecastRecord, error)
	Close() error
}
