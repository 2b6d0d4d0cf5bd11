package recorder

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordForecast(_ *ForecastRecord) error { return nil }
func (n *NoopRecorder) RecentForecasts(_ string, _ int) ([]ForecastRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
