package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"StockForecast/internal/config"
	"StockForecast/internal/forecast"
	"StockForecast/internal/model"
	"StockForecast/internal/recorder"
)

type stubService struct {
	errs  map[string]error
	calls []string
	days  []int
}

func (s *stubService) Predict(_ context.Context, symbol string, days int) (*model.Forecast, error) {
	s.calls = append(s.calls, symbol)
	s.days = append(s.days, days)
	if err := s.errs[symbol]; err != nil {
		return nil, err
	}
	preds := make([]float64, days)
	for i := range preds {
		preds[i] = 1000 + float64(i)*10
	}
	return &model.Forecast{
		Symbol:      symbol,
		Predictions: preds,
		Dates:       forecast.NextTradingDays(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), days),
		LastClose:   1000,
		LastDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
	}, nil
}

type stubSender struct{ sent []string }

func (s *stubSender) SendWithRetry(_ context.Context, text string, _ int) error {
	s.sent = append(s.sent, text)
	return nil
}

type memRecorder struct {
	recs []recorder.ForecastRecord
}

func (m *memRecorder) RecordForecast(r *recorder.ForecastRecord) error {
	m.recs = append(m.recs, *r)
	return nil
}

func (m *memRecorder) RecentForecasts(symbol string, limit int) ([]recorder.ForecastRecord, error) {
	var out []recorder.ForecastRecord
	for _, r := range m.recs {
		if r.Symbol == symbol && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecorder) Close() error { return nil }

func newTestScheduler(svc *stubService, sender *stubSender, rec *memRecorder) *Scheduler {
	cfg := &config.Config{Stocks: []config.Stock{
		{Name: "Bank Central Asia", Ticker: "BBCA.JK"},
		{Name: "Telkom Indonesia", Ticker: "TLKM.JK"},
		{Name: "IHSG Composite", Ticker: "^JKSE"},
	}}
	cfg.Prediction.DefaultDays = 7
	cfg.Prediction.MaxDays = 30
	s := NewScheduler(context.Background(), svc, sender, rec, cfg)
	s.Now = func() time.Time { return time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC) }
	return s
}

func TestRunAll_SkipsFailingSymbols(t *testing.T) {
	svc := &stubService{errs: map[string]error{
		"TLKM.JK": &forecast.DataUnavailableError{Symbol: "TLKM.JK", Period: "2y"},
	}}
	rec := &memRecorder{}
	s := newTestScheduler(svc, &stubSender{}, rec)

	forecasts, skipped := s.RunAll(context.Background(), 7)
	if len(forecasts) != 2 {
		t.Errorf("expected 2 forecasts, got %d", len(forecasts))
	}
	if len(skipped) != 1 || skipped[0] != "TLKM.JK" {
		t.Errorf("expected [TLKM.JK] skipped, got %v", skipped)
	}
	if len(rec.recs) != 2 {
		t.Errorf("expected 2 recorded runs, got %d", len(rec.recs))
	}
	if len(svc.calls) != 3 {
		t.Errorf("expected every stock attempted, got %v", svc.calls)
	}
}

func TestRunAll_StopsOnCancel(t *testing.T) {
	svc := &stubService{}
	s := newTestScheduler(svc, &stubSender{}, &memRecorder{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	forecasts, _ := s.RunAll(ctx, 7)
	if len(forecasts) != 0 || len(svc.calls) != 0 {
		t.Errorf("expected no work after cancel, got %d forecasts, %d calls", len(forecasts), len(svc.calls))
	}
}

func TestDailyTask_SendsDigest(t *testing.T) {
	sender := &stubSender{}
	svc := &stubService{errs: map[string]error{"^JKSE": errors.New("boom")}}
	s := newTestScheduler(svc, sender, &memRecorder{})

	s.RunDailyNow()
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if !strings.Contains(msg, "2024-03-01") || !strings.Contains(msg, "Skipped: ^JKSE") {
		t.Errorf("unexpected digest:\n%s", msg)
	}
	for _, d := range svc.days {
		if d != 7 {
			t.Errorf("expected default 7 days, got %d", d)
		}
	}
}

func TestHandleCommand_Predict(t *testing.T) {
	svc := &stubService{}
	rec := &memRecorder{}
	s := newTestScheduler(svc, &stubSender{}, rec)

	reply := s.HandleCommand(context.Background(), "/predict bbca 3")
	if len(svc.calls) != 1 || svc.calls[0] != "BBCA.JK" || svc.days[0] != 3 {
		t.Fatalf("expected Predict(BBCA.JK, 3), got %v %v", svc.calls, svc.days)
	}
	if !strings.Contains(reply, "3-day forecast") {
		t.Errorf("unexpected reply:\n%s", reply)
	}
	if len(rec.recs) != 1 {
		t.Errorf("expected forecast recorded, got %d", len(rec.recs))
	}

	s.HandleCommand(context.Background(), "/predict@StockBot JKSE")
	if svc.calls[1] != "^JKSE" || svc.days[1] != 7 {
		t.Errorf("expected Predict(^JKSE, 7), got %s %d", svc.calls[1], svc.days[1])
	}
}

func TestHandleCommand_PredictRejects(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
	}{
		{"/predict", "Usage"},
		{"/predict BBCA.JK x", "invalid days"},
		{"/predict BBCA.JK 0", "between 1 and 30"},
		{"/predict BBCA.JK 31", "between 1 and 30"},
	}
	for _, tt := range tests {
		svc := &stubService{}
		s := newTestScheduler(svc, &stubSender{}, &memRecorder{})
		reply := s.HandleCommand(context.Background(), tt.cmd)
		if !strings.Contains(reply, tt.want) {
			t.Errorf("%q: expected reply containing %q, got %q", tt.cmd, tt.want, reply)
		}
		if len(svc.calls) != 0 {
			t.Errorf("%q: expected no Predict call", tt.cmd)
		}
	}
}

func TestHandleCommand_PredictError(t *testing.T) {
	svc := &stubService{errs: map[string]error{
		"XYZ": &forecast.DataUnavailableError{Symbol: "XYZ"},
	}}
	s := newTestScheduler(svc, &stubSender{}, &memRecorder{})
	reply := s.HandleCommand(context.Background(), "/predict xyz")
	if !strings.Contains(reply, "no market data for XYZ") {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandleCommand_HistoryStocksHelp(t *testing.T) {
	svc := &stubService{}
	s := newTestScheduler(svc, &stubSender{}, &memRecorder{})

	if reply := s.HandleCommand(context.Background(), "/history BBCA.JK"); !strings.Contains(reply, "No recorded forecasts") {
		t.Errorf("expected empty history, got %q", reply)
	}
	s.HandleCommand(context.Background(), "/predict BBCA.JK 2")
	reply := s.HandleCommand(context.Background(), "/history bbca")
	if !strings.Contains(reply, "Rp 1,000 → Rp 1,010 (2d)") {
		t.Errorf("unexpected history:\n%s", reply)
	}

	if reply := s.HandleCommand(context.Background(), "/stocks"); !strings.Contains(reply, "TLKM.JK - Telkom Indonesia") {
		t.Errorf("unexpected stock list:\n%s", reply)
	}
	if reply := s.HandleCommand(context.Background(), "hello"); !strings.Contains(reply, "/predict") {
		t.Errorf("expected help, got:\n%s", reply)
	}
}

func TestRegisterAll_InvalidCron(t *testing.T) {
	s := newTestScheduler(&stubService{}, &stubSender{}, &memRecorder{})
	if err := s.RegisterAll("not a cron"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
	if err := s.RegisterAll("0 0 18 * * 1-5"); err != nil {
		t.Errorf("expected valid cron, got %v", err)
	}
}
