package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"StockForecast/internal/config"
	"StockForecast/internal/forecast"
	"StockForecast/internal/model"
	"StockForecast/internal/notifier"
	"StockForecast/internal/outlook"
	"StockForecast/internal/recorder"

	"github.com/robfig/cron/v3"
)

// ForecastService produces forecasts; *forecast.Predictor implements it.
type ForecastService interface {
	Predict(ctx context.Context, symbol string, daysAhead int) (*model.Forecast, error)
}

// Sender delivers formatted messages; *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the daily forecast job and answers bot commands.
type Scheduler struct {
	Cron        *cron.Cron
	Service     ForecastService
	Sender      Sender // nil disables notifications
	Recorder    recorder.Recorder
	Stocks      []config.Stock
	DefaultDays int
	MaxDays     int
	Ctx         context.Context
	Now         func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc ForecastService, sender Sender, rec recorder.Recorder, cfg *config.Config) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Service:     svc,
		Sender:      sender,
		Recorder:    rec,
		Stocks:      cfg.Stocks,
		DefaultDays: cfg.Prediction.DefaultDays,
		MaxDays:     cfg.Prediction.MaxDays,
		Ctx:         ctx,
		Now:         time.Now,
	}
}

// RegisterAll registers the daily forecast task.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyNow executes the daily task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily forecast")
	forecasts, skipped := s.RunAll(s.Ctx, s.DefaultDays)
	log.Printf("[INFO] daily forecast done: %d ok, %d skipped", len(forecasts), len(skipped))
	s.trySend(notifier.FormatDailyDigest(s.Now(), forecasts, skipped))
}

// RunAll forecasts every configured stock. A failing symbol is logged and
// reported in skipped; the remaining symbols still run.
func (s *Scheduler) RunAll(ctx context.Context, days int) (forecasts []*model.Forecast, skipped []string) {
	for _, st := range s.Stocks {
		if ctx.Err() != nil {
			log.Printf("[WARN] daily forecast cancelled: %v", ctx.Err())
			break
		}
		fc, err := s.Service.Predict(ctx, st.Ticker, days)
		if err != nil {
			logForecastError(st.Ticker, err)
			skipped = append(skipped, st.Ticker)
			continue
		}
		s.record(fc)
		forecasts = append(forecasts, fc)
	}
	return forecasts, skipped
}

func logForecastError(symbol string, err error) {
	switch {
	case errors.Is(err, forecast.ErrDataUnavailable), errors.Is(err, forecast.ErrInsufficientData):
		log.Printf("[WARN] skip %s: %v", symbol, err)
	case forecast.IsConfigFault(err):
		log.Printf("[ERROR] model configuration fault for %s: %v", symbol, err)
	default:
		log.Printf("[ERROR] forecast %s: %v", symbol, err)
	}
}

func (s *Scheduler) record(fc *model.Forecast) {
	if err := s.Recorder.RecordForecast(recorder.NewForecastRecord(fc)); err != nil {
		log.Printf("[ERROR] record forecast %s: %v", fc.Symbol, err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.DefaultDays, s.MaxDays)
	}
	// "/predict@MyBot" addresses a specific bot in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/predict":
		return s.handlePredict(ctx, args)
	case "/history":
		return s.handleHistory(args)
	case "/stocks":
		return notifier.FormatStockList(s.Stocks)
	default:
		return notifier.FormatHelp(s.DefaultDays, s.MaxDays)
	}
}

func (s *Scheduler) handlePredict(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /predict &lt;ticker&gt; [days]"
	}
	symbol := s.lookupTicker(args[0])
	days := s.DefaultDays
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Sprintf("❌ invalid days %q", args[1])
		}
		days = n
	}
	if days < 1 || (s.MaxDays > 0 && days > s.MaxDays) {
		return fmt.Sprintf("❌ days must be between 1 and %d", s.MaxDays)
	}

	fc, err := s.Service.Predict(ctx, symbol, days)
	if err != nil {
		logForecastError(symbol, err)
		return replyForError(symbol, err)
	}
	s.record(fc)
	return notifier.FormatForecast(fc, outlook.Evaluate(fc))
}

func replyForError(symbol string, err error) string {
	switch {
	case errors.Is(err, forecast.ErrDataUnavailable):
		return fmt.Sprintf("❌ no market data for %s", symbol)
	case errors.Is(err, forecast.ErrInsufficientData):
		return fmt.Sprintf("❌ not enough history for %s", symbol)
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return fmt.Sprintf("❌ %v", err)
	default:
		return fmt.Sprintf("❌ forecast for %s failed", symbol)
	}
}

func (s *Scheduler) handleHistory(args []string) string {
	if len(args) == 0 {
		return "Usage: /history &lt;ticker&gt;"
	}
	symbol := s.lookupTicker(args[0])
	recs, err := s.Recorder.RecentForecasts(symbol, 5)
	if err != nil {
		log.Printf("[ERROR] load history %s: %v", symbol, err)
		return fmt.Sprintf("❌ history for %s unavailable", symbol)
	}
	if len(recs) == 0 {
		return fmt.Sprintf("No recorded forecasts for %s", symbol)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Recent forecasts for %s</b>\n\n", symbol))
	for _, r := range recs {
		final := r.LastClose
		if n := len(r.Predictions); n > 0 {
			final = r.Predictions[n-1].Price
		}
		b.WriteString(fmt.Sprintf("  %s: %s → %s (%dd)\n",
			time.Unix(r.CreatedAt, 0).UTC().Format("2006-01-02"),
			notifier.FormatRupiah(r.LastClose), notifier.FormatRupiah(final), r.Days))
	}
	return b.String()
}

// lookupTicker maps user input to a configured ticker, so "bbca" finds
// BBCA.JK. Unknown input is passed through upper-cased.
func (s *Scheduler) lookupTicker(input string) string {
	in := strings.ToUpper(strings.TrimSpace(input))
	for _, st := range s.Stocks {
		t := strings.ToUpper(st.Ticker)
		if in == t || in+".JK" == t || "^"+in == t {
			return st.Ticker
		}
	}
	return in
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		log.Printf("[INFO] notifications disabled, report:\n%s", text)
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
