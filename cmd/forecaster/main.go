package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"StockForecast/internal/collector"
	"StockForecast/internal/config"
	"StockForecast/internal/forecast"
	"StockForecast/internal/metrics"
	"StockForecast/internal/modelstore"
	"StockForecast/internal/notifier"
	"StockForecast/internal/outlook"
	"StockForecast/internal/recorder"
	"StockForecast/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	cfgPath := flag.String("config", defaultCfg, "path to config file")
	symbol := flag.String("symbol", "", "forecast a single ticker, print it and exit")
	days := flag.Int("days", 0, "forecast horizon in trading days (0 = configured default)")
	once := flag.Bool("once", false, "run the daily forecast once and exit")
	flag.Parse()

	os.Exit(run(*cfgPath, *symbol, *days, *once))
}

// run wires and starts the forecaster and returns the process exit code.
// Deferred cleanup runs before main exits.
func run(cfgPath, symbol string, days int, once bool) int {
	log.Println("[INFO] StockForecast starting...")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("[FATAL] load config: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("[FATAL] config validation: %v", err)
		return 1
	}

	bundle, err := modelstore.Load(cfg.ModelDir)
	if err != nil {
		log.Printf("[FATAL] load model bundle: %v", err)
		return 1
	}
	if cfg.Prediction.SequenceLength != bundle.Config.SequenceLength {
		log.Printf("[WARN] config sequence_length %d differs from model's %d, using the model's",
			cfg.Prediction.SequenceLength, bundle.Config.SequenceLength)
	}

	m := metrics.NewMetrics()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "http":
		fetcher = collector.NewHTTPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 9000}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	if cache, closer := newSeriesCache(cfg); cache != nil {
		if closer != nil {
			defer closer.Close()
		}
		cf := collector.NewCachedFetcher(fetcher, cache, cfg.Cache.TTL)
		cf.Observer = m
		fetcher = cf
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	predictor, err := forecast.NewPredictor(fetcher, bundle.Model, bundle.Scalers, forecast.Settings{
		SequenceLength: bundle.Config.SequenceLength,
		FeatureColumns: bundle.Config.FeatureColumns,
		MaxDays:        cfg.Prediction.MaxDays,
		DefaultDays:    cfg.Prediction.DefaultDays,
		DataPeriod:     cfg.Prediction.DataPeriod,
	})
	if err != nil {
		log.Printf("[FATAL] init predictor: %v", err)
		return 1
	}
	predictor.Observer = m
	predictor.Forecaster.Observe = m.ObserveInfer

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if symbol != "" {
		return runSingle(ctx, predictor, symbol, days)
	}

	rec := newRecorder(cfg)
	defer rec.Close()

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Println("[WARN] telegram not configured, reports go to the log only")
	}

	sched := scheduler.NewScheduler(ctx, predictor, sender, rec, cfg)

	if once {
		sched.RunDailyNow()
		return 0
	}

	if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
		log.Printf("[FATAL] register cron tasks: %v", err)
		return 1
	}
	sched.Start()
	defer sched.Stop()

	go m.Serve(ctx, cfg.Metrics.Addr)

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing daily forecast now")
		go sched.RunDailyNow()
	}

	log.Println("[INFO] StockForecast is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return 0
}

func runSingle(ctx context.Context, p *forecast.Predictor, symbol string, days int) int {
	fc, err := p.Predict(ctx, symbol, days)
	if err != nil {
		log.Printf("[ERROR] forecast %s: %v", symbol, err)
		return 1
	}
	fmt.Println(notifier.FormatForecast(fc, outlook.Evaluate(fc)))
	return 0
}

// newSeriesCache returns nil when caching is disabled. A Redis backend that
// cannot be reached falls back to the in-memory cache.
func newSeriesCache(cfg *config.Config) (collector.SeriesCache, io.Closer) {
	switch cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "redis":
		rc, err := collector.NewRedisCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, "stockforecast:")
		if err == nil {
			return rc, rc
		}
		log.Printf("[WARN] init redis cache failed, using memory cache: %v", err)
	}
	return collector.NewMemoryCache(cfg.Cache.MaxEntries), nil
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.Driver == "none" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLRecorder(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Printf("[WARN] init %s recorder failed, using noop: %v", cfg.Database.Driver, err)
		return recorder.NewNoopRecorder()
	}
	return sr
}
