package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"StockForecast/internal/forecast"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for forecast_requests_total.
const (
	ResultOK           = "ok"
	ResultUnavailable  = "data_unavailable"
	ResultInsufficient = "insufficient_data"
	ResultConfig       = "config_fault"
	ResultInference    = "inference_error"
	ResultOther        = "error"
)

// Metrics holds all Prometheus metrics for the forecaster.
type Metrics struct {
	Registry *prometheus.Registry

	ForecastRequests *prometheus.CounterVec // labels: result
	ForecastDuration prometheus.Histogram
	ScalerFallbacks  *prometheus.CounterVec // labels: symbol
	InferDuration    prometheus.Histogram
	InferErrors      prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_requests_total",
			Help: "Forecast requests by result",
		}, []string{"result"}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_duration_seconds",
			Help:    "End-to-end duration of one forecast request",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ScalerFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_scaler_fallback_total",
			Help: "Forecasts that used a fallback scaler",
		}, []string{"symbol"}),
		InferDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "model_infer_duration_seconds",
			Help:    "Duration of a single sequence model call",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		InferErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "model_infer_errors_total",
			Help: "Failed sequence model calls",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "series_cache_hits_total",
			Help: "Market data cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "series_cache_misses_total",
			Help: "Market data cache misses",
		}),
	}
	m.Registry.MustRegister(
		m.ForecastRequests, m.ForecastDuration, m.ScalerFallbacks,
		m.InferDuration, m.InferErrors, m.CacheHits, m.CacheMisses,
	)
	return m
}

// ObserveForecast implements forecast.Observer.
func (m *Metrics) ObserveForecast(symbol string, elapsed time.Duration, err error, fallbackUsed bool) {
	m.ForecastRequests.WithLabelValues(resultLabel(err)).Inc()
	m.ForecastDuration.Observe(elapsed.Seconds())
	if fallbackUsed {
		m.ScalerFallbacks.WithLabelValues(symbol).Inc()
	}
}

// ObserveInfer is a forecast.InferObserver.
func (m *Metrics) ObserveInfer(d time.Duration, err error) {
	m.InferDuration.Observe(d.Seconds())
	if err != nil {
		m.InferErrors.Inc()
	}
}

// CacheHit implements collector.CacheObserver.
func (m *Metrics) CacheHit() { m.CacheHits.Inc() }

// CacheMiss implements collector.CacheObserver.
func (m *Metrics) CacheMiss() { m.CacheMisses.Inc() }

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, forecast.ErrDataUnavailable):
		return ResultUnavailable
	case errors.Is(err, forecast.ErrInsufficientData):
		return ResultInsufficient
	case forecast.IsConfigFault(err):
		return ResultConfig
	case errors.Is(err, forecast.ErrModelInference):
		return ResultInference
	default:
		return ResultOther
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[ERROR] metrics server: %v", err)
	}
}
