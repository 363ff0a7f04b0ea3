package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Run metrics
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Total number of backtest runs by outcome",
		},
		[]string{"symbol", "outcome"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall-clock duration of backtest runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	// Execution metrics
	candlesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_candles_processed_total",
			Help: "Total number of candles consumed",
		},
		[]string{"symbol", "timeframe"},
	)

	fillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_fills_total",
			Help: "Total number of simulated fills",
		},
		[]string{"symbol", "side"},
	)

	// Error metrics
	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_order_rejections_total",
			Help: "Total number of rejected orders by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(candlesProcessed)
	prometheus.MustRegister(fillsTotal)
	prometheus.MustRegister(rejectionsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordRun records a completed run with its outcome and duration.
func RecordRun(symbol, outcome string, duration time.Duration) {
	runsTotal.WithLabelValues(symbol, outcome).Inc()
	runDuration.WithLabelValues(symbol).Observe(duration.Seconds())
}

// RecordCandles adds to the processed candle counter.
func RecordCandles(symbol, timeframe string, count int) {
	candlesProcessed.WithLabelValues(symbol, timeframe).Add(float64(count))
}

// RecordFill records one simulated fill.
func RecordFill(symbol, side string) {
	fillsTotal.WithLabelValues(symbol, side).Inc()
}

// RecordRejection records a rejected order.
func RecordRejection(reason string) {
	rejectionsTotal.WithLabelValues(reason).Inc()
}
