// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	SignalsReceived prometheus.Counter
	FramesDropped   prometheus.Counter
	FeedReconnects  prometheus.Counter

	// Scoring metrics
	SignalsScored    prometheus.Counter
	ScoreAdjustments *prometheus.CounterVec // by direction: raised, lowered, unchanged

	// Dedup metrics
	DuplicatesSuppressed prometheus.Counter
	ScoreOverrides       prometheus.Counter
	TrackedTokens        prometheus.Gauge

	// Backtest metrics
	BacktestRunsTotal *prometheus.CounterVec // by status: ok, error
	BacktestDuration  prometheus.Histogram
	TradesSimulated   prometheus.Counter
	SignalsReplayed   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "signal_oracle_lab"
	}

	return &Metrics{
		// Feed metrics
		SignalsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "signals_received_total",
			Help:      "Total number of signal frames received from the aggregator",
		}),
		FramesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "frames_dropped_total",
			Help:      "Total number of malformed frames dropped",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of WebSocket reconnect attempts",
		}),

		// Scoring metrics
		SignalsScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "signals_scored_total",
			Help:      "Total number of signals run through confluence scoring",
		}),
		ScoreAdjustments: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "score_adjustments_total",
			Help:      "Total number of score adjustments by direction",
		}, []string{"direction"}),

		// Dedup metrics
		DuplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "duplicates_suppressed_total",
			Help:      "Total number of signals suppressed as duplicates",
		}),
		ScoreOverrides: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "score_overrides_total",
			Help:      "Total number of duplicates passed through on score improvement",
		}),
		TrackedTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "tracked_tokens",
			Help:      "Current number of tokens tracked in the dedup window",
		}),

		// Backtest metrics
		BacktestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades produced by simulations",
		}),
		SignalsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "signals_replayed_total",
			Help:      "Total number of signals replayed through simulations",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful backtest run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSignalReceived increments the signals received counter.
func RecordSignalReceived() {
	DefaultMetrics.SignalsReceived.Inc()
}

// RecordFrameDropped increments the dropped frames counter.
func RecordFrameDropped() {
	DefaultMetrics.FramesDropped.Inc()
}

// RecordSignalScored records one scoring pass and its direction.
func RecordSignalScored(base, adjusted int) {
	DefaultMetrics.SignalsScored.Inc()
	switch {
	case adjusted > base:
		DefaultMetrics.ScoreAdjustments.WithLabelValues("raised").Inc()
	case adjusted < base:
		DefaultMetrics.ScoreAdjustments.WithLabelValues("lowered").Inc()
	default:
		DefaultMetrics.ScoreAdjustments.WithLabelValues("unchanged").Inc()
	}
}

// RecordDuplicateSuppressed increments the duplicates suppressed counter.
func RecordDuplicateSuppressed() {
	DefaultMetrics.DuplicatesSuppressed.Inc()
}

// RecordScoreOverride increments the score override counter.
func RecordScoreOverride() {
	DefaultMetrics.ScoreOverrides.Inc()
}

// UpdateTrackedTokens updates the dedup tracked tokens gauge.
func UpdateTrackedTokens(n int) {
	DefaultMetrics.TrackedTokens.Set(float64(n))
}

// RecordBacktestRun records a backtest run outcome.
func RecordBacktestRun(status string, durationSeconds float64, trades, signals int) {
	DefaultMetrics.BacktestRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
	DefaultMetrics.TradesSimulated.Add(float64(trades))
	DefaultMetrics.SignalsReplayed.Add(float64(signals))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
