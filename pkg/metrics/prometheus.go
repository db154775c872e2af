package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal  *prometheus.CounterVec
	tradesTotal *prometheus.CounterVec
	wagersTotal *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   prometheus.Gauge
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperdesk_ticks_total",
				Help: "Total price engine ticks by regime",
			},
			[]string{"regime"},
		),
		tradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperdesk_trades_total",
				Help: "Total executed trades by side",
			},
			[]string{"side"},
		),
		wagersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperdesk_wagers_total",
				Help: "Total resolved wagers by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperdesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "paperdesk_last_price",
				Help: "Last simulated price",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paperdesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records one price engine tick.
func (r *Recorder) RecordTick(regime string, price float64) {
	r.ticksTotal.WithLabelValues(regime).Inc()
	r.lastPrice.Set(price)
}

// RecordTrade records an executed trade.
func (r *Recorder) RecordTrade(side string) {
	r.tradesTotal.WithLabelValues(side).Inc()
}

// RecordWager records a resolved wager session.
func (r *Recorder) RecordWager(mode, outcome string) {
	r.wagersTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
