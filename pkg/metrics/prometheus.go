package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsIngested *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	framesSkipped  prometheus.Counter
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depthview_events_ingested_total",
				Help: "Total number of market events ingested per stream",
			},
			[]string{"stream"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depthview_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		framesSkipped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "depthview_render_frames_skipped_total",
				Help: "Render snapshots skipped due to lock contention",
			},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "depthview_last_price",
				Help: "Last close price for the active instrument",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depthview_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvent records one ingested market event for a stream.
func (r *Recorder) RecordEvent(stream string) {
	r.eventsIngested.WithLabelValues(stream).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordFrameSkip records one skipped render frame.
func (r *Recorder) RecordFrameSkip() {
	r.framesSkipped.Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
