package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	requestsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	rendersTotal  *prometheus.CounterVec
	recent        prometheus.Gauge
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
// Call it once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intellimarket_requests_total",
				Help: "Backend requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intellimarket_errors_total",
				Help: "Errors surfaced to the user by kind",
			},
			[]string{"kind"},
		),
		rendersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intellimarket_renders_total",
				Help: "Rendered analysis results by kind",
			},
			[]string{"kind"},
		),
		recent: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "intellimarket_recent_entries",
				Help: "Entries currently held in the recent-history list",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intellimarket_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"endpoint"},
		),
	}
}

// RecordRequest records one backend call.
func (r *Recorder) RecordRequest(endpoint, outcome string, d time.Duration) {
	r.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	r.latency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRender records a rendered result.
func (r *Recorder) RecordRender(kind string) {
	r.rendersTotal.WithLabelValues(kind).Inc()
}

// SetRecentEntries records the current history length.
func (r *Recorder) SetRecentEntries(n int) {
	r.recent.Set(float64(n))
}
