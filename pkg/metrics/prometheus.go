package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses    *prometheus.CounterVec
	signals     *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	activeEdges prometheus.Gauge
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_analyses_total",
				Help: "Completed analyses by market type and recommendation",
			},
			[]string{"market", "recommendation"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_signals_total",
				Help: "Candidate signals by adversarial validation result",
			},
			[]string{"result"},
		),
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_ledger_outcomes_total",
				Help: "Ledger entries closed by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalfusion_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		activeEdges: f.NewGauge(prometheus.GaugeOpts{
			Name: "signalfusion_active_edges",
			Help: "Recorded edges that have not fully decayed",
		}),
	}
}

func (r *Recorder) RecordAnalysis(market, recommendation string) {
	r.analyses.WithLabelValues(market, recommendation).Inc()
}

// RecordSignals adds n signals under a validation result label.
func (r *Recorder) RecordSignals(result string, n int) {
	if n <= 0 {
		return
	}
	r.signals.WithLabelValues(result).Add(float64(n))
}

func (r *Recorder) RecordOutcome(outcome string) {
	r.outcomes.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) SetActiveEdges(n int) {
	r.activeEdges.Set(float64(n))
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordAnalysis(string, string) {}
func (Nop) RecordSignals(string, int)     {}
func (Nop) RecordOutcome(string)          {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
func (Nop) SetActiveEdges(int)            {}
