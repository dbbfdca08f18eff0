package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PredictionMetrics tracks model pipeline calls.
type PredictionMetrics struct {
	latency  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewPredictionMetrics registers the prediction metrics on the provided registerer.
func NewPredictionMetrics(reg prometheus.Registerer) *PredictionMetrics {
	if reg == nil {
		return &PredictionMetrics{}
	}
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prediction_latency_seconds",
		Help:    "End-to-end latency of prediction calls, including the runner round trip.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_outcomes_total",
		Help: "Prediction calls by pipeline and outcome.",
	}, []string{"pipeline", "outcome"})
	reg.MustRegister(latency, outcomes)
	return &PredictionMetrics{latency: latency, outcomes: outcomes}
}

// ObserveLatency records how long a prediction call took.
func (p *PredictionMetrics) ObserveLatency(pipeline string, duration time.Duration) {
	if p == nil || p.latency == nil {
		return
	}
	p.latency.WithLabelValues(normalizeLabel(pipeline)).Observe(duration.Seconds())
}

// IncOutcome counts one prediction call outcome ("ok", "validation",
// "unavailable", "dependency", "persist").
func (p *PredictionMetrics) IncOutcome(pipeline, outcome string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(normalizeLabel(pipeline), normalizeLabel(outcome)).Inc()
}
