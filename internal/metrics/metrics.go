// Package metrics exposes Prometheus collectors for generation calls.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/samcharles93/nexttok/internal/decode"
)

// Outcome labels for nexttok_generations_total.
const (
	OutcomeOK            = "ok"
	OutcomeConfiguration = "configuration"
	OutcomePredictor     = "predictor"
	OutcomeSampling      = "sampling"
	OutcomeCancelled     = "cancelled"
	OutcomeError         = "error"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	Generations        *prometheus.CounterVec
	TokensGenerated    prometheus.Counter
	PredictLatency     prometheus.Histogram
	GenerationDuration prometheus.Histogram
	ContextLength      prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nexttok_generations_total",
			Help: "Total number of generation calls by outcome",
		}, []string{"outcome"}),
		TokensGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "nexttok_tokens_generated_total",
			Help: "Total number of tokens appended by the decode loop",
		}),
		PredictLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nexttok_predict_duration_seconds",
			Help:    "Duration of a single predictor query",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		GenerationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nexttok_generation_duration_seconds",
			Help:    "Wall time of a whole generation call",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		}),
		ContextLength: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nexttok_context_tokens",
			Help:    "Number of tokens shown to the predictor per query",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// OnStep implements decode.Observer.
func (m *Metrics) OnStep(ev decode.StepEvent) {
	m.TokensGenerated.Inc()
	m.PredictLatency.Observe(ev.PredictLatency.Seconds())
	m.ContextLength.Observe(float64(ev.ContextLen))
}

// ObserveGeneration records the outcome and duration of one call.
func (m *Metrics) ObserveGeneration(err error, d time.Duration) {
	m.Generations.WithLabelValues(Outcome(err)).Inc()
	m.GenerationDuration.Observe(d.Seconds())
}

// Outcome classifies a Generate error into a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, decode.ErrConfiguration):
		return OutcomeConfiguration
	case errors.Is(err, decode.ErrPredictorQuery):
		return OutcomePredictor
	case errors.Is(err, decode.ErrSampling):
		return OutcomeSampling
	case errors.Is(err, decode.ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}
