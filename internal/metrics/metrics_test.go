package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/nexttok/internal/decode"
	"github.com/samcharles93/nexttok/internal/logits"
	"github.com/samcharles93/nexttok/internal/predictor"
)

func TestOutcome(t *testing.T) {
	t.Parallel()
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeConfiguration, Outcome(fmt.Errorf("x: %w", decode.ErrConfiguration)))
	assert.Equal(t, OutcomePredictor, Outcome(decode.ErrPredictorQuery))
	assert.Equal(t, OutcomeSampling, Outcome(decode.ErrSampling))
	assert.Equal(t, OutcomeCancelled, Outcome(decode.ErrCancelled))
	assert.Equal(t, OutcomeCancelled, Outcome(context.DeadlineExceeded))
	assert.Equal(t, OutcomeError, Outcome(errors.New("other")))
}

func TestMetricsObserveDecodeLoop(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := New(reg)

	p := predictor.Func(func(_ context.Context, _ []int) ([]float32, error) {
		return []float32{0, 1, 5}, nil
	})
	opts := decode.Options{
		ContextLimit: 2,
		Sampling:     logits.Config{Temperature: 1},
		Observer:     m,
	}
	start := time.Now()
	_, err := decode.Generate(context.Background(), p, []int{0}, 4, opts)
	m.ObserveGeneration(err, time.Since(start))
	require.NoError(t, err)

	_, err = decode.Generate(context.Background(), p, []int{0}, -1, opts)
	m.ObserveGeneration(err, 0)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.TokensGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues(OutcomeConfiguration)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Generations))

	count, err := testutil.GatherAndCount(reg, "nexttok_predict_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewRegistersOnce(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "duplicate registration must be rejected")
}
