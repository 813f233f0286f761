package logits

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finiteCount(xs []float64) int {
	n := 0
	for _, v := range xs {
		if !math.IsInf(v, -1) {
			n++
		}
	}
	return n
}

func TestScaleShiftsByMaxThenDivides(t *testing.T) {
	t.Parallel()
	in := []float32{2, -4, 8, float32(math.Inf(-1))}
	got := Scale(in, 2)
	assert.Equal(t, []float64{-3, -6, 0, math.Inf(-1)}, got)
	assert.Equal(t, []float32{2, -4, 8, float32(math.Inf(-1))}, in, "input must not be modified")
}

func TestScaleNeverOverflowsAtTinyTemperature(t *testing.T) {
	t.Parallel()
	got := Scale([]float32{3, 5, 5}, 1e-308)
	for i, v := range got {
		assert.False(t, math.IsInf(v, 1), "index %d overflowed", i)
	}
	assert.True(t, math.IsInf(got[0], -1))
	assert.Equal(t, 0.0, got[1])
	assert.Equal(t, 0.0, got[2])
}

func TestTransformRejectsNonFinite(t *testing.T) {
	t.Parallel()
	_, err := Transform([]float32{1, float32(math.Inf(1))}, Config{Temperature: 1})
	assert.ErrorIs(t, err, ErrNonFinite)
	_, err = Transform([]float32{float32(math.NaN()), 1}, Config{Temperature: 1})
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestTopKExactWithoutTies(t *testing.T) {
	t.Parallel()
	scores := []float64{0.1, 5, 3, 4, -1, 2}
	TopK(scores, 3)
	assert.Equal(t, 3, finiteCount(scores))
	assert.True(t, math.IsInf(scores[0], -1))
	assert.Equal(t, 5.0, scores[1])
	assert.Equal(t, 3.0, scores[2])
	assert.Equal(t, 4.0, scores[3])
}

func TestTopKKeepsTiesAtThreshold(t *testing.T) {
	t.Parallel()
	scores := []float64{1, 3, 2, 2, 2, 0}
	TopK(scores, 2)
	// Threshold is 2; all three 2s survive next to the 3.
	assert.Equal(t, 4, finiteCount(scores))
	assert.True(t, math.IsInf(scores[0], -1))
	assert.True(t, math.IsInf(scores[5], -1))
}

func TestTopKNoOpBounds(t *testing.T) {
	t.Parallel()
	scores := []float64{3, 1, 2}
	TopK(scores, 0)
	assert.Equal(t, []float64{3, 1, 2}, scores)
	TopK(scores, 3)
	assert.Equal(t, []float64{3, 1, 2}, scores)
}

func TestSoftmaxSumsToOne(t *testing.T) {
	t.Parallel()
	probs, err := Softmax([]float64{1, 2, 3, math.Inf(-1)})
	require.NoError(t, err)
	var sum float64
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 0.0, probs[3])
	assert.Greater(t, probs[2], probs[1])
}

func TestSoftmaxLargeScoresStayFinite(t *testing.T) {
	t.Parallel()
	probs, err := Softmax([]float64{1000, 999})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-1)), probs[0], 1e-12)
}

func TestSoftmaxRejectsPositiveInfinity(t *testing.T) {
	t.Parallel()
	_, err := Softmax([]float64{1, math.Inf(1), 3})
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestSoftmaxAllMaskedFails(t *testing.T) {
	t.Parallel()
	inf := math.Inf(-1)
	_, err := Softmax([]float64{inf, inf})
	assert.ErrorIs(t, err, ErrEmptyDistribution)
	_, err = Softmax(nil)
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestGreedyLowestIndexOnTies(t *testing.T) {
	t.Parallel()
	idx, err := Greedy([]float64{-1, 0, -1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestGreedyAllMaskedFails(t *testing.T) {
	t.Parallel()
	inf := math.Inf(-1)
	_, err := Greedy([]float64{inf, inf, inf})
	assert.ErrorIs(t, err, ErrEmptyDistribution)
	_, err = Greedy(nil)
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestSampleNeverPicksZeroProbability(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1))
	probs := []float64{0, 0.5, 0, 0.5}
	counts := make(map[int]int)
	for i := 0; i < 500; i++ {
		idx, err := Sample(probs, rng)
		require.NoError(t, err)
		counts[idx]++
	}
	assert.Zero(t, counts[0]+counts[2])
	assert.Greater(t, counts[1], 0)
	assert.Greater(t, counts[3], 0)
}

func TestSampleReproducibleWithSeed(t *testing.T) {
	t.Parallel()
	probs := []float64{0.1, 0.2, 0.3, 0.4}
	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		x, err := Sample(probs, a)
		require.NoError(t, err)
		y, err := Sample(probs, b)
		require.NoError(t, err)
		require.Equal(t, x, y, "draw %d", i)
	}
}

func TestSampleEmptyFails(t *testing.T) {
	t.Parallel()
	_, err := Sample([]float64{0, 0}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		cfg   Config
		vocab int
		ok    bool
	}{
		{"default", DefaultConfig(), 10, true},
		{"zero temperature", Config{Temperature: 0}, 10, false},
		{"negative temperature", Config{Temperature: -1}, 10, false},
		{"nan temperature", Config{Temperature: math.NaN()}, 10, false},
		{"inf temperature", Config{Temperature: math.Inf(1)}, 10, false},
		{"negative top-k", Config{Temperature: 1, TopK: -1}, 10, false},
		{"top-k equals vocab", Config{Temperature: 1, TopK: 10}, 10, true},
		{"top-k above vocab", Config{Temperature: 1, TopK: 11}, 10, false},
		{"top-k unknown vocab", Config{Temperature: 1, TopK: 11}, 0, true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate(tc.vocab)
		if tc.ok {
			assert.NoError(t, err, tc.name)
			continue
		}
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%s: got %v", tc.name, err)
	}
}

func TestSamplerTopKOneMatchesArgmax(t *testing.T) {
	t.Parallel()
	scores := []float32{-1, 5, 3, 7, 2}
	plain := NewSampler(Config{Temperature: 1}, nil)
	top1 := NewSampler(Config{Temperature: 1, TopK: 1}, nil)

	a, err := plain.Next(scores)
	require.NoError(t, err)
	b, err := top1.Next(scores)
	require.NoError(t, err)
	assert.Equal(t, 3, a)
	assert.Equal(t, a, b)
}

func TestSamplerTopKRestrictsStochasticDraws(t *testing.T) {
	t.Parallel()
	s := NewSampler(Config{Temperature: 1, TopK: 2, Stochastic: true}, rand.New(rand.NewSource(42)))
	scores := []float32{1, 2, 3, 4, 5}
	counts := make(map[int]int)
	for i := 0; i < 200; i++ {
		tok, err := s.Next(scores)
		require.NoError(t, err)
		counts[tok]++
	}
	assert.Zero(t, counts[0]+counts[1]+counts[2])
	assert.Greater(t, counts[3]+counts[4], 0)
}

func TestSamplerLowTemperatureConvergesToArgmax(t *testing.T) {
	t.Parallel()
	scores := []float32{0.3, 1.2, 0.9, 1.1}
	greedy, err := NewSampler(Config{Temperature: 1}, nil).Next(scores)
	require.NoError(t, err)

	s := NewSampler(Config{Temperature: 1e-4, Stochastic: true}, rand.New(rand.NewSource(7)))
	for i := 0; i < 200; i++ {
		tok, err := s.Next(scores)
		require.NoError(t, err)
		require.Equal(t, greedy, tok, "draw %d", i)
	}
}

func TestSamplerStochasticWithoutRandFails(t *testing.T) {
	t.Parallel()
	_, err := NewSampler(Config{Temperature: 1, Stochastic: true}, nil).Next([]float32{1, 2})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSamplerRejectsTopKAboveVocab(t *testing.T) {
	t.Parallel()
	_, err := NewSampler(Config{Temperature: 1, TopK: 4}, nil).Next([]float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSamplerAllMaskedIsSamplingFailure(t *testing.T) {
	t.Parallel()
	inf := float32(math.Inf(-1))
	_, err := NewSampler(Config{Temperature: 1}, nil).Next([]float32{inf, inf, inf})
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestSamplerExtremeTemperaturesKeepArgmax(t *testing.T) {
	t.Parallel()
	scores := []float32{3, 5}
	for _, temp := range []float64{1, 1e-308, 1e-300, 1e20, 1e300} {
		tok, err := NewSampler(Config{Temperature: temp}, nil).Next(scores)
		require.NoError(t, err, "temperature %g", temp)
		assert.Equal(t, 1, tok, "temperature %g", temp)
	}
}

func TestSamplerVanishingTemperatureIsDeterministic(t *testing.T) {
	t.Parallel()
	s := NewSampler(Config{Temperature: 1e-308, Stochastic: true}, rand.New(rand.NewSource(3)))
	for i := 0; i < 500; i++ {
		tok, err := s.Next([]float32{3, 5})
		require.NoError(t, err)
		require.Equal(t, 1, tok, "draw %d", i)
	}
}

func TestSamplerHugeTemperatureIsNearlyUniform(t *testing.T) {
	t.Parallel()
	s := NewSampler(Config{Temperature: 1e20, Stochastic: true}, rand.New(rand.NewSource(3)))
	counts := make(map[int]int)
	for i := 0; i < 1000; i++ {
		tok, err := s.Next([]float32{3, 5})
		require.NoError(t, err)
		counts[tok]++
	}
	assert.InDelta(t, 500, counts[0], 100)
	assert.InDelta(t, 500, counts[1], 100)
}
