// Package logits turns predictor scores into a next-token choice.
package logits

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyDistribution is returned when no vocabulary entry has a positive
// probability after truncation.
var ErrEmptyDistribution = errors.New("distribution has no candidates")

// Softmax normalises scores into probabilities. Entries at -Inf receive 0.
func Softmax(scores []float64) ([]float64, error) {
	if len(scores) == 0 {
		return nil, ErrEmptyDistribution
	}
	maxv := floats.Max(scores)
	switch {
	case math.IsInf(maxv, -1):
		return nil, ErrEmptyDistribution
	case math.IsInf(maxv, 1) || math.IsNaN(maxv):
		return nil, ErrNonFinite
	}

	probs := make([]float64, len(scores))
	for i, v := range scores {
		if math.IsInf(v, -1) {
			continue
		}
		probs[i] = math.Exp(v - maxv)
	}
	// The max entry contributes exactly 1, so sum >= 1.
	floats.Scale(1/floats.Sum(probs), probs)
	return probs, nil
}

// Greedy returns the index of the largest transformed score, lowest index
// first on ties. Pass scores, not probabilities: exponentials of nearly equal
// scores round to the same value.
func Greedy(scores []float64) (int, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyDistribution
	}
	idx := floats.MaxIdx(scores)
	if math.IsInf(scores[idx], -1) {
		return 0, ErrEmptyDistribution
	}
	return idx, nil
}

// Sample draws one index from the categorical distribution probs using rng.
func Sample(probs []float64, rng *rand.Rand) (int, error) {
	last := -1
	for i, p := range probs {
		if p > 0 {
			last = i
		}
	}
	if last < 0 {
		return 0, ErrEmptyDistribution
	}

	r := rng.Float64()
	var c float64
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		c += p
		if r < c {
			return i, nil
		}
	}
	// Rounding left the cumulative sum a hair under 1.
	return last, nil
}

// Sampler applies a Config to successive score vectors. It is not safe for
// concurrent use because it owns its random source.
type Sampler struct {
	cfg Config
	rng *rand.Rand
}

// NewSampler returns a sampler. rng may be nil for deterministic configs.
func NewSampler(cfg Config, rng *rand.Rand) *Sampler {
	return &Sampler{cfg: cfg, rng: rng}
}

// Config returns the sampler's configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// Next picks the next token for the given final-position scores.
//
//  1. Shift scores by their max and divide by the temperature.
//  2. Mask everything below the k-th largest score (ties kept).
//  3. Take the argmax, or normalise with Softmax and draw from the
//     distribution when Stochastic is set.
func (s *Sampler) Next(scores []float32) (int, error) {
	scaled, err := Transform(scores, s.cfg)
	if err != nil {
		return 0, err
	}
	if !s.cfg.Stochastic {
		return Greedy(scaled)
	}
	probs, err := Softmax(scaled)
	if err != nil {
		return 0, err
	}
	if s.rng == nil {
		return 0, configError{field: "rand", msg: "stochastic sampling requires a random source"}
	}
	return Sample(probs, s.rng)
}
