package logits

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrNonFinite is returned for NaN or +Inf scores.
var ErrNonFinite = errors.New("non-finite score")

// Scale widens scores to float64, shifts them so the largest is 0 and divides
// by temperature. Every result is <= 0: a vanishing temperature sends the
// non-maximal scores to -Inf and never overflows to +Inf. The input is not
// modified.
func Scale(scores []float32, temperature float64) []float64 {
	out := make([]float64, len(scores))
	maxv := math.Inf(-1)
	for _, s := range scores {
		if v := float64(s); v > maxv {
			maxv = v
		}
	}
	for i, s := range scores {
		v := float64(s)
		if math.IsInf(v, -1) {
			out[i] = v
			continue
		}
		out[i] = (v - maxv) / temperature
	}
	return out
}

// TopK sets every score strictly below the k-th largest value to -Inf, in
// place. Scores equal to the threshold are kept, so more than k entries can
// survive when there are ties at the boundary. k <= 0 or k >= len(scores) is
// a no-op.
func TopK(scores []float64, k int) {
	if k <= 0 || k >= len(scores) {
		return
	}
	sorted := slices.Clone(scores)
	slices.SortFunc(sorted, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	threshold := sorted[k-1]

	negInf := math.Inf(-1)
	for i, v := range scores {
		if v < threshold {
			scores[i] = negInf
		}
	}
}

// Transform applies temperature scaling and then top-k truncation to the
// final-position score vector. -Inf entries stay masked; NaN and +Inf are
// rejected.
func Transform(scores []float32, cfg Config) ([]float64, error) {
	if err := cfg.Validate(len(scores)); err != nil {
		return nil, err
	}
	for i, s := range scores {
		if v := float64(s); math.IsNaN(v) || math.IsInf(v, 1) {
			return nil, fmt.Errorf("%w: index %d is %v", ErrNonFinite, i, s)
		}
	}
	scaled := Scale(scores, cfg.Temperature)
	TopK(scaled, cfg.TopK)
	return scaled, nil
}
