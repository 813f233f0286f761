// Package predictor defines the next-token predictor contract driven by the
// decode loop, plus adapters that satisfy it.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Predictor maps a context of token ids to one unnormalised score per
// vocabulary entry for the next position. Implementations must not mutate
// tokens or any persistent state.
type Predictor interface {
	Predict(ctx context.Context, tokens []int) ([]float32, error)
}

// VocabSizer is implemented by predictors that know their vocabulary size up
// front. The decode loop uses it to validate top-k before the first query.
type VocabSizer interface {
	VocabSize() int
}

// Func adapts an ordinary function to Predictor.
type Func func(ctx context.Context, tokens []int) ([]float32, error)

func (f Func) Predict(ctx context.Context, tokens []int) ([]float32, error) {
	return f(ctx, tokens)
}

// WithVocab attaches a known vocabulary size to p.
func WithVocab(p Predictor, vocab int) Predictor {
	return sized{Predictor: p, vocab: vocab}
}

type sized struct {
	Predictor
	vocab int
}

func (s sized) VocabSize() int { return s.vocab }

// VocabSize reports p's vocabulary size, or 0 if p does not know it.
func VocabSize(p Predictor) int {
	if vs, ok := p.(VocabSizer); ok {
		return vs.VocabSize()
	}
	return 0
}

var (
	// ErrWrongLength is returned by Check when the vector does not cover the vocabulary.
	ErrWrongLength = errors.New("score vector has wrong length")
	// ErrNonFinite is returned by Check for NaN or +Inf scores.
	ErrNonFinite = errors.New("score vector has non-finite entries")
)

// Check validates a score vector. vocab <= 0 skips the length check beyond
// requiring a non-empty vector. -Inf is accepted as a masked entry.
func Check(scores []float32, vocab int) error {
	if len(scores) == 0 {
		return fmt.Errorf("%w: empty", ErrWrongLength)
	}
	if vocab > 0 && len(scores) != vocab {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongLength, len(scores), vocab)
	}
	for i, s := range scores {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 1) {
			return fmt.Errorf("%w: index %d is %v", ErrNonFinite, i, s)
		}
	}
	return nil
}
