// Package toy provides a small, deterministic next-token predictor used by
// the CLI, the API server, and tests when no real model is wired in.
package toy

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Model is a minimal language model: an embedding matrix, a projection back
// to vocabulary scores, and a bias. Predict pools the context embeddings with
// a linear recency weight so token order influences the result.
//
// Weights are read-only after construction, so a Model is safe for
// concurrent use.
type Model struct {
	vocab  int
	hidden int

	emb  *mat.Dense // [vocab x hidden]
	proj *mat.Dense // [hidden x vocab]
	bias []float64  // [vocab]
}

// New constructs a model with the given vocabulary and hidden size. Weights
// are drawn from a normal distribution seeded by seed, so equal arguments
// give identical models.
func New(vocab, hidden int, seed int64) (*Model, error) {
	if vocab <= 0 || hidden <= 0 {
		return nil, fmt.Errorf("toy: vocab and hidden must be positive, got %d and %d", vocab, hidden)
	}
	m := &Model{
		vocab:  vocab,
		hidden: hidden,
		emb:    mat.NewDense(vocab, hidden, nil),
		proj:   mat.NewDense(hidden, vocab, nil),
		bias:   make([]float64, vocab),
	}
	fillNormal(m.emb, seed+11, 1)
	fillNormal(m.proj, seed+23, 1/math.Sqrt(float64(hidden)))
	return m, nil
}

func fillNormal(d *mat.Dense, seed int64, scale float64) {
	rng := rand.New(rand.NewSource(seed))
	r, c := d.Dims()
	for i := 0; i < r; i++ {
		row := d.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] = rng.NormFloat64() * scale
		}
	}
}

// VocabSize returns the number of scores Predict produces.
func (m *Model) VocabSize() int { return m.vocab }

// Hidden returns the embedding width.
func (m *Model) Hidden() int { return m.hidden }

// SetBias overwrites the bias for token tok. It is intended for setting up
// fixtures before the model is shared.
func (m *Model) SetBias(tok int, v float64) {
	m.bias[tok] = v
}

// Predict returns vocabulary scores for the token following tokens.
func (m *Model) Predict(ctx context.Context, tokens []int) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("toy: empty context")
	}

	h := mat.NewVecDense(m.hidden, nil)
	var total float64
	for i, tok := range tokens {
		if tok < 0 || tok >= m.vocab {
			return nil, fmt.Errorf("toy: token %d out of range [0, %d)", tok, m.vocab)
		}
		w := float64(i + 1)
		h.AddScaledVec(h, w, m.emb.RowView(tok))
		total += w
	}
	h.ScaleVec(1/total, h)

	out := mat.NewVecDense(m.vocab, nil)
	out.MulVec(m.proj.T(), h)

	scores := make([]float32, m.vocab)
	for j := range scores {
		scores[j] = float32(out.AtVec(j) + m.bias[j])
	}
	return scores, nil
}
