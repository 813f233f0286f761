// Package decode runs the autoregressive generation loop: crop the context,
// query the predictor, transform the final-position scores, sample a token,
// append it, and repeat for a fixed number of steps.
package decode

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/samcharles93/nexttok/internal/logger"
	"github.com/samcharles93/nexttok/internal/logits"
	"github.com/samcharles93/nexttok/internal/predictor"
	"github.com/samcharles93/nexttok/internal/window"
)

// Options configures a single Generate call.
type Options struct {
	// ContextLimit bounds how many trailing tokens the predictor sees.
	ContextLimit int
	// Sampling controls temperature, top-k and stochastic selection.
	Sampling logits.Config
	// Rand is required when Sampling.Stochastic is set.
	Rand *rand.Rand
	// Observer, if set, is told about every appended token.
	Observer Observer
}

func validate(p predictor.Predictor, seed []int, steps int, opts Options) error {
	if p == nil {
		return configErr("predictor is required", nil)
	}
	if steps < 0 {
		return configErr(fmt.Sprintf("steps must be >= 0, got %d", steps), nil)
	}
	if opts.ContextLimit <= 0 {
		return configErr(fmt.Sprintf("context limit must be > 0, got %d", opts.ContextLimit), nil)
	}
	if err := opts.Sampling.Validate(predictor.VocabSize(p)); err != nil {
		return configErr("", err)
	}
	if opts.Sampling.Stochastic && opts.Rand == nil {
		return configErr("stochastic sampling requires a random source", nil)
	}
	if len(seed) == 0 && steps > 0 {
		return configErr("seed sequence must not be empty", nil)
	}
	return nil
}

// Generate extends seed by exactly steps tokens and returns the full
// sequence. seed is not modified.
//
// All arguments are validated before the predictor is first queried. Any
// failure aborts the call and no partial sequence is returned. The context is
// checked once per step, before the predictor query.
func Generate(ctx context.Context, p predictor.Predictor, seed []int, steps int, opts Options) ([]int, error) {
	if err := validate(p, seed, steps, opts); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	vocab := predictor.VocabSize(p)
	sampler := logits.NewSampler(opts.Sampling, opts.Rand)

	seq := make([]int, len(seed), len(seed)+steps)
	copy(seq, seed)

	for step := 0; step < steps; step++ {
		input := window.Crop(seq, opts.ContextLimit)

		if err := ctx.Err(); err != nil {
			return nil, stepError{kind: ErrCancelled, step: step, cause: err}
		}

		start := time.Now()
		scores, err := p.Predict(ctx, input)
		latency := time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stepError{kind: ErrCancelled, step: step, cause: ctx.Err()}
			}
			return nil, stepError{kind: ErrPredictorQuery, step: step, cause: err}
		}

		if vocab == 0 {
			// First look at an unsized predictor's vocabulary.
			if err := opts.Sampling.Validate(len(scores)); err != nil {
				return nil, stepError{kind: ErrConfiguration, step: step, cause: err}
			}
			vocab = len(scores)
		}
		if err := predictor.Check(scores, vocab); err != nil {
			return nil, stepError{kind: ErrPredictorQuery, step: step, cause: err}
		}

		next, err := sampler.Next(scores)
		if err != nil {
			return nil, stepError{kind: ErrSampling, step: step, cause: err}
		}
		seq = append(seq, next)

		log.Debug("decode step", "step", step, "token", next, "context_len", len(input), "predict_latency", latency)
		if opts.Observer != nil {
			opts.Observer.OnStep(StepEvent{
				Step:           step,
				Token:          next,
				ContextLen:     len(input),
				PredictLatency: latency,
			})
		}
	}

	return seq, nil
}

// Stats summarises a generation run.
type Stats struct {
	TokensGenerated int
	Duration        time.Duration
	TPS             float64
}

// Run calls Generate and reports throughput for the generated tokens.
func Run(ctx context.Context, p predictor.Predictor, seed []int, steps int, opts Options) ([]int, Stats, error) {
	var stats Stats
	start := time.Now()

	seq, err := Generate(ctx, p, seed, steps, opts)
	stats.Duration = time.Since(start)
	if err != nil {
		return nil, stats, err
	}

	stats.TokensGenerated = len(seq) - len(seed)
	if stats.Duration.Seconds() > 0 {
		stats.TPS = float64(stats.TokensGenerated) / stats.Duration.Seconds()
	}
	return seq, stats, nil
}
