package api

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/samcharles93/nexttok/internal/decode"
	"github.com/samcharles93/nexttok/internal/logger"
	"github.com/samcharles93/nexttok/internal/logits"
	"github.com/samcharles93/nexttok/internal/metrics"
	"github.com/samcharles93/nexttok/internal/predictor"
	"github.com/samcharles93/nexttok/internal/tokenizer"
)

// Defaults fill unset GenerateRequest fields.
type Defaults struct {
	Steps        int
	ContextLimit int
	Temperature  float64
	TopK         int
	Stochastic   bool
	// MaxSteps caps the steps a single request may ask for. 0 means no cap.
	MaxSteps int
}

// DefaultDefaults mirrors the CLI flag defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Steps:        64,
		ContextLimit: 256,
		Temperature:  1.0,
		MaxSteps:     4096,
	}
}

// StreamWriter receives generation progress for streaming requests.
type StreamWriter interface {
	Begin(resp GenerateResponse) error
	EmitToken(step, token int, delta string) error
	Complete(resp GenerateResponse) error
	Failed(resp GenerateResponse, err error) error
}

// GenerationService resolves requests and drives the decode loop.
type GenerationService struct {
	predictor predictor.Predictor
	tokenizer tokenizer.Tokenizer
	defaults  Defaults
	metrics   *metrics.Metrics
	clock     func() time.Time
	seeds     func() int64
}

func NewGenerationService(p predictor.Predictor, tok tokenizer.Tokenizer, defaults Defaults, m *metrics.Metrics) *GenerationService {
	return &GenerationService{
		predictor: p,
		tokenizer: tok,
		defaults:  defaults,
		metrics:   m,
		clock:     time.Now,
		seeds:     func() int64 { return time.Now().UnixNano() },
	}
}

type resolved struct {
	seed     []int
	steps    int
	rngSeed  int64
	sampling SamplingParams
}

func (s *GenerationService) resolve(req *GenerateRequest) (resolved, error) {
	var r resolved

	switch {
	case req.Prompt != nil && len(req.Tokens) > 0:
		return r, newInvalidRequest("prompt", "prompt and tokens are mutually exclusive")
	case req.Prompt != nil:
		if s.tokenizer == nil {
			return r, newInvalidRequest("prompt", "server has no tokenizer; send tokens instead")
		}
		ids, err := s.tokenizer.Encode(*req.Prompt)
		if err != nil {
			return r, newInvalidRequest("prompt", fmt.Sprintf("encode: %v", err))
		}
		r.seed = ids
	case len(req.Tokens) > 0:
		r.seed = req.Tokens
	default:
		return r, newInvalidRequest("prompt", "one of prompt or tokens is required")
	}
	if err := checkTokens(r.seed, predictor.VocabSize(s.predictor)); err != nil {
		param := "tokens"
		if req.Prompt != nil {
			param = "prompt"
		}
		return r, newInvalidRequest(param, err.Error())
	}

	r.steps = s.defaults.Steps
	if req.Steps != nil {
		r.steps = *req.Steps
	}
	if s.defaults.MaxSteps > 0 && r.steps > s.defaults.MaxSteps {
		return r, newInvalidRequest("steps", fmt.Sprintf("must be <= %d, got %d", s.defaults.MaxSteps, r.steps))
	}

	r.sampling = SamplingParams{
		Steps:        r.steps,
		ContextLimit: s.defaults.ContextLimit,
		Temperature:  s.defaults.Temperature,
		TopK:         s.defaults.TopK,
		Stochastic:   s.defaults.Stochastic,
	}
	if req.ContextLimit != nil {
		r.sampling.ContextLimit = *req.ContextLimit
	}
	if req.Temperature != nil {
		r.sampling.Temperature = *req.Temperature
	}
	if req.TopK != nil {
		r.sampling.TopK = *req.TopK
	}
	if req.Stochastic != nil {
		r.sampling.Stochastic = *req.Stochastic
	}

	if req.Seed != nil {
		r.rngSeed = *req.Seed
	} else {
		r.rngSeed = s.seeds()
	}
	return r, nil
}

// Generate runs one request. The returned response is non-nil whenever the
// request got past validation, including on failure.
func (s *GenerationService) Generate(ctx context.Context, req *GenerateRequest, stream StreamWriter) (*GenerateResponse, error) {
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	resp := GenerateResponse{
		ID:        newGenerationID(),
		Object:    "generation",
		CreatedAt: s.clock().Unix(),
		Status:    "in_progress",
		Seed:      r.rngSeed,
		Sampling:  r.sampling,
	}
	log := logger.FromContext(ctx).With("generation_id", resp.ID)
	ctx = logger.WithContext(ctx, log)

	if stream != nil {
		if err := stream.Begin(resp); err != nil {
			return &resp, err
		}
	}

	var streamObs decode.Observer
	if stream != nil {
		streamObs = decode.ObserverFunc(func(ev decode.StepEvent) {
			_ = stream.EmitToken(ev.Step, ev.Token, s.piece(ev.Token))
		})
	}
	var metricsObs decode.Observer
	if s.metrics != nil {
		metricsObs = s.metrics
	}

	opts := decode.Options{
		ContextLimit: r.sampling.ContextLimit,
		Sampling: logits.Config{
			Temperature: r.sampling.Temperature,
			TopK:        r.sampling.TopK,
			Stochastic:  r.sampling.Stochastic,
		},
		Observer: decode.Observers(streamObs, metricsObs),
	}
	if opts.Sampling.Stochastic {
		opts.Rand = rand.New(rand.NewSource(r.rngSeed))
	}

	seq, stats, err := decode.Run(ctx, s.predictor, r.seed, r.steps, opts)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(err, stats.Duration)
	}
	if err != nil {
		log.Warn("generation failed", "error", err, "outcome", metrics.Outcome(err))
		_, errType := classify(err)
		resp.Status = "failed"
		resp.Error = &ResponseError{Message: err.Error(), Type: errType}
		if stream != nil {
			_ = stream.Failed(resp, err)
		}
		return &resp, err
	}

	resp.Status = "completed"
	resp.Tokens = seq
	resp.Usage = &GenerationUsage{
		PromptTokens:    len(r.seed),
		GeneratedTokens: stats.TokensGenerated,
		TotalTokens:     len(seq),
	}
	resp.Stats = &GenerationStats{
		DurationMS:      float64(stats.Duration.Microseconds()) / 1000,
		TokensPerSecond: stats.TPS,
	}
	if s.tokenizer != nil {
		if text, err := s.tokenizer.Decode(seq); err == nil {
			resp.Text = text
		}
		if text, err := s.tokenizer.Decode(seq[len(r.seed):]); err == nil {
			resp.Completion = text
		}
	}
	log.Info("generation completed", "tokens", stats.TokensGenerated, "tps", stats.TPS)

	if stream != nil {
		if err := stream.Complete(resp); err != nil {
			return &resp, err
		}
	}
	return &resp, nil
}

func (s *GenerationService) piece(tok int) string {
	if s.tokenizer == nil {
		return ""
	}
	text, err := s.tokenizer.Decode([]int{tok})
	if err != nil {
		return ""
	}
	return text
}

// checkTokens reports the first id outside [0, vocab). vocab <= 0 means the
// predictor's vocabulary is unknown and only negative ids are rejected.
func checkTokens(ids []int, vocab int) error {
	for _, tok := range ids {
		if tok < 0 || (vocab > 0 && tok >= vocab) {
			if vocab > 0 {
				return fmt.Errorf("token %d out of range [0, %d)", tok, vocab)
			}
			return fmt.Errorf("token %d is negative", tok)
		}
	}
	return nil
}
