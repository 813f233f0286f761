package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nexttok/internal/decode"
	"github.com/samcharles93/nexttok/internal/logger"
	"github.com/samcharles93/nexttok/internal/logits"
	"github.com/samcharles93/nexttok/internal/tokenizer"
)

type generateResult struct {
	Prompt     string         `json:"prompt"`
	Tokens     []int          `json:"tokens"`
	Text       string         `json:"text"`
	Completion string         `json:"completion"`
	Seed       int64          `json:"seed"`
	Sampling   samplingResult `json:"sampling"`
	Stats      statsResult    `json:"stats"`
}

type samplingResult struct {
	Steps        int     `json:"steps"`
	ContextLimit int     `json:"context_limit"`
	Temperature  float64 `json:"temperature"`
	TopK         int     `json:"top_k"`
	Stochastic   bool    `json:"stochastic"`
}

type statsResult struct {
	TokensGenerated int     `json:"tokens_generated"`
	DurationMS      float64 `json:"duration_ms"`
	TokensPerSecond float64 `json:"tokens_per_second"`
}

func generateCmd() *cli.Command {
	var (
		prompt     string
		steps      int64
		temp       float64
		topK       int64
		stochastic bool
		seed       int64
		streamMode string
		jsonOut    bool
		echoPrompt bool
	)

	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Extend a prompt by a fixed number of tokens",
		ArgsUsage: "[prompt]",
		Flags: append(append(commonPredictorFlags(), commonTokenizerFlags()...),
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "prompt text to tokenize",
				Destination: &prompt,
			},
			&cli.Int64Flag{
				Name:        "steps",
				Aliases:     []string{"n", "num-tokens"},
				Usage:       "number of tokens to generate",
				Value:       64,
				Destination: &steps,
			},
			&cli.Float64Flag{
				Name:        "temperature",
				Aliases:     []string{"temp", "t"},
				Usage:       "temperature for sampling",
				Value:       1.0,
				Destination: &temp,
			},
			&cli.Int64Flag{
				Name:        "top-k",
				Aliases:     []string{"topk"},
				Usage:       "keep only the k highest-scoring tokens (0 = disabled)",
				Destination: &topK,
			},
			&cli.BoolFlag{
				Name:        "stochastic",
				Aliases:     []string{"sample"},
				Usage:       "draw from the distribution instead of taking the argmax",
				Destination: &stochastic,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "RNG seed for stochastic sampling (-1 = time based)",
				Value:       -1,
				Destination: &seed,
			},
			&cli.StringFlag{
				Name:        "stream-mode",
				Usage:       "output while generating (instant, quiet)",
				Value:       string(StreamInstant),
				Destination: &streamMode,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the result as JSON",
				Destination: &jsonOut,
			},
			&cli.BoolFlag{
				Name:        "echo-prompt",
				Usage:       "print the prompt before the generated text",
				Value:       true,
				Destination: &echoPrompt,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyGenerateConfig(c, LoadConfig(), generateSettings{
				steps:      &steps,
				temp:       &temp,
				topK:       &topK,
				stochastic: &stochastic,
				seed:       &seed,
			})
			if prompt == "" {
				prompt = c.Args().First()
			}
			if prompt == "" {
				return cli.Exit("error: prompt is required (--prompt or first argument)", 1)
			}
			mode := StreamMode(streamMode)
			if mode != StreamInstant && mode != StreamQuiet {
				return cli.Exit(fmt.Sprintf("error: unknown stream mode %q", streamMode), 1)
			}

			tok, err := tokenizer.New(tokenizerName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: tokenizer: %v", err), 1)
			}
			p, err := buildPredictor(tok)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: predictor: %v", err), 1)
			}
			ids, err := tok.Encode(prompt)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode prompt: %v", err), 1)
			}

			if seed < 0 {
				seed = time.Now().UnixNano()
			}
			opts := decode.Options{
				ContextLimit: int(maxContext),
				Sampling: logits.Config{
					Temperature: temp,
					TopK:        int(topK),
					Stochastic:  stochastic,
				},
			}
			if stochastic {
				opts.Rand = rand.New(rand.NewSource(seed))
			}

			var printer *tokenPrinter
			if !jsonOut {
				if echoPrompt && mode == StreamInstant {
					_, _ = fmt.Fprint(os.Stdout, prompt)
				}
				printer = newTokenPrinter(os.Stdout, mode, tok)
				opts.Observer = printer
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			log := logger.FromContext(ctx)
			log.Debug("generate", "tokenizer", tokenizerName, "prompt_tokens", len(ids), "steps", steps, "context_limit", maxContext)

			seq, stats, err := decode.Run(ctx, p, ids, int(steps), opts)
			if printer != nil {
				if echoPrompt && mode == StreamQuiet {
					_, _ = fmt.Fprint(os.Stdout, prompt)
				}
				printer.Flush()
				fmt.Println()
			}
			if err != nil {
				if errors.Is(err, decode.ErrCancelled) {
					return cli.Exit("error: generation interrupted", 130)
				}
				return cli.Exit(fmt.Sprintf("error: generate: %v", err), 1)
			}
			log.Info("generation complete", "tokens", stats.TokensGenerated, "duration", stats.Duration, "tps", stats.TPS)

			if !jsonOut {
				return nil
			}
			text, _ := tok.Decode(seq)
			completion, _ := tok.Decode(seq[len(ids):])
			out, err := json.MarshalIndent(generateResult{
				Prompt:     prompt,
				Tokens:     seq,
				Text:       text,
				Completion: completion,
				Seed:       seed,
				Sampling: samplingResult{
					Steps:        int(steps),
					ContextLimit: int(maxContext),
					Temperature:  temp,
					TopK:         int(topK),
					Stochastic:   stochastic,
				},
				Stats: statsResult{
					TokensGenerated: stats.TokensGenerated,
					DurationMS:      float64(stats.Duration.Microseconds()) / 1000,
					TokensPerSecond: stats.TPS,
				},
			}, "", "  ")
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode result: %v", err), 1)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
