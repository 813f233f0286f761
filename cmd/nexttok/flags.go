package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nexttok/internal/predictor"
	"github.com/samcharles93/nexttok/internal/tokenizer"
	"github.com/samcharles93/nexttok/internal/toy"
)

var (
	tokenizerName    string
	predictorURL     string
	predictorTimeout time.Duration
	vocabSize        int64
	hiddenSize       int64
	modelSeed        int64
	maxContext       int64
	logLevel         string
	logFormat        string
	debug            bool
)

func commonPredictorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "predictor-url",
			Aliases:     []string{"url"},
			Usage:       "base URL of a remote predictor (POST {url}/v1/predict); empty uses the built-in model",
			Destination: &predictorURL,
		},
		&cli.DurationFlag{
			Name:        "predictor-timeout",
			Usage:       "per-query timeout for the remote predictor",
			Value:       30 * time.Second,
			Destination: &predictorTimeout,
		},
		&cli.Int64Flag{
			Name:        "vocab",
			Usage:       "built-in model vocabulary size (0 = tokenizer vocabulary)",
			Destination: &vocabSize,
		},
		&cli.Int64Flag{
			Name:        "hidden",
			Usage:       "built-in model hidden size",
			Value:       64,
			Destination: &hiddenSize,
		},
		&cli.Int64Flag{
			Name:        "model-seed",
			Usage:       "seed for the built-in model weights",
			Value:       1,
			Destination: &modelSeed,
		},
		&cli.Int64Flag{
			Name:        "max-context",
			Aliases:     []string{"max-ctx", "ctx", "c"},
			Usage:       "context window: trailing tokens shown to the predictor",
			Value:       256,
			Destination: &maxContext,
		},
	}
}

func commonTokenizerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tokenizer",
			Aliases:     []string{"tok"},
			Usage:       "tokenizer (bytes, cl100k_base, o200k_base, p50k_base, r50k_base)",
			Value:       "bytes",
			Destination: &tokenizerName,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text, auto)",
			Value:       "auto",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// buildPredictor returns the remote predictor when --predictor-url is set and
// the built-in model otherwise.
func buildPredictor(tok tokenizer.Tokenizer) (predictor.Predictor, error) {
	if predictorURL != "" {
		return predictor.NewHTTP(predictorURL, predictorTimeout), nil
	}
	vocab := int(vocabSize)
	if vocab == 0 {
		vocab = tok.VocabSize()
	}
	if vocab < tok.VocabSize() {
		return nil, fmt.Errorf("vocab %d is smaller than the %d-entry tokenizer vocabulary", vocab, tok.VocabSize())
	}
	m, err := toy.New(vocab, int(hiddenSize), modelSeed)
	if err != nil {
		return nil, err
	}
	return m, nil
}
