package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nexttok/internal/logits"
	"github.com/samcharles93/nexttok/internal/predictor"
	"github.com/samcharles93/nexttok/internal/tokenizer"
	"github.com/samcharles93/nexttok/internal/window"
)

type candidate struct {
	Token int
	Score float32
	Prob  float64
}

// rankCandidates orders tokens by probability under temp, highest first, and
// keeps the first n. Ties keep the lower token id first.
func rankCandidates(scores []float32, temp float64, n int) ([]candidate, error) {
	probs, err := logits.Softmax(logits.Scale(scores, temp))
	if err != nil {
		return nil, err
	}
	out := make([]candidate, len(scores))
	for i, s := range scores {
		out[i] = candidate{Token: i, Score: s, Prob: probs[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Prob > out[b].Prob })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func predictCmd() *cli.Command {
	var (
		prompt string
		top    int64
		temp   float64
	)

	return &cli.Command{
		Name:      "predict",
		Usage:     "Show the most likely next tokens for a prompt",
		ArgsUsage: "[prompt]",
		Flags: append(append(commonPredictorFlags(), commonTokenizerFlags()...),
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "prompt text to tokenize",
				Destination: &prompt,
			},
			&cli.Int64Flag{
				Name:        "top",
				Usage:       "number of candidates to print",
				Value:       10,
				Destination: &top,
			},
			&cli.Float64Flag{
				Name:        "temperature",
				Aliases:     []string{"temp", "t"},
				Usage:       "temperature applied before the softmax",
				Value:       1.0,
				Destination: &temp,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, LoadConfig())
			if prompt == "" {
				prompt = c.Args().First()
			}
			if prompt == "" {
				return cli.Exit("error: prompt is required (--prompt or first argument)", 1)
			}
			if err := (logits.Config{Temperature: temp}).Validate(0); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
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
			if len(ids) == 0 {
				return cli.Exit("error: prompt encodes to zero tokens", 1)
			}

			scores, err := p.Predict(ctx, window.Crop(ids, int(maxContext)))
			if err == nil {
				err = predictor.Check(scores, predictor.VocabSize(p))
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: predict: %v", err), 1)
			}
			ranked, err := rankCandidates(scores, temp, int(top))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "RANK\tTOKEN\tSCORE\tPROB\tTEXT")
			for i, cand := range ranked {
				piece, err := tok.Decode([]int{cand.Token})
				if err != nil {
					piece = "?"
				}
				_, _ = fmt.Fprintf(tw, "%d\t%d\t%.4f\t%.4f\t%s\n", i+1, cand.Token, cand.Score, cand.Prob, strconv.Quote(piece))
			}
			return tw.Flush()
		},
	}
}
