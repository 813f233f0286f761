package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nexttok/internal/api"
	"github.com/samcharles93/nexttok/internal/logger"
	"github.com/samcharles93/nexttok/internal/metrics"
	"github.com/samcharles93/nexttok/internal/predictor"
	"github.com/samcharles93/nexttok/internal/tokenizer"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		steps       int64
		maxSteps    int64
		temp        float64
		topK        int64
		stochastic  bool
	)
	defaults := api.DefaultDefaults()

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generation API",
		Flags: append(append(commonPredictorFlags(), commonTokenizerFlags()...),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "steps",
				Usage:       "default number of tokens per request",
				Value:       int64(defaults.Steps),
				Destination: &steps,
			},
			&cli.Int64Flag{
				Name:        "max-steps",
				Usage:       "largest number of tokens a request may ask for (0 = unlimited)",
				Value:       int64(defaults.MaxSteps),
				Destination: &maxSteps,
			},
			&cli.Float64Flag{
				Name:        "temperature",
				Aliases:     []string{"temp", "t"},
				Usage:       "default temperature",
				Value:       defaults.Temperature,
				Destination: &temp,
			},
			&cli.Int64Flag{
				Name:        "top-k",
				Aliases:     []string{"topk"},
				Usage:       "default top-k (0 = disabled)",
				Destination: &topK,
			},
			&cli.BoolFlag{
				Name:        "stochastic",
				Aliases:     []string{"sample"},
				Usage:       "sample by default instead of taking the argmax",
				Destination: &stochastic,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(c, LoadConfig(), &addr, generateSettings{
				steps:      &steps,
				temp:       &temp,
				topK:       &topK,
				stochastic: &stochastic,
			}, &maxSteps)

			tok, err := tokenizer.New(tokenizerName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: tokenizer: %v", err), 1)
			}
			p, err := buildPredictor(tok)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: predictor: %v", err), 1)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			server := api.NewServer(api.Config{
				Predictor: p,
				Tokenizer: tok,
				Defaults: api.Defaults{
					Steps:        int(steps),
					ContextLimit: int(maxContext),
					Temperature:  temp,
					TopK:         int(topK),
					Stochastic:   stochastic,
					MaxSteps:     int(maxSteps),
				},
				Metrics:  metrics.New(reg),
				Gatherer: reg,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "tokenizer", tokenizerName, "vocab", predictor.VocabSize(p))
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
