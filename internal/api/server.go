package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samcharles93/nexttok/internal/metrics"
	"github.com/samcharles93/nexttok/internal/predictor"
	"github.com/samcharles93/nexttok/internal/tokenizer"
	"github.com/samcharles93/nexttok/internal/version"
)

// Config wires a Server.
type Config struct {
	Predictor predictor.Predictor
	Tokenizer tokenizer.Tokenizer
	Defaults  Defaults
	// Metrics and Gatherer are optional; /metrics is only served when
	// Gatherer is set.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

type Server struct {
	service   *GenerationService
	predictor predictor.Predictor
	tokenizer tokenizer.Tokenizer
	gatherer  prometheus.Gatherer
}

func NewServer(cfg Config) *Server {
	return &Server{
		service:   NewGenerationService(cfg.Predictor, cfg.Tokenizer, cfg.Defaults, cfg.Metrics),
		predictor: cfg.Predictor,
		tokenizer: cfg.Tokenizer,
		gatherer:  cfg.Gatherer,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/generate", s.handleGenerate)
	e.POST("/v1/predict", s.handlePredict)
	e.POST("/v1/tokenize", s.handleTokenize)
	e.POST("/v1/detokenize", s.handleDetokenize)
	e.GET("/healthz", s.handleHealth)

	if s.gatherer != nil {
		h := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
		e.GET("/metrics", func(c *echo.Context) error {
			h.ServeHTTP(c.Response(), c.Request())
			return nil
		})
	}
}

func (s *Server) handleGenerate(c *echo.Context) error {
	if s.predictor == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "predictor not configured", "", "")
	}
	req, err := decodeJSON[GenerateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "", err.Error())
	}

	var writer *SSEStreamWriter
	var stream StreamWriter
	if req.Stream != nil && *req.Stream {
		w, err := NewSSEStreamWriter(c)
		if err != nil {
			return writeBadRequest(c, "stream", err.Error())
		}
		writer = w
		stream = w
	}

	resp, err := s.service.Generate(c.Request().Context(), &req, stream)
	if err != nil {
		if writer != nil && writer.Started() {
			return nil
		}
		return writeServiceError(c, err)
	}
	if writer != nil {
		return nil
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePredict(c *echo.Context) error {
	if s.predictor == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "predictor not configured", "", "")
	}
	req, err := decodeJSON[predictor.PredictRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "", err.Error())
	}
	if len(req.Tokens) == 0 {
		return writeBadRequest(c, "tokens", "tokens is required")
	}
	vocab := predictor.VocabSize(s.predictor)
	if err := checkTokens(req.Tokens, vocab); err != nil {
		return writeBadRequest(c, "tokens", err.Error())
	}

	scores, err := s.predictor.Predict(c.Request().Context(), req.Tokens)
	if err == nil {
		err = predictor.Check(scores, vocab)
	}
	if err != nil {
		return writeError(c, http.StatusBadGateway, "predictor_error", err.Error(), "", "")
	}
	return c.JSON(http.StatusOK, predictor.PredictResponse{
		Logits:    scores,
		VocabSize: len(scores),
	})
}

func (s *Server) handleTokenize(c *echo.Context) error {
	if s.tokenizer == nil {
		return writeError(c, http.StatusNotImplemented, "server_error", "tokenizer not configured", "", "")
	}
	req, err := decodeJSON[TokenizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "", err.Error())
	}
	ids, err := s.tokenizer.Encode(req.Text)
	if err != nil {
		return writeBadRequest(c, "text", err.Error())
	}
	return c.JSON(http.StatusOK, TokenizeResponse{
		Object: "tokens",
		Tokens: ids,
		Count:  len(ids),
	})
}

func (s *Server) handleDetokenize(c *echo.Context) error {
	if s.tokenizer == nil {
		return writeError(c, http.StatusNotImplemented, "server_error", "tokenizer not configured", "", "")
	}
	req, err := decodeJSON[DetokenizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "", err.Error())
	}
	text, err := s.tokenizer.Decode(req.Tokens)
	if err != nil {
		if errors.Is(err, tokenizer.ErrUnknownToken) {
			return writeBadRequest(c, "tokens", err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	return c.JSON(http.StatusOK, DetokenizeResponse{
		Object: "text",
		Text:   text,
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    version.String(),
		"vocab_size": predictor.VocabSize(s.predictor),
	})
}
