package predictor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// PredictRequest is the body of POST /v1/predict.
type PredictRequest struct {
	Tokens []int `json:"tokens"`
}

// PredictResponse is the reply of POST /v1/predict.
type PredictResponse struct {
	Logits    Scores `json:"logits"`
	VocabSize int    `json:"vocab_size,omitempty"`
}

// HTTP queries a remote predictor served by `nexttok serve`.
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTP returns a client for the predictor at baseURL.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) Predict(ctx context.Context, tokens []int) ([]float32, error) {
	body, err := json.Marshal(PredictRequest{Tokens: tokens})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/v1/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("predict: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	return out.Logits, nil
}
