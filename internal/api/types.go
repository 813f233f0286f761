package api

// GenerateRequest is the body of POST /v1/generate. Exactly one of Prompt
// and Tokens must be set. Unset fields take the server defaults.
type GenerateRequest struct {
	Prompt       *string  `json:"prompt,omitempty"`
	Tokens       []int    `json:"tokens,omitempty"`
	Steps        *int     `json:"steps,omitempty"`
	ContextLimit *int     `json:"context_limit,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	TopK         *int     `json:"top_k,omitempty"`
	Stochastic   *bool    `json:"stochastic,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
	Stream       *bool    `json:"stream,omitempty"`
}

type GenerateResponse struct {
	ID         string           `json:"id"`
	Object     string           `json:"object"`
	CreatedAt  int64            `json:"created_at"`
	Status     string           `json:"status"`
	Tokens     []int            `json:"tokens,omitempty"`
	Text       string           `json:"text,omitempty"`
	Completion string           `json:"completion,omitempty"`
	Seed       int64            `json:"seed"`
	Sampling   SamplingParams   `json:"sampling"`
	Usage      *GenerationUsage `json:"usage,omitempty"`
	Stats      *GenerationStats `json:"stats,omitempty"`
	Error      *ResponseError   `json:"error,omitempty"`
}

type SamplingParams struct {
	Steps        int     `json:"steps"`
	ContextLimit int     `json:"context_limit"`
	Temperature  float64 `json:"temperature"`
	TopK         int     `json:"top_k,omitempty"`
	Stochastic   bool    `json:"stochastic"`
}

type GenerationUsage struct {
	PromptTokens    int `json:"prompt_tokens"`
	GeneratedTokens int `json:"generated_tokens"`
	TotalTokens     int `json:"total_tokens"`
}

type GenerationStats struct {
	DurationMS      float64 `json:"duration_ms"`
	TokensPerSecond float64 `json:"tokens_per_second"`
}

type TokenizeRequest struct {
	Text string `json:"text"`
}

type TokenizeResponse struct {
	Object string `json:"object"`
	Tokens []int  `json:"tokens"`
	Count  int    `json:"count"`
}

type DetokenizeRequest struct {
	Tokens []int `json:"tokens"`
}

type DetokenizeResponse struct {
	Object string `json:"object"`
	Text   string `json:"text"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type streamEvent struct {
	Type           string            `json:"type"`
	SequenceNumber int               `json:"sequence_number"`
	Step           *int              `json:"step,omitempty"`
	Token          *int              `json:"token,omitempty"`
	Delta          string            `json:"delta,omitempty"`
	Generation     *GenerateResponse `json:"generation,omitempty"`
}
