package logits

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned (wrapped) by Config.Validate.
var ErrInvalidConfig = errors.New("invalid sampling config")

// Config configures how a score vector is turned into a token.
type Config struct {
	// Temperature divides every score before normalisation. Must be > 0.
	Temperature float64
	// TopK keeps only the scores at or above the k-th largest. 0 disables.
	TopK int
	// Stochastic draws from the distribution; otherwise the argmax is taken.
	Stochastic bool
}

// DefaultConfig returns greedy decoding at temperature 1 with no truncation.
func DefaultConfig() Config {
	return Config{Temperature: 1}
}

type configError struct {
	field string
	msg   string
}

func (e configError) Error() string {
	return e.field + ": " + e.msg
}

func (e configError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks the configuration against a vocabulary size. A vocab of 0
// means the size is not known yet and only the lower bound of TopK is checked.
func (c Config) Validate(vocab int) error {
	if math.IsNaN(c.Temperature) || math.IsInf(c.Temperature, 0) || c.Temperature <= 0 {
		return configError{field: "temperature", msg: fmt.Sprintf("must be a finite value > 0, got %v", c.Temperature)}
	}
	if c.TopK < 0 {
		return configError{field: "top_k", msg: fmt.Sprintf("must be >= 1 when set, got %d", c.TopK)}
	}
	if vocab > 0 && c.TopK > vocab {
		return configError{field: "top_k", msg: fmt.Sprintf("must be <= vocabulary size %d, got %d", vocab, c.TopK)}
	}
	return nil
}
