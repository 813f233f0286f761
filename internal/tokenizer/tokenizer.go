// Package tokenizer converts between text and token ids at the edges of a
// generation call. The decode loop itself only ever sees ids.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"
)

// Tokenizer defines the minimal interface used by the CLI and the API.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
	VocabSize() int
}

// ErrUnknownToken is returned when decoding an id outside the vocabulary.
var ErrUnknownToken = errors.New("unknown token id")

// New returns the tokenizer registered under name: "bytes" or one of the
// tiktoken encodings (cl100k_base, o200k_base, p50k_base, r50k_base).
func New(name string) (Tokenizer, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "bytes", "byte":
		return Bytes{}, nil
	default:
		if _, ok := tiktokenVocab[n]; ok {
			return NewTikToken(n)
		}
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}
