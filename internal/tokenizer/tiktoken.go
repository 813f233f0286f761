package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// tiktokenVocab is the id space of each encoding, special tokens included,
// so a predictor sized to it can emit every decodable id.
var tiktokenVocab = map[string]int{
	"cl100k_base": 100277,
	"o200k_base":  200019,
	"p50k_base":   50281,
	"r50k_base":   50257,
}

// TikToken wraps pkoukk/tiktoken-go. Loading an encoding may fetch its BPE
// ranks over the network unless TIKTOKEN_CACHE_DIR is populated.
type TikToken struct {
	enc   *tiktoken.Tiktoken
	name  string
	vocab int
}

// NewTikToken loads the named encoding.
func NewTikToken(encoding string) (*TikToken, error) {
	vocab, ok := tiktokenVocab[encoding]
	if !ok {
		return nil, fmt.Errorf("unsupported tiktoken encoding %q", encoding)
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &TikToken{enc: enc, name: encoding, vocab: vocab}, nil
}

func (t *TikToken) Encode(text string) ([]int, error) {
	return t.enc.EncodeOrdinary(text), nil
}

func (t *TikToken) Decode(ids []int) (string, error) {
	for _, id := range ids {
		if id < 0 || id >= t.vocab {
			return "", fmt.Errorf("%w: %d", ErrUnknownToken, id)
		}
	}
	return t.enc.Decode(ids), nil
}

func (t *TikToken) VocabSize() int { return t.vocab }

// Name returns the encoding name.
func (t *TikToken) Name() string { return t.name }
