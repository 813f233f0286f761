package tokenizer

import "fmt"

// Bytes is a lossless byte-level tokenizer: every byte of the UTF-8 input is
// one token, so the vocabulary has 256 entries.
type Bytes struct{}

func (Bytes) Encode(text string) ([]int, error) {
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i])
	}
	return ids, nil
}

func (Bytes) Decode(ids []int) (string, error) {
	buf := make([]byte, len(ids))
	for i, id := range ids {
		if id < 0 || id > 255 {
			return "", fmt.Errorf("%w: %d", ErrUnknownToken, id)
		}
		buf[i] = byte(id)
	}
	return string(buf), nil
}

func (Bytes) VocabSize() int { return 256 }
