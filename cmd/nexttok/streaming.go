package main

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/samcharles93/nexttok/internal/decode"
	"github.com/samcharles93/nexttok/internal/tokenizer"
)

type StreamMode string

const (
	StreamInstant StreamMode = "instant"
	StreamQuiet   StreamMode = "quiet"
)

// tokenPrinter writes generated text as the decode loop appends tokens. Each
// token is decoded on its own; bytes of a character split across tokens are
// held back until the character is complete.
type tokenPrinter struct {
	mode    StreamMode
	tok     tokenizer.Tokenizer
	out     *bufio.Writer
	text    strings.Builder
	pending []byte
}

func newTokenPrinter(w io.Writer, mode StreamMode, tok tokenizer.Tokenizer) *tokenPrinter {
	return &tokenPrinter{
		mode: mode,
		tok:  tok,
		out:  bufio.NewWriterSize(w, 4096),
	}
}

// OnStep implements decode.Observer.
func (p *tokenPrinter) OnStep(ev decode.StepEvent) {
	piece, err := p.tok.Decode([]int{ev.Token})
	if err != nil {
		return
	}
	p.text.WriteString(piece)
	if p.mode != StreamInstant {
		return
	}

	p.pending = append(p.pending, piece...)
	if n := completePrefix(p.pending); n > 0 {
		_, _ = p.out.Write(p.pending[:n])
		_ = p.out.Flush()
		p.pending = append(p.pending[:0], p.pending[n:]...)
	}
}

// Flush writes anything still held back and returns the generated text.
func (p *tokenPrinter) Flush() string {
	switch p.mode {
	case StreamQuiet:
		_, _ = p.out.WriteString(p.text.String())
	default:
		_, _ = p.out.Write(p.pending)
		p.pending = p.pending[:0]
	}
	_ = p.out.Flush()
	return p.text.String()
}

// completePrefix returns the length of b without a trailing, still incomplete
// UTF-8 sequence.
func completePrefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}
