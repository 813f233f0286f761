package api

import (
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
)

// SSEStreamWriter writes generation events as server-sent events.
type SSEStreamWriter struct {
	w       io.Writer
	header  func() http.Header
	flusher func()
	seq     int
	begun   bool
}

func NewSSEStreamWriter(c *echo.Context) (*SSEStreamWriter, error) {
	res := c.Response()
	flusher, ok := res.(interface{ Flush() })
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}

	return &SSEStreamWriter{
		w:       res,
		header:  res.Header,
		flusher: flusher.Flush,
		seq:     1,
	}, nil
}

// Begin switches the response to an event stream. Nothing touches the
// response before it, so a request rejected during validation still gets a
// plain JSON error.
func (s *SSEStreamWriter) Begin(resp GenerateResponse) error {
	h := s.header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.begun = true
	return s.send(streamEvent{Type: "generation.created", Generation: &resp})
}

// Started reports whether any event has been written, after which errors can
// no longer be sent as a JSON error body.
func (s *SSEStreamWriter) Started() bool {
	return s.begun
}

func (s *SSEStreamWriter) EmitToken(step, token int, delta string) error {
	return s.send(streamEvent{
		Type:  "generation.token",
		Step:  &step,
		Token: &token,
		Delta: delta,
	})
}

func (s *SSEStreamWriter) Complete(resp GenerateResponse) error {
	return s.send(streamEvent{Type: "generation.completed", Generation: &resp})
}

func (s *SSEStreamWriter) Failed(resp GenerateResponse, err error) error {
	if resp.Error == nil {
		_, errType := classify(err)
		resp.Error = &ResponseError{Message: err.Error(), Type: errType}
	}
	resp.Status = "failed"
	return s.send(streamEvent{Type: "generation.failed", Generation: &resp})
}

func (s *SSEStreamWriter) send(ev streamEvent) error {
	ev.SequenceNumber = s.seq
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher()
	}
	s.seq++
	return nil
}
