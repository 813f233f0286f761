package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/nexttok/internal/decode"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	param string
	msg   string
}

func (e invalidRequestError) Error() string {
	if e.param == "" {
		return e.msg
	}
	return e.param + ": " + e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(param, msg string) error {
	return invalidRequestError{param: param, msg: msg}
}

// classify maps a service error to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, decode.ErrConfiguration):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, decode.ErrSampling):
		return http.StatusUnprocessableEntity, "sampling_error"
	case errors.Is(err, decode.ErrPredictorQuery):
		return http.StatusBadGateway, "predictor_error"
	case errors.Is(err, decode.ErrCancelled):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func paramOf(err error) string {
	var ir invalidRequestError
	if errors.As(err, &ir) {
		return ir.param
	}
	return ""
}
