package decode

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid generation arguments. No predictor call
	// has been made when it is returned.
	ErrConfiguration = errors.New("configuration error")
	// ErrPredictorQuery marks a predictor failure or an invalid score vector.
	ErrPredictorQuery = errors.New("predictor query error")
	// ErrSampling marks a distribution with no candidates left to pick.
	ErrSampling = errors.New("sampling error")
	// ErrCancelled marks a generation stopped by its context between steps.
	ErrCancelled = errors.New("generation cancelled")
)

// stepError carries the failing step alongside the error class and cause.
// Step is -1 for failures detected before the loop starts.
type stepError struct {
	kind  error
	step  int
	msg   string
	cause error
}

func (e stepError) Error() string {
	s := e.kind.Error()
	if e.step >= 0 {
		s += fmt.Sprintf(" at step %d", e.step)
	}
	if e.msg != "" {
		s += ": " + e.msg
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e stepError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func configErr(msg string, cause error) error {
	return stepError{kind: ErrConfiguration, step: -1, msg: msg, cause: cause}
}

// Step returns the decode step at which err occurred, or -1.
func Step(err error) int {
	var se stepError
	if errors.As(err, &se) {
		return se.step
	}
	return -1
}
