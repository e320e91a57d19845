package pipeline

import (
	"errors"
	"fmt"
)

// Environment errors. Both are returned before any request is sent.
var (
	ErrNoTransport    = errors.New("pipeline: no transport configured")
	ErrInvalidRequest = errors.New("pipeline: invalid request")
)

// BaselineError reports that one of the two baseline requests failed. No
// oracle can be formed, so the run stops.
type BaselineError struct {
	Attempt int // 1 or 2
	Err     error
}

func (e *BaselineError) Error() string {
	return fmt.Sprintf("pipeline: baseline request %d: %v", e.Attempt, e.Err)
}

func (e *BaselineError) Unwrap() error {
	return e.Err
}

// TrialError is a transport failure that aborted the run because
// AbortOnTransportError was set.
type TrialError struct {
	Stage Stage
	Trial int
	Err   error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("pipeline: %s trial %d: %v", e.Stage, e.Trial, e.Err)
}

func (e *TrialError) Unwrap() error {
	return e.Err
}
