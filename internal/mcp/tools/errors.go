package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/usestring/reqmin/internal/capture"
	"github.com/usestring/reqmin/internal/pipeline"
	"github.com/usestring/reqmin/internal/views"
	"github.com/usestring/reqmin/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodePowHTTPError   = "POWHTTP_ERROR"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeTimeout        = "TIMEOUT"
	ErrCodeTransportError = "TRANSPORT_ERROR"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapPowHTTPError converts a capture.APIError or other import error to a
// coded error.
func WrapPowHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError

	var apiErr *capture.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 404 {
			coded = &CodedError{
				Code:    ErrCodeNotFound,
				Message: apiErr.Message,
				Cause:   err,
			}
		} else {
			coded = &CodedError{
				Code:    ErrCodePowHTTPError,
				Message: apiErr.Message,
				Cause:   err,
			}
		}
	} else if isTimeout(err) {
		coded = &CodedError{
			Code:    ErrCodeTimeout,
			Message: "request timed out",
			Cause:   err,
		}
	} else {
		coded = &CodedError{
			Code:    ErrCodePowHTTPError,
			Message: err.Error(),
			Cause:   err,
		}
	}

	slog.Warn("powhttp API error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// WrapRunError converts an error from a minimization run to a coded error.
// Cancellation is not an error for the caller and maps to nil.
func WrapRunError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	var transportErr *client.TransportError
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest), errors.Is(err, pipeline.ErrNoTransport):
		return &CodedError{Code: ErrCodeInvalidInput, Message: "cannot start minimization", Cause: err}
	case errors.Is(err, views.ErrNotFound):
		return &CodedError{Code: ErrCodeNotFound, Message: "view not found", Cause: err}
	case isTimeout(err):
		return &CodedError{Code: ErrCodeTimeout, Message: "run timed out", Cause: err}
	case errors.As(err, &transportErr):
		return &CodedError{Code: ErrCodeTransportError, Message: fmt.Sprintf("sending to %s failed", transportErr.Target), Cause: err}
	default:
		return &CodedError{Code: ErrCodeTransportError, Message: err.Error(), Cause: err}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var transportErr *client.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Timeout()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
