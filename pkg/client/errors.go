package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/usestring/reqmin/pkg/rawhttp"
)

// TransportError reports a failed round trip to a target.
type TransportError struct {
	Target rawhttp.Target
	Op     string // "dial", "tls", "write", or "read"
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the round trip failed because a deadline passed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}
