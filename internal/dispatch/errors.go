package dispatch

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why a call attempt failed
type Kind int

const (
	KindUnknown Kind = iota
	// KindBuild - the request payload could not be serialized
	KindBuild
	// KindTransport - network-level failure or non-2xx HTTP status
	KindTransport
	// KindTimeout - the per-attempt deadline elapsed
	KindTimeout
	// KindDecode - the response body did not match the expected shape
	KindDecode
	// KindPoolExhausted - there was no endpoint to send to
	KindPoolExhausted
)

// String returns the kind name used in logs and metrics
func (k Kind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	case KindPoolExhausted:
		return "pool_exhausted"
	default:
		return "unknown"
	}
}

// Error is a failed dispatch attempt against one endpoint
type Error struct {
	Kind     Kind
	Endpoint string
	Err      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error from %s: %v", e.Kind, e.Endpoint, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from err, or KindUnknown
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

func newError(kind Kind, endpoint string, err error) *Error {
	return &Error{Kind: kind, Endpoint: endpoint, Err: err}
}

// classify turns a failure during the network or decode phase into a dispatch
// error, preferring KindTimeout whenever the attempt deadline has passed.
func classify(attemptCtx context.Context, fallback Kind, endpoint string, err error) *Error {
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, endpoint, err)
	}
	return newError(fallback, endpoint, err)
}
