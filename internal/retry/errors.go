package retry

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"resilientrpc/internal/dispatch"
)

// ErrExhausted matches every terminal call failure via errors.Is
var ErrExhausted = errors.New("retry budget exhausted")

// ErrZeroBudget is the cause of a call made with a retry budget of zero
var ErrZeroBudget = errors.New("retry budget is zero")

// Error is the terminal failure of a logical call
type Error struct {
	// Kind of the last observed failure
	Kind dispatch.Kind
	// Attempts actually dispatched to an endpoint
	Attempts int
	// Last is the last observed failure
	Last error

	all   error
	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("call failed after %d attempt(s): %v", e.Attempts, e.Last)
	if e.cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.cause)
	}
	return msg
}

// Is reports whether target is ErrExhausted
func (e *Error) Is(target error) bool {
	return target == ErrExhausted
}

// Unwrap exposes the last failure and, when the caller's context ended the
// loop early, the context error
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Last != nil {
		out = append(out, e.Last)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

// Errors returns every attempt failure in order
func (e *Error) Errors() []error {
	return multierr.Errors(e.all)
}
