// Package observe carries per-attempt and per-call events out of the retry
// loop, so dispatch logic stays free of logging and metrics code.
package observe

import (
	"time"

	"resilientrpc/internal/dispatch"
)

// AttemptEvent describes one dispatch attempt. Err is nil on success.
type AttemptEvent struct {
	CallID    string
	Method    string
	BatchSize int
	Attempt   int
	Budget    int
	Endpoint  string
	Kind      dispatch.Kind
	Err       error
	Duration  time.Duration
}

// ResultEvent describes how a logical call resolved. Err is nil on success.
type ResultEvent struct {
	CallID    string
	Method    string
	BatchSize int
	Attempts  int
	Kind      dispatch.Kind
	Err       error
	Duration  time.Duration
}

// Observer receives call events. Implementations must be safe for concurrent use.
type Observer interface {
	OnAttempt(AttemptEvent)
	OnResult(ResultEvent)
}

// Nop is an Observer that discards every event
type Nop struct{}

func (Nop) OnAttempt(AttemptEvent) {}
func (Nop) OnResult(ResultEvent)   {}

type multi []Observer

// Multi fans events out to every non-nil observer in order
func Multi(observers ...Observer) Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multi) OnAttempt(e AttemptEvent) {
	for _, o := range m {
		o.OnAttempt(e)
	}
}

func (m multi) OnResult(e ResultEvent) {
	for _, o := range m {
		o.OnResult(e)
	}
}
