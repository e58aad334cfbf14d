package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"resilientrpc/internal/dispatch"
	"resilientrpc/internal/jsonrpc"
	"resilientrpc/internal/observe"
)

// DefaultMaxAttempts is the retry budget used when none is configured
const DefaultMaxAttempts = 3

// State is a position in the retry state machine
type State int

const (
	StateAttempting State = iota
	StateSucceeded
	StateExhausted
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Selector picks an endpoint for the next attempt
type Selector interface {
	Select() (string, error)
}

// Dispatcher sends single and batch payloads to one endpoint
type Dispatcher interface {
	Dispatch(ctx context.Context, endpoint string, req *jsonrpc.Request, timeout time.Duration) (*jsonrpc.Response, error)
	DispatchBatch(ctx context.Context, endpoint string, requests []*jsonrpc.Request, timeout time.Duration) ([]*jsonrpc.Response, error)
}

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the per-call retry budget. Zero fails every call without contacting an endpoint.
	MaxAttempts int
	// Timeout bounds each attempt. Non-positive disables the attempt deadline.
	Timeout time.Duration
	// NewBackOff returns the delay policy for one call. Nil retries immediately.
	NewBackOff func() backoff.BackOff
}

// DefaultConfig returns a budget of 3 with a 60s attempt timeout and no delay
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Timeout:     dispatch.DefaultTimeout,
	}
}

// Executor executes requests with retry logic
type Executor struct {
	selector   Selector
	dispatcher Dispatcher
	config     Config
	observer   observe.Observer
}

// NewExecutor creates a new Executor. A nil observer discards events.
func NewExecutor(selector Selector, dispatcher Dispatcher, cfg Config, observer observe.Observer) *Executor {
	if observer == nil {
		observer = observe.Nop{}
	}
	return &Executor{
		selector:   selector,
		dispatcher: dispatcher,
		config:     cfg,
		observer:   observer,
	}
}

// WithMaxAttempts returns an Executor sharing e's collaborators with a different budget
func (e *Executor) WithMaxAttempts(n int) *Executor {
	clone := *e
	clone.config.MaxAttempts = n
	return &clone
}

// Config returns the executor configuration
func (e *Executor) Config() Config {
	return e.config
}

// Execute sends req, re-selecting an endpoint on every attempt, until a
// response decodes or the budget runs out. A JSON-RPC error payload is a
// successful exchange and is returned as is.
func (e *Executor) Execute(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var resp *jsonrpc.Response
	err := e.run(ctx, callInfo{method: req.Method}, func(ctx context.Context, endpoint string) error {
		var err error
		resp, err = e.dispatcher.Dispatch(ctx, endpoint, req, e.config.Timeout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ExecuteBatch sends requests as one batch per attempt. The result is sorted
// ascending by id and answers every request exactly once.
func (e *Executor) ExecuteBatch(ctx context.Context, requests []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
	var responses []*jsonrpc.Response
	err := e.run(ctx, callInfo{batchSize: len(requests)}, func(ctx context.Context, endpoint string) error {
		var err error
		responses, err = e.dispatcher.DispatchBatch(ctx, endpoint, requests, e.config.Timeout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// Reject ends a call that failed before its first attempt, such as params
// that cannot be encoded. The failure is reported like an exhausted call with
// zero attempts, and a zero budget still reports ErrZeroBudget.
func (e *Executor) Reject(method string, batchSize int, err error) error {
	callErr := &Error{Kind: dispatch.KindOf(err), Last: err, all: err}
	if e.config.MaxAttempts <= 0 {
		callErr = &Error{Last: ErrZeroBudget}
	}

	e.observer.OnResult(observe.ResultEvent{
		CallID:    uuid.NewString(),
		Method:    method,
		BatchSize: batchSize,
		Kind:      callErr.Kind,
		Err:       callErr,
	})
	return callErr
}

type callInfo struct {
	method    string
	batchSize int
}

// run drives the Attempting -> Succeeded | Exhausted state machine
func (e *Executor) run(ctx context.Context, info callInfo, attempt func(ctx context.Context, endpoint string) error) error {
	callID := uuid.NewString()
	start := time.Now()
	budget := e.config.MaxAttempts

	var bo backoff.BackOff = &backoff.ZeroBackOff{}
	if e.config.NewBackOff != nil {
		bo = e.config.NewBackOff()
	}
	bo.Reset()

	var (
		attempts int
		lastKind dispatch.Kind
		lastErr  error
		allErrs  error
		cause    error
	)

	state := StateAttempting
	if budget <= 0 {
		state = StateExhausted
		lastErr = ErrZeroBudget
	}

	for remaining := budget; state == StateAttempting; {
		endpoint, err := e.selector.Select()
		if err != nil {
			// no alternate endpoint exists, so this is not retryable
			lastKind = dispatch.KindPoolExhausted
			lastErr = &dispatch.Error{Kind: dispatch.KindPoolExhausted, Err: err}
			allErrs = multierr.Append(allErrs, lastErr)
			state = StateExhausted
			break
		}

		attempts++
		attemptStart := time.Now()
		err = attempt(ctx, endpoint)

		event := observe.AttemptEvent{
			CallID:    callID,
			Method:    info.method,
			BatchSize: info.batchSize,
			Attempt:   attempts,
			Budget:    budget,
			Endpoint:  endpoint,
			Duration:  time.Since(attemptStart),
		}
		if err == nil {
			e.observer.OnAttempt(event)
			state = StateSucceeded
			break
		}

		lastKind = dispatch.KindOf(err)
		lastErr = err
		allErrs = multierr.Append(allErrs, err)
		event.Kind = lastKind
		event.Err = err
		e.observer.OnAttempt(event)

		remaining--
		if remaining == 0 {
			state = StateExhausted
			break
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			cause = ctxErr
			state = StateExhausted
			break
		}

		if ctxErr := wait(ctx, bo.NextBackOff()); ctxErr != nil {
			cause = ctxErr
			state = StateExhausted
		}
	}

	result := observe.ResultEvent{
		CallID:    callID,
		Method:    info.method,
		BatchSize: info.batchSize,
		Attempts:  attempts,
		Duration:  time.Since(start),
	}

	if state == StateSucceeded {
		e.observer.OnResult(result)
		return nil
	}

	callErr := &Error{
		Kind:     lastKind,
		Attempts: attempts,
		Last:     lastErr,
		all:      allErrs,
		cause:    cause,
	}
	result.Kind = lastKind
	result.Err = callErr
	e.observer.OnResult(result)
	return callErr
}

// wait sleeps for d unless ctx ends first. backoff.Stop ends the loop
// as if the caller had given up.
func wait(ctx context.Context, d time.Duration) error {
	if d == backoff.Stop {
		return errors.New("backoff policy stopped retries")
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
