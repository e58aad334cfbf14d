package client

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"resilientrpc/internal/config"
	"resilientrpc/internal/dispatch"
	"resilientrpc/internal/endpoint"
	"resilientrpc/internal/jsonrpc"
	"resilientrpc/internal/observe"
	"resilientrpc/internal/retry"
)

// Call is one entry of a batch
type Call struct {
	Method string
	Params interface{}
}

// Client is a JSON-RPC client that spreads attempts over an endpoint pool.
// It is safe for concurrent use.
type Client struct {
	pool     *endpoint.Pool
	executor *retry.Executor
	nextID   *atomic.Int64
	logger   zerolog.Logger
}

type options struct {
	httpClient *http.Client
	source     endpoint.Source
	observers  []observe.Observer
	registerer prometheus.Registerer
}

// Option configures a Client
type Option func(*options)

// WithHTTPClient sets the HTTP client used for every attempt
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSource sets the randomness used for endpoint selection
func WithSource(s endpoint.Source) Option {
	return func(o *options) { o.source = s }
}

// WithObserver adds an observer next to the built-in logger
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithMetrics registers Prometheus collectors for call events with reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New creates a Client from cfg
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	observers := append([]observe.Observer{observe.NewLogger(logger)}, o.observers...)
	if o.registerer != nil {
		metrics, err := observe.NewMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		observers = append(observers, metrics)
	}

	pool := endpoint.NewPool(cfg.Endpoints, o.source)
	executor := retry.NewExecutor(
		pool,
		dispatch.NewDispatcher(o.httpClient),
		retry.Config{
			MaxAttempts: cfg.RetryMaxAttempts,
			Timeout:     cfg.GetRequestTimeoutDuration(),
			NewBackOff:  backOffPolicy(cfg),
		},
		observe.Multi(observers...),
	)

	logger.Debug().
		Int("endpoints", pool.Len()).
		Int("retryMaxAttempts", cfg.RetryMaxAttempts).
		Dur("requestTimeout", cfg.GetRequestTimeoutDuration()).
		Str("retryBackoff", cfg.RetryBackoff).
		Msg("client created")

	return &Client{
		pool:     pool,
		executor: executor,
		nextID:   new(atomic.Int64),
		logger:   logger,
	}, nil
}

// backOffPolicy maps the configured policy to a per-call backoff factory.
// "none" keeps immediate retries.
func backOffPolicy(cfg *config.Config) func() backoff.BackOff {
	switch cfg.RetryBackoff {
	case config.BackoffConstant:
		delay := cfg.GetRetryDelayDuration()
		return func() backoff.BackOff {
			return backoff.NewConstantBackOff(delay)
		}
	case config.BackoffExponential:
		initial := cfg.GetRetryDelayDuration()
		maxDelay := cfg.GetRetryMaxDelayDuration()
		return func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxInterval = maxDelay
			// the retry budget bounds the loop, not elapsed time
			b.MaxElapsedTime = 0
			return b
		}
	default:
		return nil
	}
}

// Endpoints returns the configured endpoints
func (c *Client) Endpoints() []string {
	return c.pool.GetAll()
}

// WithMaxAttempts returns a Client sharing c's pool and id sequence with a different retry budget
func (c *Client) WithMaxAttempts(n int) *Client {
	return &Client{
		pool:     c.pool,
		executor: c.executor.WithMaxAttempts(n),
		nextID:   c.nextID,
		logger:   c.logger,
	}
}

// Call sends a single request with a client-scoped id.
// A JSON-RPC error payload is returned inside the response, not as err.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (*jsonrpc.Response, error) {
	req, err := jsonrpc.NewRequest(method, params, c.nextID.Add(1))
	if err != nil {
		return nil, c.executor.Reject(method, 0, &dispatch.Error{Kind: dispatch.KindBuild, Err: err})
	}
	return c.executor.Execute(ctx, req)
}

// CallResult sends a single request and decodes its result into out.
// A JSON-RPC error payload is returned as a *jsonrpc.Error.
func (c *Client) CallResult(ctx context.Context, out interface{}, method string, params interface{}) error {
	resp, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if resp.HasError() {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	if err := resp.GetResultAs(out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// CallBatch sends calls as one batch. Ids are positional, so the returned
// responses line up with calls index for index.
func (c *Client) CallBatch(ctx context.Context, calls []Call) ([]*jsonrpc.Response, error) {
	requests := make([]*jsonrpc.Request, len(calls))
	for i, call := range calls {
		req, err := jsonrpc.NewRequest(call.Method, call.Params, int64(i))
		if err != nil {
			return nil, c.executor.Reject("", len(calls), &dispatch.Error{Kind: dispatch.KindBuild, Err: fmt.Errorf("call[%d]: %w", i, err)})
		}
		requests[i] = req
	}
	return c.executor.ExecuteBatch(ctx, requests)
}

// Send executes a prepared request as is
func (c *Client) Send(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	return c.executor.Execute(ctx, req)
}

// SendBatch executes prepared requests as one batch. Callers choose the ids;
// they must be unique, and the result is sorted ascending by id.
func (c *Client) SendBatch(ctx context.Context, requests []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
	return c.executor.ExecuteBatch(ctx, requests)
}
