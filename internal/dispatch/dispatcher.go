package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"resilientrpc/internal/jsonrpc"
)

// DefaultTimeout bounds one attempt: send, wait and decode
const DefaultTimeout = 60 * time.Second

// maxErrorBody limits how much of a non-2xx body ends up in an error message
const maxErrorBody = 512

// Dispatcher sends JSON-RPC payloads over HTTP POST
type Dispatcher struct {
	httpClient *http.Client
}

// NewDispatcher creates a Dispatcher. A nil client uses http.DefaultClient.
// The per-attempt timeout is applied through the request context, so the
// client's own Timeout should be left unset.
func NewDispatcher(httpClient *http.Client) *Dispatcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Dispatcher{httpClient: httpClient}
}

// Dispatch sends one request to endpoint and decodes one response
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint string, req *jsonrpc.Request, timeout time.Duration) (*jsonrpc.Response, error) {
	payload, err := req.Bytes()
	if err != nil {
		return nil, newError(KindBuild, endpoint, fmt.Errorf("failed to marshal request: %w", err))
	}

	attemptCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	body, err := d.post(attemptCtx, endpoint, payload)
	if err != nil {
		return nil, err
	}

	resp, err := jsonrpc.ParseResponse(body)
	if err != nil {
		return nil, newError(KindDecode, endpoint, fmt.Errorf("failed to parse response: %w", err))
	}
	if resp.ID != req.ID {
		return nil, newError(KindDecode, endpoint, fmt.Errorf("response id %d does not match request id %d", resp.ID, req.ID))
	}
	return resp, nil
}

// DispatchBatch sends requests as one JSON array and returns the responses
// sorted ascending by id. The response set must answer every request exactly once.
func (d *Dispatcher) DispatchBatch(ctx context.Context, endpoint string, requests []*jsonrpc.Request, timeout time.Duration) ([]*jsonrpc.Response, error) {
	payload, err := jsonrpc.MarshalBatch(requests)
	if err != nil {
		return nil, newError(KindBuild, endpoint, fmt.Errorf("failed to marshal batch request: %w", err))
	}

	attemptCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	body, err := d.post(attemptCtx, endpoint, payload)
	if err != nil {
		return nil, err
	}

	responses, err := jsonrpc.ParseBatchResponse(body)
	if err != nil {
		return nil, newError(KindDecode, endpoint, fmt.Errorf("failed to parse batch response: %w", err))
	}
	if err := jsonrpc.MatchBatch(requests, responses); err != nil {
		return nil, newError(KindDecode, endpoint, err)
	}

	jsonrpc.SortByID(responses)
	return responses, nil
}

// post performs the HTTP exchange and returns the full response body.
// Any failure is already classified.
func (d *Dispatcher) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, newError(KindBuild, endpoint, fmt.Errorf("failed to create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, KindTransport, endpoint, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, classify(ctx, KindTransport, endpoint, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, KindTransport, endpoint, fmt.Errorf("failed to read response: %w", err))
	}
	return body, nil
}

// withTimeout derives the attempt context. A non-positive timeout means no
// attempt deadline beyond the caller's own.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
