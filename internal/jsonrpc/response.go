package jsonrpc

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Response represents a JSON-RPC response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// ErrMissingID is returned for a response whose id is absent or null
var ErrMissingID = errors.New("response id is missing or null")

// idEnvelope keeps the raw id so absence and null stay visible
type idEnvelope struct {
	ID json.RawMessage `json:"id"`
}

// HasError returns true if the response contains an error
func (r *Response) HasError() bool {
	return r.Error != nil
}

// ResultIsNull returns true if the response result is absent or JSON null
func (r *Response) ResultIsNull() bool {
	if r == nil {
		return true
	}
	return isNull(r.Result)
}

// GetResultAs unmarshals the result into the provided type
func (r *Response) GetResultAs(v interface{}) error {
	if r.ResultIsNull() {
		return nil
	}
	return json.Unmarshal(r.Result, v)
}

// ParseResponse parses a single JSON-RPC response from bytes.
// An array body is rejected.
func ParseResponse(data []byte) (*Response, error) {
	data = trimWhitespace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("expected JSON object, got %q", data[0])
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	var env idEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if isNull(env.ID) {
		return nil, ErrMissingID
	}
	return &resp, nil
}

// ParseBatchResponse parses a batch of JSON-RPC responses.
// Servers answer a malformed batch with a single error object, so an object
// body is rejected rather than treated as a one-element batch.
func ParseBatchResponse(data []byte) ([]*Response, error) {
	data = trimWhitespace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	if data[0] != '[' {
		return nil, fmt.Errorf("expected JSON array, got %q", data[0])
	}

	var responses []*Response
	if err := json.Unmarshal(data, &responses); err != nil {
		return nil, err
	}
	for i, resp := range responses {
		if resp == nil {
			return nil, fmt.Errorf("response[%d] is null", i)
		}
	}

	// a null id cannot be told apart from id 0 once decoded
	var envs []idEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, err
	}
	for i, env := range envs {
		if isNull(env.ID) {
			return nil, fmt.Errorf("response[%d]: %w", i, ErrMissingID)
		}
	}
	return responses, nil
}

// SortByID sorts responses ascending by id in place
func SortByID(responses []*Response) {
	slices.SortStableFunc(responses, func(a, b *Response) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// MatchBatch checks that responses answer exactly the given requests:
// same count, every id submitted, no id repeated.
func MatchBatch(requests []*Request, responses []*Response) error {
	if len(responses) != len(requests) {
		return fmt.Errorf("batch length mismatch: sent %d requests, got %d responses", len(requests), len(responses))
	}

	pending := make(map[int64]bool, len(requests))
	for _, req := range requests {
		pending[req.ID] = true
	}

	seen := make(map[int64]bool, len(responses))
	for _, resp := range responses {
		if seen[resp.ID] {
			return fmt.Errorf("duplicate response id %d", resp.ID)
		}
		if !pending[resp.ID] {
			return fmt.Errorf("unknown response id %d", resp.ID)
		}
		seen[resp.ID] = true
	}
	return nil
}
