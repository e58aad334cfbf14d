package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyBatch is returned when a batch contains no requests
var ErrEmptyBatch = errors.New("empty batch")

// Request represents a JSON-RPC request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      int64           `json:"id"`
}

// NewRequest creates a new JSON-RPC request
func NewRequest(method string, params interface{}, id int64) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		Method:  method,
		ID:      id,
	}

	if params != nil {
		paramsBytes, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = paramsBytes
	}

	return req, nil
}

// Validate checks if the request is valid
func (r *Request) Validate() error {
	if r.JSONRPC != Version {
		return fmt.Errorf("invalid jsonrpc version: %q", r.JSONRPC)
	}
	if r.Method == "" {
		return errors.New("method is required")
	}
	return nil
}

// Bytes returns the request as JSON bytes
func (r *Request) Bytes() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// ValidateBatch checks every request and rejects duplicate ids,
// since responses are matched back to requests by id.
func ValidateBatch(requests []*Request) error {
	if len(requests) == 0 {
		return ErrEmptyBatch
	}

	seen := make(map[int64]bool, len(requests))
	for i, req := range requests {
		if req == nil {
			return fmt.Errorf("request[%d] is nil", i)
		}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("request[%d]: %w", i, err)
		}
		if seen[req.ID] {
			return fmt.Errorf("request[%d]: duplicate id %d", i, req.ID)
		}
		seen[req.ID] = true
	}
	return nil
}

// MarshalBatch validates and marshals requests as a JSON array
func MarshalBatch(requests []*Request) ([]byte, error) {
	if err := ValidateBatch(requests); err != nil {
		return nil, err
	}
	return json.Marshal(requests)
}
