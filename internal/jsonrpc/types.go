package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC version
const Version = "2.0"

// Standard JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Server error codes range: -32000 to -32099
	CodeServerError = -32000
)

// Error represents a JSON-RPC error payload.
// Some nodes answer with a bare string instead of the standard object;
// both forms decode into Error.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewError creates a new JSON-RPC error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Error) UnmarshalJSON(data []byte) error {
	data = trimWhitespace(data)
	if len(data) > 0 && data[0] == '"' {
		var msg string
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		*e = Error{Message: msg}
		return nil
	}

	type errorAlias Error
	var alias errorAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*e = Error(alias)
	return nil
}

// isNull reports whether raw is absent or the JSON literal null
func isNull(raw json.RawMessage) bool {
	raw = trimWhitespace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// trimWhitespace removes leading whitespace from byte slice
func trimWhitespace(data []byte) []byte {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return data[i:]
		}
	}
	return data[len(data):]
}
