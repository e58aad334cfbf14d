package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest_Bytes(t *testing.T) {
	req, err := NewRequest("eth_getBalance", []string{"0xabc", "latest"}, 7)
	require.NoError(t, err)

	data, err := req.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"eth_getBalance","params":["0xabc","latest"],"id":7}`, string(data))
}

func TestNewRequest_NilParamsOmitted(t *testing.T) {
	req, err := NewRequest("eth_blockNumber", nil, 1)
	require.NoError(t, err)

	data, err := req.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"eth_blockNumber","id":1}`, string(data))
}

func TestNewRequest_UnmarshalableParams(t *testing.T) {
	_, err := NewRequest("x", make(chan int), 1)
	assert.Error(t, err)
}

func TestRequest_Validate(t *testing.T) {
	assert.Error(t, (&Request{JSONRPC: "1.0", Method: "x"}).Validate())
	assert.Error(t, (&Request{JSONRPC: Version}).Validate())
	assert.NoError(t, (&Request{JSONRPC: Version, Method: "x"}).Validate())
}

func TestValidateBatch(t *testing.T) {
	a, _ := NewRequest("a", nil, 0)
	b, _ := NewRequest("b", nil, 1)
	dup, _ := NewRequest("c", nil, 1)

	assert.ErrorIs(t, ValidateBatch(nil), ErrEmptyBatch)
	assert.NoError(t, ValidateBatch([]*Request{a, b}))
	assert.Error(t, ValidateBatch([]*Request{a, b, dup}))
	assert.Error(t, ValidateBatch([]*Request{a, nil}))
}

func TestParseResponse_StringError(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"jsonrpc":"2.0","id":3,"error":"boom"}`))
	require.NoError(t, err)
	require.True(t, resp.HasError())
	assert.Equal(t, "boom", resp.Error.Message)
	assert.Equal(t, 0, resp.Error.Code)
	assert.Equal(t, "boom", resp.Error.Error())
}

func TestParseResponse_ObjectError(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"jsonrpc":"2.0","id":3,"error":{"code":-32601,"message":"Method not found"}}`))
	require.NoError(t, err)
	require.True(t, resp.HasError())
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "Method not found", resp.Error.Message)
}

func TestParseResponse_Result(t *testing.T) {
	resp, err := ParseResponse([]byte(` {"jsonrpc":"2.0","id":7,"result":"0x10"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	assert.False(t, resp.HasError())

	var out string
	require.NoError(t, resp.GetResultAs(&out))
	assert.Equal(t, "0x10", out)
}

func TestParseResponse_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"empty":     "",
		"array":     `[{"jsonrpc":"2.0","id":1}]`,
		"garbage":   `not json`,
		"stringID":  `{"jsonrpc":"2.0","id":"abc","result":1}`,
		"truncated": `{"jsonrpc":"2.0","id":1,"result":`,
		"nullID":    `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error"}}`,
		"noID":      `{"jsonrpc":"2.0","result":"0x1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestResultIsNull(t *testing.T) {
	assert.True(t, (*Response)(nil).ResultIsNull())
	assert.True(t, (&Response{}).ResultIsNull())
	assert.True(t, (&Response{Result: json.RawMessage("null")}).ResultIsNull())
	assert.False(t, (&Response{Result: json.RawMessage(`"0x1"`)}).ResultIsNull())
}

func TestParseBatchResponse_RejectsObject(t *testing.T) {
	_, err := ParseBatchResponse([]byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32600,"message":"Invalid Request"}}`))
	assert.Error(t, err)

	_, err = ParseBatchResponse([]byte(`[{"jsonrpc":"2.0","id":1}, null]`))
	assert.Error(t, err)
}

func TestParseBatchResponse_RejectsMissingID(t *testing.T) {
	for name, body := range map[string]string{
		"null":    `[{"jsonrpc":"2.0","id":1,"result":"0x1"},{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error"}}]`,
		"missing": `[{"jsonrpc":"2.0","result":"0x1"},{"jsonrpc":"2.0","id":1,"result":"0x2"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBatchResponse([]byte(body))
			assert.ErrorIs(t, err, ErrMissingID)
		})
	}
}

func TestSortByID(t *testing.T) {
	responses, err := ParseBatchResponse([]byte(`[{"id":2},{"id":0},{"id":1}]`))
	require.NoError(t, err)

	SortByID(responses)
	for i, resp := range responses {
		assert.Equal(t, int64(i), resp.ID)
	}
}

func TestMatchBatch(t *testing.T) {
	requests := make([]*Request, 3)
	for i := range requests {
		requests[i], _ = NewRequest("m", nil, int64(i))
	}
	resp := func(ids ...int64) []*Response {
		out := make([]*Response, len(ids))
		for i, id := range ids {
			out[i] = &Response{ID: id}
		}
		return out
	}

	assert.NoError(t, MatchBatch(requests, resp(2, 0, 1)))
	assert.Error(t, MatchBatch(requests, resp(0, 1)), "short")
	assert.Error(t, MatchBatch(requests, resp(0, 1, 2, 3)), "long")
	assert.Error(t, MatchBatch(requests, resp(0, 1, 1)), "duplicate")
	assert.Error(t, MatchBatch(requests, resp(0, 1, 9)), "unknown")
}
