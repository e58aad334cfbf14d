package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resilientrpc/internal/jsonrpc"
)

func newNode(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		if raw[0] == '[' {
			var reqs []jsonrpc.Request
			require.NoError(t, json.Unmarshal(raw, &reqs))
			out := make([]jsonrpc.Response, 0, len(reqs))
			for i := len(reqs) - 1; i >= 0; i-- {
				out = append(out, jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: reqs[i].ID, Result: json.RawMessage(fmt.Sprintf("%q", reqs[i].Method))})
			}
			_ = json.NewEncoder(w).Encode(out)
			return
		}
		var req jsonrpc.Request
		require.NoError(t, json.Unmarshal(raw, &req))
		result := fmt.Sprintf("%q", req.Method)
		if req.Method == "eth_getBlockByNumber" {
			result = `{"number":"0x7","hash":"0x0000000000000000000000000000000000000000000000000000000000000001"}`
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":%s}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runApp(t, args...)
	return out, err
}

func runApp(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	cmd, a := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := execute(context.Background(), cmd, a)
	return out.String(), a, err
}

func TestCallCommand(t *testing.T) {
	srv := newNode(t)

	out, err := run(t, "call", "-e", srv.URL, "eth_chainId")
	require.NoError(t, err)

	var resp jsonrpc.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.JSONEq(t, `"eth_chainId"`, string(resp.Result))
}

func TestCallCommand_InvalidParams(t *testing.T) {
	srv := newNode(t)

	_, err := run(t, "call", "-e", srv.URL, "eth_getBalance", "[not json")
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	srv := newNode(t)
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"method":"a"},{"method":"b","params":[1]},{"method":"c"}]`), 0o600))

	out, err := run(t, "batch", "-e", srv.URL, path)
	require.NoError(t, err)

	var responses []jsonrpc.Response
	require.NoError(t, json.Unmarshal([]byte(out), &responses))
	require.Len(t, responses, 3)
	for i, want := range []string{`"a"`, `"b"`, `"c"`} {
		assert.JSONEq(t, want, string(responses[i].Result))
	}
}

func TestBlockCommand(t *testing.T) {
	srv := newNode(t)

	out, err := run(t, "block", "-e", srv.URL, "7")
	require.NoError(t, err)
	assert.Contains(t, out, `"number": "0x7"`)
}

func TestNoEndpoints(t *testing.T) {
	_, err := run(t, "call", "eth_chainId")
	assert.Error(t, err)
}

func TestConfigFileWithOverrides(t *testing.T) {
	srv := newNode(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoints:\n  - http://127.0.0.1:1\nretryMaxAttempts: 0\n"), 0o600))

	// the config alone has a zero budget
	_, err := run(t, "call", "-c", path, "eth_chainId")
	assert.Error(t, err)

	_, err = run(t, "call", "-c", path, "-e", srv.URL, "--retry", "1", "eth_chainId")
	assert.NoError(t, err)
}

func TestTimeoutFlag(t *testing.T) {
	srv := newNode(t)

	// the call itself may time out; only the resolved deadline matters here
	_, a, _ := runApp(t, "call", "-e", srv.URL, "--timeout", "500us", "eth_chainId")
	require.NotNil(t, a.cfg)
	assert.Equal(t, 1, a.cfg.RequestTimeout)

	_, a, _ = runApp(t, "call", "-e", srv.URL, "--timeout", "1500us", "eth_chainId")
	require.NotNil(t, a.cfg)
	assert.Equal(t, 2, a.cfg.RequestTimeout)

	_, a, err := runApp(t, "call", "-e", srv.URL, "--timeout", "2s", "eth_chainId")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, a.cfg.GetRequestTimeoutDuration())

	for _, bad := range []string{"0s", "-1s"} {
		_, err = run(t, "call", "-e", srv.URL, "--timeout", bad, "eth_chainId")
		assert.Error(t, err, bad)
	}
}

func TestMetricsServerStopsAfterFailedCall(t *testing.T) {
	_, a, err := runApp(t, "call", "-e", "http://127.0.0.1:1", "--retry", "1", "--metrics-addr", "127.0.0.1:0", "eth_chainId")
	require.Error(t, err)
	require.NotEmpty(t, a.metricsURL)

	_, err = http.Get(a.metricsURL)
	assert.Error(t, err, "metrics server still listening")
}

func TestConvertCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"convert", "eth2trx", "0xa614f803B6FD780986A42c78Ec9c7f77e6DeD13C"}, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t\n"},
		{[]string{"convert", "trx2eth", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"}, "0xa614f803B6FD780986A42c78Ec9c7f77e6DeD13C\n"},
		{[]string{"convert", "contract", "0x36928500bc1dcd7af6a2b4008875cc336b927d57", "0x6"}, "0xdAC17F958D2ee523a2206206994597C13D831ec7\n"},
		{[]string{"convert", "time", "0x6246df2f"}, "2022-04-01 11:17:03\n"},
		{[]string{"convert", "units", "0x12", "6"}, "0.000018\n"},
	}
	for _, tt := range tests {
		t.Run(tt.args[1], func(t *testing.T) {
			// no endpoint is configured, so this also checks client setup is skipped
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := run(t, "convert", "eth2trx", "not-an-address")
	assert.Error(t, err)
}
