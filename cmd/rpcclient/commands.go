package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"resilientrpc/internal/client"
	"resilientrpc/internal/eth"
)

func newCallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <method> [params-json]",
		Short: "Send a single JSON-RPC call",
		Example: `  rpcclient call -e http://localhost:8545 eth_blockNumber
  rpcclient call -e http://localhost:8545 eth_getBalance '["0x00000000000000000000000000000000000000aa","latest"]'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params interface{}
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("params must be valid JSON")
				}
				params = json.RawMessage(args[1])
			}

			resp, err := a.client.Call(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
}

// batchEntry is one element of a batch file
type batchEntry struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

func newBatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file|->",
		Short: "Send a JSON array of {method, params} as one batch",
		Long:  "Send a JSON array of {method, params} objects as one batch. Responses are printed in file order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			var entries []batchEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("failed to parse batch file: %w", err)
			}

			calls := make([]client.Call, len(entries))
			for i, e := range entries {
				calls[i] = client.Call{Method: e.Method}
				if len(e.Params) > 0 {
					calls[i].Params = e.Params
				}
			}

			responses, err := a.client.CallBatch(cmd.Context(), calls)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), responses)
		},
	}
}

func newBlockCmd(a *app) *cobra.Command {
	var fullTx bool

	cmd := &cobra.Command{
		Use:   "block [number|tag]",
		Short: "Fetch a block by number or tag (default latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			param, err := eth.ParseBlockParam(arg)
			if err != nil {
				return err
			}

			block, err := eth.NewAPI(a.client).GetBlockByNumber(cmd.Context(), param, fullTx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), block)
		},
	}
	cmd.Flags().BoolVar(&fullTx, "full", false, "include full transaction objects")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}
