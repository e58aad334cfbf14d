package eth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"resilientrpc/internal/client"
	"resilientrpc/internal/jsonrpc"
)

// ErrNotFound is returned when the node answers with a null result
var ErrNotFound = errors.New("not found")

// Caller is the part of client.Client the wrappers need
type Caller interface {
	Call(ctx context.Context, method string, params interface{}) (*jsonrpc.Response, error)
	CallBatch(ctx context.Context, calls []client.Call) ([]*jsonrpc.Response, error)
}

// API builds eth_* requests on top of a Caller
type API struct {
	caller Caller
}

// NewAPI creates an API over caller
func NewAPI(caller Caller) *API {
	return &API{caller: caller}
}

// call sends one request and decodes a non-null result into out
func (a *API) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	resp, err := a.caller.Call(ctx, method, params)
	if err != nil {
		return err
	}
	return decode(resp, method, out)
}

func decode(resp *jsonrpc.Response, method string, out interface{}) error {
	if resp.HasError() {
		return resp.Error
	}
	if resp.ResultIsNull() {
		return ErrNotFound
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// BlockNumber returns the height of the most recent block
func (a *API) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := a.call(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// ChainID returns the chain id used for replay-protected signing
func (a *API) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := a.call(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetBalance returns the wei balance of addr at block
func (a *API) GetBalance(ctx context.Context, addr common.Address, block BlockParam) (*big.Int, error) {
	var balance hexutil.Big
	if err := a.call(ctx, &balance, "eth_getBalance", addr, block); err != nil {
		return nil, err
	}
	return (*big.Int)(&balance), nil
}

// GetBlockByNumber returns the block at block. fullTx requests full
// transaction objects instead of hashes.
func (a *API) GetBlockByNumber(ctx context.Context, block BlockParam, fullTx bool) (*Block, error) {
	var b Block
	if err := a.call(ctx, &b, "eth_getBlockByNumber", block, fullTx); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetTransactionByHash returns the raw transaction object
func (a *API) GetTransactionByHash(ctx context.Context, hash common.Hash) (json.RawMessage, error) {
	var tx json.RawMessage
	if err := a.call(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetTransactionReceipt returns the receipt of a mined transaction
func (a *API) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var r Receipt
	if err := a.call(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetLogs returns the logs matching q
func (a *API) GetLogs(ctx context.Context, q FilterQuery) ([]Log, error) {
	var logs []Log
	if err := a.call(ctx, &logs, "eth_getLogs", q); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return logs, nil
}

// GetBlocksByNumber fetches several blocks in one batch. The result lines
// up with numbers; a missing block fails the whole call with ErrNotFound.
func (a *API) GetBlocksByNumber(ctx context.Context, numbers []uint64, fullTx bool) ([]*Block, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	calls := make([]client.Call, len(numbers))
	for i, n := range numbers {
		calls[i] = client.Call{
			Method: "eth_getBlockByNumber",
			Params: []interface{}{BlockNumber(n), fullTx},
		}
	}

	responses, err := a.caller.CallBatch(ctx, calls)
	if err != nil {
		return nil, err
	}

	blocks := make([]*Block, len(responses))
	for i, resp := range responses {
		var b Block
		if err := decode(resp, "eth_getBlockByNumber", &b); err != nil {
			return nil, fmt.Errorf("block %d: %w", numbers[i], err)
		}
		blocks[i] = &b
	}
	return blocks, nil
}
