package eth

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Block is the subset of a block object the client reads.
// Transactions stay raw: hashes or full objects depending on the request.
type Block struct {
	Number        hexutil.Uint64  `json:"number"`
	Hash          common.Hash     `json:"hash"`
	ParentHash    common.Hash     `json:"parentHash"`
	Timestamp     hexutil.Uint64  `json:"timestamp"`
	Miner         common.Address  `json:"miner"`
	GasLimit      hexutil.Uint64  `json:"gasLimit"`
	GasUsed       hexutil.Uint64  `json:"gasUsed"`
	BaseFeePerGas *hexutil.Big    `json:"baseFeePerGas,omitempty"`
	Transactions  json.RawMessage `json:"transactions,omitempty"`
}

// Log represents an Ethereum log entry
type Log struct {
	Address          common.Address `json:"address"`
	Topics           []common.Hash  `json:"topics"`
	Data             hexutil.Bytes  `json:"data"`
	BlockNumber      hexutil.Uint64 `json:"blockNumber"`
	TransactionHash  common.Hash    `json:"transactionHash"`
	TransactionIndex hexutil.Uint   `json:"transactionIndex"`
	BlockHash        common.Hash    `json:"blockHash"`
	LogIndex         hexutil.Uint   `json:"logIndex"`
	Removed          bool           `json:"removed"`
}

// Receipt is the subset of a transaction receipt the client reads
type Receipt struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	ContractAddress   *common.Address `json:"contractAddress"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	Status            hexutil.Uint64  `json:"status"`
	Logs              []Log           `json:"logs"`
}

// FilterQuery selects logs for eth_getLogs
type FilterQuery struct {
	FromBlock BlockParam
	ToBlock   BlockParam
	Addresses []common.Address
	// Topics[i] lists alternatives for position i; an empty entry matches anything
	Topics [][]common.Hash
}

// MarshalJSON encodes the filter object in wire form
func (q FilterQuery) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{})
	if q.FromBlock != "" {
		obj["fromBlock"] = q.FromBlock
	}
	if q.ToBlock != "" {
		obj["toBlock"] = q.ToBlock
	}
	switch len(q.Addresses) {
	case 0:
	case 1:
		obj["address"] = q.Addresses[0]
	default:
		obj["address"] = q.Addresses
	}
	if len(q.Topics) > 0 {
		topics := make([]interface{}, len(q.Topics))
		for i, alternatives := range q.Topics {
			switch len(alternatives) {
			case 0:
				topics[i] = nil
			case 1:
				topics[i] = alternatives[0]
			default:
				topics[i] = alternatives
			}
		}
		obj["topics"] = topics
	}
	return json.Marshal(obj)
}
