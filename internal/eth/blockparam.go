package eth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockParam is a block selector as sent on the wire: a tag or a hex number
type BlockParam string

// Block tags
const (
	Latest    BlockParam = "latest"
	Pending   BlockParam = "pending"
	Earliest  BlockParam = "earliest"
	Safe      BlockParam = "safe"
	Finalized BlockParam = "finalized"
)

// blockTags contains block tags that name a moving block rather than a fixed height
var blockTags = map[BlockParam]bool{
	Latest:    true,
	Pending:   true,
	Earliest:  true,
	Safe:      true,
	Finalized: true,
}

// BlockNumber returns the selector for a fixed height
func BlockNumber(n uint64) BlockParam {
	return BlockParam(hexutil.EncodeUint64(n))
}

// IsTag returns true if p is a block tag
func (p BlockParam) IsTag() bool {
	return blockTags[p]
}

// Number returns the fixed height p selects, if it is not a tag
func (p BlockParam) Number() (uint64, bool) {
	if p.IsTag() {
		return 0, false
	}
	n, err := hexutil.DecodeUint64(string(p))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseBlockParam accepts a tag, a 0x-prefixed hex number or a decimal number
func ParseBlockParam(s string) (BlockParam, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Latest, nil
	}

	if p := BlockParam(strings.ToLower(s)); p.IsTag() {
		return p, nil
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return "", fmt.Errorf("invalid block number %q: %w", s, err)
		}
		return BlockNumber(n), nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid block number %q: %w", s, err)
	}
	return BlockNumber(n), nil
}
