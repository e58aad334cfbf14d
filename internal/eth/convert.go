package eth

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// TronAddressPrefix is the version byte of a Tron mainnet address
const TronAddressPrefix byte = 0x41

// TimestampLayout formats block timestamps as UTC
const TimestampLayout = "2006-01-02 15:04:05"

// ErrInvalidTronAddress is returned for a string that is not a base58check Tron address
var ErrInvalidTronAddress = errors.New("invalid tron address")

// ParseQuantity decodes a 0x-prefixed hex quantity. Unlike hexutil it
// accepts leading zeros, and a bare "0x" decodes to zero.
func ParseQuantity(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("invalid quantity %q: missing 0x prefix", s)
	}
	digits := s[2:]
	if digits == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid quantity %q", s)
	}
	return n, nil
}

// FormatQuantity encodes n as a lowercase 0x-prefixed hex quantity
func FormatQuantity(n *big.Int) string {
	return hexutil.EncodeBig(n)
}

// ParseTimestamp decodes a hex unix timestamp into UTC time
func ParseTimestamp(s string) (time.Time, error) {
	n, err := ParseQuantity(s)
	if err != nil {
		return time.Time{}, err
	}
	if !n.IsInt64() {
		return time.Time{}, fmt.Errorf("timestamp %q out of range", s)
	}
	return time.Unix(n.Int64(), 0).UTC(), nil
}

// FormatTimestamp renders a hex unix timestamp with TimestampLayout
func FormatTimestamp(s string) (string, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return t.Format(TimestampLayout), nil
}

// FormatUnits scales a hex token amount down by decimals, e.g. 6 for USDT
func FormatUnits(s string, decimals uint8) (string, error) {
	n, err := ParseQuantity(s)
	if err != nil {
		return "", err
	}
	return decimal.NewFromBigInt(n, -int32(decimals)).String(), nil
}

// ContractAddress returns the address a contract deployed by from at nonce receives
func ContractAddress(from common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(from, nonce)
}

// ToTronAddress converts an Ethereum address into its base58check Tron form
func ToTronAddress(addr common.Address) string {
	return base58.CheckEncode(addr.Bytes(), TronAddressPrefix)
}

// FromTronAddress converts a base58check Tron address into an Ethereum address
func FromTronAddress(s string) (common.Address, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w %q: %v", ErrInvalidTronAddress, s, err)
	}
	if version != TronAddressPrefix || len(payload) != common.AddressLength {
		return common.Address{}, fmt.Errorf("%w %q", ErrInvalidTronAddress, s)
	}
	return common.BytesToAddress(payload), nil
}

// FromTronAddresses converts every address, failing on the first invalid one
func FromTronAddresses(addrs []string) ([]common.Address, error) {
	out := make([]common.Address, len(addrs))
	for i, s := range addrs {
		addr, err := FromTronAddress(s)
		if err != nil {
			return nil, err
		}
		out[i] = addr
	}
	return out, nil
}
