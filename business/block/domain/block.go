// Package domain contains the core domain types for the block context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// BlockState is the latest observed block. It is replaced wholesale on every
// successful poll.
type BlockState struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
	GasPrice   *big.Int // base fee, nil before London
	ObservedAt time.Time
}

// Unknown is the state before the first successful poll.
var Unknown = BlockState{}

// IsKnown reports whether a block has been observed.
func (b BlockState) IsKnown() bool {
	return b.Hash != (common.Hash{})
}

// FromHeader converts a header observed at the given time.
func FromHeader(header *types.Header, observedAt time.Time) BlockState {
	state := BlockState{
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  time.Unix(int64(header.Time), 0),
		ObservedAt: observedAt,
	}
	if header.Number != nil {
		state.Number = header.Number.Uint64()
	}
	if header.BaseFee != nil {
		state.GasPrice = new(big.Int).Set(header.BaseFee)
	}
	return state
}

// GasPriceGwei returns the base fee in gwei, zero when unknown.
func (b BlockState) GasPriceGwei() decimal.Decimal {
	if b.GasPrice == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(b.GasPrice, -9)
}

// ShortHash is the abbreviated hash used in logs and the dashboard.
func (b BlockState) ShortHash() string {
	if !b.IsKnown() {
		return "-"
	}
	h := b.Hash.Hex()
	return h[:10]
}
