// Package domain contains the core domain types for the transactions context.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Status is the tracked lifecycle of a submitted transaction.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Transaction is a submitted transaction awaiting or past confirmation.
type Transaction struct {
	Hash        common.Hash
	Address     common.Address // sender
	Status      Status
	BlockNumber uint64 // 0 until mined
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// IsPending reports whether the transaction still awaits a receipt.
func (t Transaction) IsPending() bool {
	return t.Status == StatusPending || t.Status == ""
}

// Resolve applies a mined receipt.
func (t Transaction) Resolve(receipt *types.Receipt, at time.Time) Transaction {
	if receipt.Status == types.ReceiptStatusSuccessful {
		t.Status = StatusAccepted
	} else {
		t.Status = StatusRejected
	}
	if receipt.BlockNumber != nil {
		t.BlockNumber = receipt.BlockNumber.Uint64()
	}
	t.UpdatedAt = at
	return t
}
