// Package domain contains the core domain types for the whitelist context.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FreeSlotsUnknown marks a free-slot count that has not been fetched yet.
const FreeSlotsUnknown int64 = -1

// Operation names a flow operation.
type Operation string

const (
	OpCheckWhitelisted Operation = "check_whitelisted"
	OpFreeSlots        Operation = "free_slots_count"
	OpRegister         Operation = "register"
)

// OpError records the latest failed operation.
type OpError struct {
	Op  Operation
	Err error
	At  time.Time
}

func (e *OpError) Error() string {
	return string(e.Op) + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// UIState is the registration flow snapshot.
//
// IsWhitelisted is absorbing: once true, no read sets it back to false.
type UIState struct {
	IsWhitelisted bool
	FreeSlots     int64
	IsLoading     bool
	LastError     *OpError
	LastTx        common.Hash
}

// NewUIState returns the state a freshly mounted flow starts with.
func NewUIState() UIState {
	return UIState{FreeSlots: FreeSlotsUnknown}
}

// FreeSlotsKnown reports whether the free-slot count has been fetched.
func (s UIState) FreeSlotsKnown() bool {
	return s.FreeSlots != FreeSlotsUnknown
}

// HasSubmitted reports whether a registration was submitted in this scope.
func (s UIState) HasSubmitted() bool {
	return s.LastTx != (common.Hash{})
}
