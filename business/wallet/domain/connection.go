// Package domain contains the core domain types for the wallet context.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/whitelist-sync/internal/rpcclient"
)

// Provider is the chain RPC handle used for reads and submissions.
type Provider = rpcclient.Provider

// Account is the signer handle of a connected wallet.
type Account interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// ConnectionState is the wallet connection snapshot.
//
// Connected implies Account != nil. The reducer does not enforce it: callers
// only set Connected after a successful SetAccount. After SetConnected(false)
// through the manager, Account is nil and Provider is the default provider.
type ConnectionState struct {
	Account   Account
	Connected bool
	Provider  Provider
}

// NewConnectionState returns the initial state bound to the default provider.
func NewConnectionState(defaultProvider Provider) ConnectionState {
	return ConnectionState{Provider: defaultProvider}
}

// Address returns the connected account address, if any.
func (s ConnectionState) Address() (common.Address, bool) {
	if s.Account == nil {
		return common.Address{}, false
	}
	return s.Account.Address(), true
}

// Action is a connection state transition.
type Action interface {
	isAction()
}

// SetAccount replaces the account. A nil Account clears it.
type SetAccount struct {
	Account Account
}

// SetProvider replaces the provider.
type SetProvider struct {
	Provider Provider
}

// SetConnected replaces the connected flag.
type SetConnected struct {
	Connected bool
}

func (SetAccount) isAction()   {}
func (SetProvider) isAction()  {}
func (SetConnected) isAction() {}

// Reduce applies a single action. Every action replaces exactly one field and
// none is ever rejected.
func Reduce(state ConnectionState, action Action) ConnectionState {
	switch a := action.(type) {
	case SetAccount:
		state.Account = a.Account
	case SetProvider:
		state.Provider = a.Provider
	case SetConnected:
		state.Connected = a.Connected
	}
	return state
}
