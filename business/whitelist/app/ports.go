// Package app contains the registration flow, the dashboard and port
// definitions for the whitelist context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	txdomain "github.com/fd1az/whitelist-sync/business/transactions/domain"
	walletapp "github.com/fd1az/whitelist-sync/business/wallet/app"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/business/whitelist/domain"
)

// AccessController is the whitelist contract.
type AccessController interface {
	// IsAllowed returns 1 when addr is whitelisted.
	IsAllowed(ctx context.Context, addr common.Address) (*big.Int, error)
	FreeSlotsCount(ctx context.Context) (*big.Int, error)
	// Register submits register() signed by account and returns the tx hash.
	Register(ctx context.Context, account walletdomain.Account) (common.Hash, error)
}

// TransactionTracker accepts submitted transactions. *transactions/app.Tracker satisfies it.
type TransactionTracker interface {
	AddTransaction(ctx context.Context, hash common.Hash, from common.Address) error
}

// ConnectionSource exposes the wallet connection state.
type ConnectionSource interface {
	State() walletdomain.ConnectionState
	Subscribe() (<-chan walletdomain.ConnectionState, func())
}

// WalletController is the connection manager as seen by the dashboard.
// *wallet/app.Manager satisfies it.
type WalletController interface {
	ConnectionSource
	ConnectBrowserWallet(ctx context.Context)
	SetConnected(ctx context.Context, connected bool)
}

// BlockSource exposes the latest block. *block/app.Poller satisfies it.
type BlockSource interface {
	State() blockdomain.BlockState
	Subscribe() (<-chan blockdomain.BlockState, func())
}

// TransactionFeed publishes the tracked transaction list.
type TransactionFeed interface {
	Subscribe() (<-chan []txdomain.Transaction, func())
}

// Notifier shows transient user notifications.
type Notifier = walletapp.Notifier

// Reporter renders dashboard snapshots.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	ReportConnection(state walletdomain.ConnectionState)
	ReportBlock(block blockdomain.BlockState)
	ReportWhitelist(state domain.UIState)
	ReportTransactions(txs []txdomain.Transaction)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
