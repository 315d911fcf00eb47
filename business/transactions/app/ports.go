// Package app contains the transaction tracker and port definitions for the transactions context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	"github.com/fd1az/whitelist-sync/business/transactions/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
)

// Repository persists tracked transactions.
type Repository interface {
	// Insert stores tx unless its hash is already tracked.
	Insert(ctx context.Context, tx domain.Transaction) (created bool, err error)
	Update(ctx context.Context, tx domain.Transaction) error
	Get(ctx context.Context, hash common.Hash) (domain.Transaction, error)
	Pending(ctx context.Context) ([]domain.Transaction, error)
	List(ctx context.Context) ([]domain.Transaction, error)
}

// BlockSource publishes new blocks. *block/app.Poller satisfies it.
type BlockSource interface {
	Subscribe() (<-chan blockdomain.BlockState, func())
}

// ConnectionSource exposes the current provider. *wallet/app.Manager satisfies it.
type ConnectionSource interface {
	State() walletdomain.ConnectionState
}
