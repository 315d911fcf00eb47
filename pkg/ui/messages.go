package ui

import (
	"github.com/ethereum/go-ethereum/common"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	txdomain "github.com/fd1az/whitelist-sync/business/transactions/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	whitelistdomain "github.com/fd1az/whitelist-sync/business/whitelist/domain"
)

// Message types for TUI updates

// ConnectionMsg is sent when the wallet connection changes.
type ConnectionMsg struct {
	State walletdomain.ConnectionState
}

// BlockMsg is sent when a new block is observed.
type BlockMsg struct {
	Block blockdomain.BlockState
}

// WhitelistMsg is sent when the registration flow state changes.
type WhitelistMsg struct {
	State whitelistdomain.UIState
}

// TransactionsMsg is sent when the tracked transaction list changes.
type TransactionsMsg struct {
	Transactions []txdomain.Transaction
}

// ToastMsg shows a transient notification.
type ToastMsg struct {
	Notification walletdomain.Notification
}

// ActionDoneMsg is sent when a user action returns.
type ActionDoneMsg struct {
	Action string
	Hash   common.Hash // register only
	Err    error
}

// toastExpiredMsg dismisses the toast with the given id.
type toastExpiredMsg struct {
	id int
}
