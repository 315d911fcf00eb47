// Package app contains the block poller and port definitions for the block context.
package app

import (
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
)

// ConnectionSource exposes the wallet connection state. *wallet/app.Manager
// satisfies it.
type ConnectionSource interface {
	State() walletdomain.ConnectionState
	Subscribe() (<-chan walletdomain.ConnectionState, func())
}
