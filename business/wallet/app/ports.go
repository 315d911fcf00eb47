// Package app contains the connection manager and port definitions for the wallet context.
package app

import (
	"context"

	"github.com/fd1az/whitelist-sync/business/wallet/domain"
)

// Extension is the wallet extension entry point.
type Extension interface {
	// Connect asks the user to pick a wallet (or silently reconnects).
	// A nil Handle with a nil error means nothing was selected.
	Connect(ctx context.Context) (Handle, error)
}

// Handle is a selected wallet that may still need to be enabled.
type Handle interface {
	Enable(ctx context.Context) error
	IsConnected() bool
	Account() domain.Account
	Provider() domain.Provider
	// Close releases the provider dialed by Enable.
	Close() error
}

// Notifier shows transient user notifications. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n domain.Notification)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n domain.Notification) {
	f(ctx, n)
}
