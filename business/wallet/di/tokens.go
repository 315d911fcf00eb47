// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/fd1az/whitelist-sync/business/wallet/app"
	"github.com/fd1az/whitelist-sync/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Manager = di.NewToken[*app.Manager]("wallet.Manager")
)

// Private dependency tokens - internal to wallet module
var (
	Extension = di.NewToken[app.Extension]("wallet:extension")
	Notifier  = di.NewToken[app.Notifier]("wallet:notifier")
)

func GetManager(c di.ServiceRegistry) *app.Manager {
	return di.GetToken(c, Manager)
}

func GetExtension(c di.ServiceRegistry) app.Extension {
	return di.GetToken(c, Extension)
}

func GetNotifier(c di.ServiceRegistry) app.Notifier {
	return di.GetToken(c, Notifier)
}
