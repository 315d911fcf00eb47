// Package di contains dependency injection tokens for the transactions context.
package di

import (
	"github.com/fd1az/whitelist-sync/business/transactions/app"
	"github.com/fd1az/whitelist-sync/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Tracker = di.NewToken[*app.Tracker]("transactions.Tracker")
)

// Private dependency tokens - internal to transactions module
var (
	Repository = di.NewToken[app.Repository]("transactions:repository")
)

func GetTracker(c di.ServiceRegistry) *app.Tracker {
	return di.GetToken(c, Tracker)
}

func GetRepository(c di.ServiceRegistry) app.Repository {
	return di.GetToken(c, Repository)
}
