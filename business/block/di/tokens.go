// Package di contains dependency injection tokens for the block context.
package di

import (
	"github.com/fd1az/whitelist-sync/business/block/app"
	"github.com/fd1az/whitelist-sync/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Poller = di.NewToken[*app.Poller]("block.Poller")
)

func GetPoller(c di.ServiceRegistry) *app.Poller {
	return di.GetToken(c, Poller)
}
