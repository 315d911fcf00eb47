// Package block implements the latest-block polling bounded context.
package block

import (
	"context"

	"github.com/fd1az/whitelist-sync/business/block/app"
	blockDI "github.com/fd1az/whitelist-sync/business/block/di"
	walletDI "github.com/fd1az/whitelist-sync/business/wallet/di"
	"github.com/fd1az/whitelist-sync/internal/config"
	"github.com/fd1az/whitelist-sync/internal/di"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/monolith"
	"github.com/fd1az/whitelist-sync/internal/ratelimit"
)

// Module implements the block bounded context. It depends on the wallet module.
type Module struct{}

// RegisterServices registers all block services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockDI.Poller, func(sr di.ServiceRegistry) *app.Poller {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		pollerCfg := app.DefaultConfig()
		pollerCfg.PollInterval = cfg.Block.PollInterval()
		// the wallet provider is not behind the default provider's limiter
		pollerCfg.Limiter = ratelimit.New(cfg.Ethereum.RequestsPerMinute)

		poller, err := app.NewPoller(pollerCfg, walletDI.GetManager(sr), log)
		if err != nil {
			panic("failed to create block poller: " + err.Error())
		}
		return poller
	})

	return nil
}

// Startup starts polling.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	poller := blockDI.GetPoller(mono.Services())
	if err := poller.Start(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "block module started")
	return nil
}
