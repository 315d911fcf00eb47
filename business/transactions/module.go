// Package transactions implements the submitted-transaction tracking bounded context.
package transactions

import (
	"context"

	blockDI "github.com/fd1az/whitelist-sync/business/block/di"
	"github.com/fd1az/whitelist-sync/business/transactions/app"
	txDI "github.com/fd1az/whitelist-sync/business/transactions/di"
	"github.com/fd1az/whitelist-sync/business/transactions/infra/sqlite"
	walletDI "github.com/fd1az/whitelist-sync/business/wallet/di"
	"github.com/fd1az/whitelist-sync/internal/config"
	"github.com/fd1az/whitelist-sync/internal/di"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/monolith"
)

// Module implements the transactions bounded context. It depends on the
// wallet and block modules.
type Module struct{}

// RegisterServices registers all transactions services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, txDI.Repository, func(sr di.ServiceRegistry) app.Repository {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)

		repo, err := sqlite.Open(cfg.Transactions.DBPath)
		if err != nil {
			panic("failed to open transactions db: " + err.Error())
		}
		return repo
	})

	di.RegisterToken(c, txDI.Tracker, func(sr di.ServiceRegistry) *app.Tracker {
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		tracker, err := app.NewTracker(
			txDI.GetRepository(sr),
			blockDI.GetPoller(sr),
			walletDI.GetManager(sr),
			log,
		)
		if err != nil {
			panic("failed to create transaction tracker: " + err.Error())
		}
		return tracker
	})

	return nil
}

// Startup starts resolving pending transactions on new blocks.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	tracker := txDI.GetTracker(mono.Services())
	if err := tracker.Start(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "transactions module started", "db", mono.Config().Transactions.DBPath)
	return nil
}
