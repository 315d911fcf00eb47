// Package whitelist implements the whitelist registration bounded context.
package whitelist

import (
	"context"

	blockDI "github.com/fd1az/whitelist-sync/business/block/di"
	txDI "github.com/fd1az/whitelist-sync/business/transactions/di"
	walletDI "github.com/fd1az/whitelist-sync/business/wallet/di"
	"github.com/fd1az/whitelist-sync/business/whitelist/app"
	whitelistDI "github.com/fd1az/whitelist-sync/business/whitelist/di"
	"github.com/fd1az/whitelist-sync/business/whitelist/infra"
	"github.com/fd1az/whitelist-sync/business/whitelist/infra/ethereum"
	"github.com/fd1az/whitelist-sync/internal/config"
	"github.com/fd1az/whitelist-sync/internal/di"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/monolith"
)

// Module implements the whitelist bounded context. It depends on the wallet,
// block and transactions modules.
type Module struct {
	// Reporter overrides the console reporter (the TUI passes its own).
	Reporter app.Reporter
}

// RegisterServices registers all whitelist services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, whitelistDI.AccessController, func(sr di.ServiceRegistry) app.AccessController {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		controller, err := ethereum.NewAccessController(cfg.Whitelist.AccessControllerHex(), walletDI.GetManager(sr), log)
		if err != nil {
			panic("failed to create access controller: " + err.Error())
		}
		return controller
	})

	di.RegisterToken(c, whitelistDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		if m.Reporter != nil {
			return m.Reporter
		}
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		return infra.NewConsoleReporter(nil, cfg.Whitelist.AccessControllerHex(), cfg.Whitelist.ExplorerURL)
	})

	di.RegisterToken(c, whitelistDI.Flow, func(sr di.ServiceRegistry) *app.Flow {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		flow, err := app.NewFlow(
			whitelistDI.GetAccessController(sr),
			txDI.GetTracker(sr),
			walletDI.GetManager(sr),
			blockDI.GetPoller(sr),
			walletDI.GetNotifier(sr),
			app.FlowConfig{ToastDuration: cfg.Notifications.ToastDuration},
			log,
		)
		if err != nil {
			panic("failed to create whitelist flow: " + err.Error())
		}
		return flow
	})

	di.RegisterToken(c, whitelistDI.Dashboard, func(sr di.ServiceRegistry) *app.Dashboard {
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		return app.NewDashboard(
			walletDI.GetManager(sr),
			blockDI.GetPoller(sr),
			whitelistDI.GetFlow(sr),
			txDI.GetTracker(sr),
			whitelistDI.GetReporter(sr),
			log,
		)
	})

	return nil
}

// Startup starts the dashboard, which mounts the registration flow.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	dashboard := whitelistDI.GetDashboard(mono.Services())
	if err := dashboard.Start(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "whitelist module started",
		"access_controller", mono.Config().Whitelist.AccessControllerAddress,
	)
	return nil
}
