// Package wallet implements the wallet connection bounded context.
package wallet

import (
	"context"

	"github.com/fd1az/whitelist-sync/business/wallet/app"
	walletDI "github.com/fd1az/whitelist-sync/business/wallet/di"
	"github.com/fd1az/whitelist-sync/business/wallet/infra/keystore"
	"github.com/fd1az/whitelist-sync/business/wallet/infra/lognotify"
	"github.com/fd1az/whitelist-sync/internal/config"
	"github.com/fd1az/whitelist-sync/internal/di"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/monolith"
	"github.com/fd1az/whitelist-sync/internal/rpcclient"
)

// Module implements the wallet bounded context.
type Module struct {
	// Notifier overrides the log notifier (the TUI passes its toast notifier).
	Notifier app.Notifier
}

// RegisterServices registers all wallet services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, walletDI.Extension, func(sr di.ServiceRegistry) app.Extension {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		return keystore.NewExtension(keystore.Config{
			Dir:        cfg.Wallet.KeystoreDir,
			Account:    cfg.Wallet.Account,
			Passphrase: cfg.Wallet.Passphrase,
			RPCURL:     cfg.WalletRPCURL(),
		}, keystore.DefaultDialer, log)
	})

	di.RegisterToken(c, walletDI.Notifier, func(sr di.ServiceRegistry) app.Notifier {
		if m.Notifier != nil {
			return m.Notifier
		}
		return lognotify.New(sr.Get(monolith.LoggerService).(logger.LoggerInterface))
	})

	di.RegisterToken(c, walletDI.Manager, func(sr di.ServiceRegistry) *app.Manager {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		provider := sr.Get(monolith.DefaultProviderService).(rpcclient.Provider)

		mgr, err := app.NewManager(
			walletDI.GetExtension(sr),
			walletDI.GetNotifier(sr),
			provider,
			app.ManagerConfig{ToastDuration: cfg.Notifications.ToastDuration},
			log,
		)
		if err != nil {
			panic("failed to create wallet manager: " + err.Error())
		}
		return mgr
	})

	return nil
}

// Startup resolves the manager so wiring errors surface at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mgr := walletDI.GetManager(mono.Services())
	mono.Logger().Info(ctx, "wallet module started", "keystore", mono.Config().Wallet.KeystoreDir, "connected", mgr.State().Connected)
	return nil
}
