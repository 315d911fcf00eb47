package app

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	txdomain "github.com/fd1az/whitelist-sync/business/transactions/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/logger"
)

// Dashboard is the hosting scope: it mounts the flow, forwards every state
// change to the reporter and turns user actions into operations.
type Dashboard struct {
	wallet   WalletController
	blocks   BlockSource
	flow     *Flow
	txs      TransactionFeed
	reporter Reporter
	logger   logger.LoggerInterface

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDashboard creates a dashboard. txs may be nil.
func NewDashboard(wallet WalletController, blocks BlockSource, flow *Flow, txs TransactionFeed, reporter Reporter, log logger.LoggerInterface) *Dashboard {
	return &Dashboard{
		wallet:   wallet,
		blocks:   blocks,
		flow:     flow,
		txs:      txs,
		reporter: reporter,
		logger:   log,
	}
}

// Start starts the reporter, mounts the flow and begins forwarding updates.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}

	if err := d.reporter.Start(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "start reporter")
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.running = true
	d.cancel = cancel
	d.done = done

	// subscribe before mounting so the initial flow state is not missed
	connCh, connCancel := d.wallet.Subscribe()
	blockCh, blockCancel := d.blocks.Subscribe()
	uiCh, uiCancel := d.flow.Subscribe()

	var txCh <-chan []txdomain.Transaction
	txCancel := func() {}
	if d.txs != nil {
		txCh, txCancel = d.txs.Subscribe()
	}

	d.reporter.ReportConnection(d.wallet.State())
	d.reporter.ReportBlock(d.blocks.State())

	d.flow.Mount(runCtx)
	d.reporter.ReportWhitelist(d.flow.State())

	go func() {
		defer close(done)
		defer connCancel()
		defer blockCancel()
		defer uiCancel()
		defer txCancel()

		for {
			select {
			case <-runCtx.Done():
				return
			case s, ok := <-connCh:
				if !ok {
					return
				}
				d.reporter.ReportConnection(s)
			case b, ok := <-blockCh:
				if !ok {
					return
				}
				d.reporter.ReportBlock(b)
			case ui, ok := <-uiCh:
				if !ok {
					return
				}
				d.reporter.ReportWhitelist(ui)
			case txs, ok := <-txCh:
				if !ok {
					return
				}
				d.reporter.ReportTransactions(txs)
			}
		}
	}()

	d.logger.Info(ctx, "dashboard started")
	return nil
}

// Stop unmounts the flow, stops forwarding and stops the reporter.
func (d *Dashboard) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	cancel, done := d.cancel, d.done
	d.running = false
	d.mu.Unlock()

	d.flow.Unmount()
	cancel()
	<-done

	return d.reporter.Stop()
}

// Connect connects the wallet and, once an account is selected, marks the
// connection as established and checks the account's whitelist status.
// Without a wallet the connection stays down and Connect returns nil; the
// manager has already notified the user.
func (d *Dashboard) Connect(ctx context.Context) error {
	d.wallet.ConnectBrowserWallet(ctx)

	addr, ok := d.wallet.State().Address()
	if !ok {
		d.logger.Debug(ctx, "no wallet account selected")
		return nil
	}

	d.wallet.SetConnected(ctx, true)

	if err := d.flow.CheckWhitelisted(ctx, addr); err != nil {
		d.logger.Warn(ctx, "whitelist check after connect failed", "error", err)
		return err
	}
	return nil
}

// Disconnect drops the account and returns to the default provider.
func (d *Dashboard) Disconnect(ctx context.Context) {
	d.wallet.SetConnected(ctx, false)
}

// CheckWhitelisted checks the connected account.
func (d *Dashboard) CheckWhitelisted(ctx context.Context) error {
	addr, err := d.connectedAddress()
	if err != nil {
		return err
	}

	if err := d.flow.CheckWhitelisted(ctx, addr); err != nil {
		d.logger.Warn(ctx, "whitelist check failed", "error", err)
		return err
	}
	return nil
}

// Register registers the connected account unless it is already whitelisted.
func (d *Dashboard) Register(ctx context.Context) (common.Hash, error) {
	if _, err := d.connectedAddress(); err != nil {
		return common.Hash{}, err
	}
	if d.flow.State().IsWhitelisted {
		return common.Hash{}, apperror.New(apperror.CodeInvalidState, apperror.WithContext("already whitelisted"))
	}
	return d.flow.RegisterToWhitelist(ctx)
}

func (d *Dashboard) connectedAddress() (common.Address, error) {
	state := d.wallet.State()
	addr, ok := state.Address()
	if !state.Connected || !ok {
		return common.Address{}, apperror.New(apperror.CodeWalletNotConnected)
	}
	return addr, nil
}
