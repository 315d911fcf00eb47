package infra

import (
	"context"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	txdomain "github.com/fd1az/whitelist-sync/business/transactions/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/business/whitelist/app"
	"github.com/fd1az/whitelist-sync/business/whitelist/domain"
	"github.com/fd1az/whitelist-sync/pkg/ui"
)

var _ app.Reporter = (*TUIReporter)(nil)

// TUIReporter implements Reporter for the Bubble Tea dashboard.
type TUIReporter struct {
	sender ui.Sender
}

// NewTUIReporter creates a TUIReporter sending through sender.
func NewTUIReporter(sender ui.Sender) *TUIReporter {
	return &TUIReporter{sender: sender}
}

// Start is a no-op; the program is owned by the caller.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// ReportConnection sends the wallet connection to the TUI.
func (r *TUIReporter) ReportConnection(state walletdomain.ConnectionState) {
	r.sender.Send(ui.ConnectionMsg{State: state})
}

// ReportBlock sends the latest block to the TUI.
func (r *TUIReporter) ReportBlock(block blockdomain.BlockState) {
	r.sender.Send(ui.BlockMsg{Block: block})
}

// ReportWhitelist sends the registration flow state to the TUI.
func (r *TUIReporter) ReportWhitelist(state domain.UIState) {
	r.sender.Send(ui.WhitelistMsg{State: state})
}

// ReportTransactions sends the tracked transactions to the TUI.
func (r *TUIReporter) ReportTransactions(txs []txdomain.Transaction) {
	r.sender.Send(ui.TransactionsMsg{Transactions: txs})
}

// Stop is a no-op.
func (r *TUIReporter) Stop() error {
	return nil
}
