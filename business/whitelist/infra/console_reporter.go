// Package infra contains infrastructure adapters for the whitelist context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	txdomain "github.com/fd1az/whitelist-sync/business/transactions/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/business/whitelist/app"
	"github.com/fd1az/whitelist-sync/business/whitelist/domain"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter implements Reporter for CLI output. It prints a line per
// change and skips snapshots equal to the last one printed.
type ConsoleReporter struct {
	out        io.Writer
	controller common.Address
	explorer   string

	mu        sync.Mutex
	lastConn  string
	lastBlock common.Hash
	lastUI    string
	txStatus  map[common.Hash]txdomain.Status
}

// NewConsoleReporter creates a ConsoleReporter writing to out (stdout when nil).
func NewConsoleReporter(out io.Writer, controller common.Address, explorerURL string) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{
		out:        out,
		controller: controller,
		explorer:   strings.TrimRight(explorerURL, "/"),
		txStatus:   make(map[common.Hash]txdomain.Status),
	}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "Whitelist Registration Started")
	fmt.Fprintln(r.out, "==============================")
	fmt.Fprintf(r.out, "Access controller: %s\n", r.link("address", r.controller.Hex()))
	return nil
}

// ReportConnection prints the wallet connection when it changes.
func (r *ConsoleReporter) ReportConnection(state walletdomain.ConnectionState) {
	account := "none"
	if addr, ok := state.Address(); ok {
		account = addr.Hex()
	}
	status := "disconnected"
	if state.Connected {
		status = "connected"
	}
	line := fmt.Sprintf("wallet: %s (account %s)", status, account)

	r.mu.Lock()
	defer r.mu.Unlock()
	if line == r.lastConn {
		return
	}
	r.lastConn = line
	r.printf("%s\n", line)
}

// ReportBlock prints each newly observed block once.
func (r *ConsoleReporter) ReportBlock(block blockdomain.BlockState) {
	if !block.IsKnown() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if block.Hash == r.lastBlock {
		return
	}
	r.lastBlock = block.Hash

	gas := "n/a"
	if block.GasPrice != nil {
		gas = block.GasPriceGwei().StringFixed(2) + " gwei"
	}
	r.printf("block #%d %s (base fee %s)\n", block.Number, block.ShortHash(), gas)
}

// ReportWhitelist prints the registration flow state when it changes.
func (r *ConsoleReporter) ReportWhitelist(state domain.UIState) {
	slots := "-"
	if state.FreeSlotsKnown() {
		slots = fmt.Sprintf("%d", state.FreeSlots)
	}
	line := fmt.Sprintf("whitelist: whitelisted=%t free_slots=%s loading=%t", state.IsWhitelisted, slots, state.IsLoading)
	if state.LastError != nil {
		line += " error=" + state.LastError.Error()
	}
	if state.HasSubmitted() {
		line += " last_tx=" + r.link("tx", state.LastTx.Hex())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if line == r.lastUI {
		return
	}
	r.lastUI = line
	r.printf("%s\n", line)
}

// ReportTransactions prints transactions whose status changed.
func (r *ConsoleReporter) ReportTransactions(txs []txdomain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tx := range txs {
		if prev, ok := r.txStatus[tx.Hash]; ok && prev == tx.Status {
			continue
		}
		r.txStatus[tx.Hash] = tx.Status

		if tx.BlockNumber > 0 {
			r.printf("tx %s %s in block #%d\n", tx.Hash.Hex(), tx.Status, tx.BlockNumber)
		} else {
			r.printf("tx %s %s\n", tx.Hash.Hex(), tx.Status)
		}
	}
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Whitelist Registration Stopped")
	return nil
}

func (r *ConsoleReporter) printf(format string, args ...any) {
	fmt.Fprintf(r.out, "[%s] "+format, append([]any{time.Now().Format("15:04:05")}, args...)...)
}

func (r *ConsoleReporter) link(kind, id string) string {
	if r.explorer == "" {
		return id
	}
	return fmt.Sprintf("%s/%s/%s", r.explorer, kind, id)
}
