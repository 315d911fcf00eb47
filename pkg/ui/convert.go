package ui

import (
	"github.com/ethereum/go-ethereum/common"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	txdomain "github.com/fd1az/whitelist-sync/business/transactions/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	whitelistdomain "github.com/fd1az/whitelist-sync/business/whitelist/domain"
	"github.com/fd1az/whitelist-sync/pkg/ui/components"
)

func connectionStatus(s walletdomain.ConnectionState) components.ConnectionStatus {
	status := components.ConnectionStatus{Connected: s.Connected}
	if addr, ok := s.Address(); ok {
		status.Address = addr.Hex()
	}
	switch {
	case s.Provider == nil:
	case s.Connected:
		status.Provider = "wallet"
	default:
		status.Provider = "default"
	}
	return status
}

func blockInfo(b blockdomain.BlockState) components.BlockInfo {
	return components.BlockInfo{
		Number:     b.Number,
		Hash:       b.ShortHash(),
		GasGwei:    b.GasPriceGwei(),
		Timestamp:  b.Timestamp,
		ObservedAt: b.ObservedAt,
		Known:      b.IsKnown(),
	}
}

func whitelistInfo(s whitelistdomain.UIState) components.WhitelistInfo {
	info := components.WhitelistInfo{
		Whitelisted: s.IsWhitelisted,
		FreeSlots:   s.FreeSlots,
		Loading:     s.IsLoading,
	}
	if s.LastError != nil {
		info.LastError = s.LastError.Error()
	}
	if s.LastTx != (common.Hash{}) {
		info.LastTx = s.LastTx.Hex()
	}
	return info
}

func transactionRows(txs []txdomain.Transaction) []components.TransactionRow {
	rows := make([]components.TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, components.TransactionRow{
			Hash:        tx.Hash.Hex(),
			Status:      string(tx.Status),
			BlockNumber: tx.BlockNumber,
			Submitted:   tx.SubmittedAt.Format("15:04:05"),
		})
	}
	return rows
}
