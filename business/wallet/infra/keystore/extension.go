// Package keystore implements the wallet extension on top of a go-ethereum
// encrypted keystore directory.
package keystore

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	gethks "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/whitelist-sync/business/wallet/app"
	"github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/rpcclient"
)

// Config holds keystore wallet settings.
type Config struct {
	Dir        string
	Account    string // hex address, first account when empty
	Passphrase string
	RPCURL     string
}

// Dialer opens the wallet's own provider.
type Dialer func(ctx context.Context, url string) (domain.Provider, error)

// DefaultDialer dials through the instrumented RPC client.
func DefaultDialer(ctx context.Context, url string) (domain.Provider, error) {
	client, err := rpcclient.Dial(ctx, url, "wallet")
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Extension exposes keystore accounts as a wallet extension.
type Extension struct {
	cfg    Config
	dial   Dialer
	logger logger.LoggerInterface

	once sync.Once
	ks   *gethks.KeyStore
}

var _ app.Extension = (*Extension)(nil)

// NewExtension creates the extension. The keystore directory is opened lazily.
func NewExtension(cfg Config, dial Dialer, log logger.LoggerInterface) *Extension {
	if dial == nil {
		dial = DefaultDialer
	}
	return &Extension{cfg: cfg, dial: dial, logger: log}
}

func (e *Extension) keystore() *gethks.KeyStore {
	e.once.Do(func() {
		e.ks = gethks.NewKeyStore(e.cfg.Dir, gethks.StandardScryptN, gethks.StandardScryptP)
	})
	return e.ks
}

// Connect selects the configured account, or the first one when none is
// configured. It returns a nil handle when there is nothing to select.
func (e *Extension) Connect(ctx context.Context) (app.Handle, error) {
	ks := e.keystore()
	accts := ks.Accounts()
	if len(accts) == 0 {
		e.logger.Debug(ctx, "keystore has no accounts", "dir", e.cfg.Dir)
		return nil, nil
	}

	selected, ok := pick(accts, e.cfg.Account)
	if !ok {
		e.logger.Debug(ctx, "configured account not in keystore", "account", e.cfg.Account)
		return nil, nil
	}

	return &handle{ext: e, ks: ks, account: selected}, nil
}

func pick(accts []accounts.Account, want string) (accounts.Account, bool) {
	if strings.TrimSpace(want) == "" {
		return accts[0], true
	}
	addr := common.HexToAddress(want)
	for _, a := range accts {
		if a.Address == addr {
			return a, true
		}
	}
	return accounts.Account{}, false
}

type handle struct {
	ext     *Extension
	ks      *gethks.KeyStore
	account accounts.Account

	mu        sync.RWMutex
	provider  domain.Provider
	connected bool
}

// Enable unlocks the account and dials the wallet provider.
func (h *handle) Enable(ctx context.Context) error {
	if err := h.ks.Unlock(h.account, h.ext.cfg.Passphrase); err != nil {
		return apperror.New(apperror.CodeWalletUnavailable,
			apperror.WithCause(err),
			apperror.WithContext("unlock "+h.account.Address.Hex()))
	}

	provider, err := h.ext.dial(ctx, h.ext.cfg.RPCURL)
	if err != nil {
		return err
	}

	h.mu.Lock()
	previous := h.provider
	h.provider = provider
	h.connected = true
	h.mu.Unlock()

	if previous != provider {
		closeProvider(previous)
	}
	return nil
}

// Close releases the wallet provider and locks the account again.
func (h *handle) Close() error {
	h.mu.Lock()
	provider := h.provider
	h.provider = nil
	h.connected = false
	h.mu.Unlock()

	closeProvider(provider)

	if err := h.ks.Lock(h.account.Address); err != nil {
		return apperror.New(apperror.CodeWalletUnavailable,
			apperror.WithCause(err),
			apperror.WithContext("lock "+h.account.Address.Hex()))
	}
	return nil
}

// closeProvider closes providers that hold a connection, like *ethclient.Client.
func closeProvider(p domain.Provider) {
	if c, ok := p.(interface{ Close() }); ok {
		c.Close()
	}
}

func (h *handle) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

func (h *handle) Account() domain.Account {
	return &account{ks: h.ks, account: h.account}
}

func (h *handle) Provider() domain.Provider {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.provider
}

// account signs with an unlocked keystore key.
type account struct {
	ks      *gethks.KeyStore
	account accounts.Account
}

func (a *account) Address() common.Address {
	return a.account.Address
}

func (a *account) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return a.ks.SignTx(a.account, tx, chainID)
}
