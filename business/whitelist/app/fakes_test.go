package app

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/store"
)

// mockLogger implements logger.LoggerInterface and records error messages.
type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func (m *mockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

var _ logger.LoggerInterface = (*mockLogger)(nil)

// result is one scripted controller reply. A non-nil gate holds the call
// until it is closed.
type result struct {
	value *big.Int
	hash  common.Hash
	err   error
	gate  chan struct{}
	panic bool
}

type fakeController struct {
	mu        sync.Mutex
	allowed   []result
	freeSlots []result
	register  []result

	allowedCalls  int
	freeCalls     int
	registerCalls int
	registeredBy  []common.Address
}

// pop returns the next scripted reply; the last one repeats.
func pop(queue *[]result) result {
	r := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return r
}

func (r result) wait(ctx context.Context) {
	if r.gate == nil {
		return
	}
	select {
	case <-r.gate:
	case <-ctx.Done():
	}
}

func (c *fakeController) IsAllowed(ctx context.Context, addr common.Address) (*big.Int, error) {
	c.mu.Lock()
	c.allowedCalls++
	r := pop(&c.allowed)
	c.mu.Unlock()

	r.wait(ctx)
	if r.panic {
		panic("controller exploded")
	}
	return r.value, r.err
}

func (c *fakeController) FreeSlotsCount(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	c.freeCalls++
	r := pop(&c.freeSlots)
	c.mu.Unlock()

	r.wait(ctx)
	return r.value, r.err
}

func (c *fakeController) Register(ctx context.Context, account walletdomain.Account) (common.Hash, error) {
	c.mu.Lock()
	c.registerCalls++
	c.registeredBy = append(c.registeredBy, account.Address())
	r := pop(&c.register)
	c.mu.Unlock()

	r.wait(ctx)
	return r.hash, r.err
}

func (c *fakeController) counts() (allowed, free, register int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowedCalls, c.freeCalls, c.registerCalls
}

type trackedTx struct {
	hash common.Hash
	from common.Address
}

type fakeTracker struct {
	mu  sync.Mutex
	txs []trackedTx
	err error
}

func (t *fakeTracker) AddTransaction(_ context.Context, hash common.Hash, from common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.txs = append(t.txs, trackedTx{hash: hash, from: from})
	return t.err
}

func (t *fakeTracker) all() []trackedTx {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]trackedTx(nil), t.txs...)
}

type fakeAccount struct{ addr common.Address }

func (a fakeAccount) Address() common.Address { return a.addr }
func (a fakeAccount) SignTx(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []walletdomain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note walletdomain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) all() []walletdomain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]walletdomain.Notification(nil), n.notes...)
}

// fakeWallet is a connection store with the manager's action surface.
type fakeWallet struct {
	*store.Store[walletdomain.ConnectionState, walletdomain.Action]
	connectWith walletdomain.Account
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{Store: store.New[walletdomain.ConnectionState, walletdomain.Action](
		walletdomain.NewConnectionState(nil), walletdomain.Reduce)}
}

func (w *fakeWallet) ConnectBrowserWallet(context.Context) {
	if w.connectWith != nil {
		w.Dispatch(walletdomain.SetAccount{Account: w.connectWith})
	}
}

func (w *fakeWallet) SetConnected(_ context.Context, connected bool) {
	if connected {
		w.Dispatch(walletdomain.SetConnected{Connected: true})
		return
	}
	w.Dispatch(walletdomain.SetConnected{}, walletdomain.SetAccount{}, walletdomain.SetProvider{})
}

func newBlockStore() *store.Store[blockdomain.BlockState, blockdomain.BlockState] {
	return store.New[blockdomain.BlockState, blockdomain.BlockState](blockdomain.Unknown, store.Replace[blockdomain.BlockState])
}

func block(n uint64) blockdomain.BlockState {
	return blockdomain.BlockState{Number: n, Hash: common.BigToHash(new(big.Int).SetUint64(n))}
}

func value(v int64) result {
	return result{value: big.NewInt(v)}
}
