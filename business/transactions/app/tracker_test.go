package app

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	"github.com/fd1az/whitelist-sync/business/transactions/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/store"
)

type memRepo struct {
	mu  sync.Mutex
	txs map[common.Hash]domain.Transaction
}

func newMemRepo() *memRepo {
	return &memRepo{txs: make(map[common.Hash]domain.Transaction)}
}

func (r *memRepo) Insert(_ context.Context, tx domain.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[tx.Hash]; ok {
		return false, nil
	}
	r.txs[tx.Hash] = tx
	return true, nil
}

func (r *memRepo) Update(_ context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.Hash] = tx
	return nil
}

func (r *memRepo) Get(_ context.Context, hash common.Hash) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[hash]
	if !ok {
		return tx, apperror.New(apperror.CodeNotFound)
	}
	return tx, nil
}

func (r *memRepo) Pending(ctx context.Context) ([]domain.Transaction, error) {
	all, _ := r.List(ctx)
	var out []domain.Transaction
	for _, tx := range all {
		if tx.IsPending() {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memRepo) List(context.Context) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Transaction, 0, len(r.txs))
	for _, tx := range r.txs {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash.Hex() < out[j].Hash.Hex() })
	return out, nil
}

type receiptProvider struct {
	walletdomain.Provider

	mu       sync.Mutex
	receipts map[common.Hash]*types.Receipt
	errs     map[common.Hash]error
}

func (p *receiptProvider) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[hash]; ok {
		return nil, err
	}
	if r, ok := p.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (p *receiptProvider) set(hash common.Hash, status uint64, block int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receipts[hash] = &types.Receipt{Status: status, BlockNumber: big.NewInt(block)}
}

type connSource struct{ provider walletdomain.Provider }

func (c connSource) State() walletdomain.ConnectionState {
	return walletdomain.NewConnectionState(c.provider)
}

func newBlockStore() *store.Store[blockdomain.BlockState, blockdomain.BlockState] {
	return store.New[blockdomain.BlockState, blockdomain.BlockState](blockdomain.Unknown, store.Replace[blockdomain.BlockState])
}

func block(n uint64) blockdomain.BlockState {
	return blockdomain.BlockState{Number: n, Hash: common.BigToHash(new(big.Int).SetUint64(n))}
}

func newTestTracker(t *testing.T) (*Tracker, *memRepo, *receiptProvider, *store.Store[blockdomain.BlockState, blockdomain.BlockState]) {
	t.Helper()
	repo := newMemRepo()
	provider := &receiptProvider{receipts: map[common.Hash]*types.Receipt{}, errs: map[common.Hash]error{}}
	blocks := newBlockStore()
	tracker, err := NewTracker(repo, blocks, connSource{provider: provider}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(tracker.Stop)
	return tracker, repo, provider, blocks
}

var (
	hashA = common.HexToHash("0xabc")
	hashB = common.HexToHash("0xdef")
	from  = common.HexToAddress("0x123")
)

func TestAddTransaction_StoresPendingOnce(t *testing.T) {
	tracker, repo, _, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.AddTransaction(ctx, hashA, from))
	require.NoError(t, tracker.AddTransaction(ctx, hashA, from))

	txs, err := tracker.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, hashA, txs[0].Hash)
	assert.Equal(t, from, txs[0].Address)
	assert.Equal(t, domain.StatusPending, txs[0].Status)
	assert.Len(t, repo.txs, 1)
}

func TestAddTransaction_RejectsEmptyHash(t *testing.T) {
	tracker, _, _, _ := newTestTracker(t)
	err := tracker.AddTransaction(context.Background(), common.Hash{}, from)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestCheckPending_ResolvesByReceipt(t *testing.T) {
	tracker, repo, provider, _ := newTestTracker(t)
	ctx := context.Background()
	hashC := common.HexToHash("0x0c")

	for _, h := range []common.Hash{hashA, hashB, hashC} {
		require.NoError(t, tracker.AddTransaction(ctx, h, from))
	}
	provider.set(hashA, types.ReceiptStatusSuccessful, 10)
	provider.set(hashB, types.ReceiptStatusFailed, 11)
	provider.errs[hashC] = errors.New("rpc timeout")

	require.NoError(t, tracker.CheckPending(ctx))

	a, _ := repo.Get(ctx, hashA)
	b, _ := repo.Get(ctx, hashB)
	c, _ := repo.Get(ctx, hashC)
	assert.Equal(t, domain.StatusAccepted, a.Status)
	assert.Equal(t, uint64(10), a.BlockNumber)
	assert.Equal(t, domain.StatusRejected, b.Status)
	assert.Equal(t, domain.StatusPending, c.Status, "lookup errors retry later")
}

func TestStart_ChecksOnNewBlocks(t *testing.T) {
	tracker, repo, provider, blocks := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx))
	require.NoError(t, tracker.AddTransaction(ctx, hashA, from))

	blocks.Dispatch(block(1))
	time.Sleep(20 * time.Millisecond)
	tx, _ := repo.Get(ctx, hashA)
	assert.Equal(t, domain.StatusPending, tx.Status, "no receipt yet")

	provider.set(hashA, types.ReceiptStatusSuccessful, 2)
	blocks.Dispatch(block(2))

	require.Eventually(t, func() bool {
		tx, _ := repo.Get(ctx, hashA)
		return tx.Status == domain.StatusAccepted
	}, time.Second, 5*time.Millisecond)
}

func TestSubscribe_PublishesChanges(t *testing.T) {
	tracker, _, _, _ := newTestTracker(t)
	updates, cancel := tracker.Subscribe()
	defer cancel()

	require.NoError(t, tracker.AddTransaction(context.Background(), hashA, from))

	select {
	case txs := <-updates:
		require.Len(t, txs, 1)
		assert.Equal(t, hashA, txs[0].Hash)
	case <-time.After(time.Second):
		t.Fatal("no update")
	}
}
