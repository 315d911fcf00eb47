package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/whitelist-sync/business/block/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/store"
)

// fakeProvider serves headers from a script; once exhausted it repeats the
// last entry.
type fakeProvider struct {
	walletdomain.Provider

	mu     sync.Mutex
	script []func() (*types.Header, error)
	calls  atomic.Int64
}

func (f *fakeProvider) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	f.calls.Add(1)
	f.mu.Lock()
	step := f.script[0]
	if len(f.script) > 1 {
		f.script = f.script[1:]
	}
	f.mu.Unlock()
	return step()
}

func header(n int64) func() (*types.Header, error) {
	return func() (*types.Header, error) {
		return &types.Header{Number: big.NewInt(n), BaseFee: big.NewInt(1e9)}, nil
	}
}

func failure() (*types.Header, error) {
	return nil, errors.New("rpc down")
}

func newProvider(steps ...func() (*types.Header, error)) *fakeProvider {
	return &fakeProvider{script: steps}
}

type fakeSource struct {
	*store.Store[walletdomain.ConnectionState, walletdomain.Action]
}

func newSource(p walletdomain.Provider) fakeSource {
	return fakeSource{store.New[walletdomain.ConnectionState, walletdomain.Action](
		walletdomain.NewConnectionState(p), walletdomain.Reduce)}
}

func newTestPoller(t *testing.T, source ConnectionSource) *Poller {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	p, err := NewPoller(cfg, source, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(p.Stop)
	return p
}

func hashOf(n int64) common.Hash {
	h, _ := header(n)()
	return h.Hash()
}

func TestNewPoller_RejectsZeroInterval(t *testing.T) {
	_, err := NewPoller(Config{}, newSource(nil), logger.NewNop())
	assert.Error(t, err)
}

func TestPoller_FetchesImmediately(t *testing.T) {
	provider := newProvider(header(1))
	cfg := DefaultConfig()
	cfg.PollInterval = time.Hour
	p, err := NewPoller(cfg, newSource(provider), logger.NewNop())
	require.NoError(t, err)
	defer p.Stop()

	assert.False(t, p.State().IsKnown())
	require.NoError(t, p.Start(context.Background()))

	require.Eventually(t, func() bool { return p.State().IsKnown() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, hashOf(1), p.State().Hash)
	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestPoller_ReplacesBlockInOrder(t *testing.T) {
	provider := newProvider(header(1), header(2), header(3))
	p := newTestPoller(t, newSource(provider))

	updates, cancel := p.Subscribe()
	defer cancel()

	require.NoError(t, p.Start(context.Background()))

	var seen []uint64
	timeout := time.After(2 * time.Second)
	for len(seen) == 0 || seen[len(seen)-1] < 3 {
		select {
		case b := <-updates:
			seen = append(seen, b.Number)
		case <-timeout:
			t.Fatalf("only saw %v", seen)
		}
	}

	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, hashOf(3), p.State().Hash)
}

func TestPoller_FailureKeepsLastBlockAndRetries(t *testing.T) {
	provider := newProvider(header(7), failure, failure, header(8))
	p := newTestPoller(t, newSource(provider))

	require.NoError(t, p.Start(context.Background()))

	require.Eventually(t, func() bool { return p.State().Number == 8 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, provider.calls.Load(), int64(4))
}

func TestPoller_NoPublishWhileFailing(t *testing.T) {
	provider := newProvider(failure)
	p := newTestPoller(t, newSource(provider))

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return provider.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.Unknown, p.State())
}

func TestPoller_StopHaltsFetching(t *testing.T) {
	provider := newProvider(header(1))
	p := newTestPoller(t, newSource(provider))

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return provider.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	p.Stop()
	after := provider.calls.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, provider.calls.Load())

	// idempotent
	p.Stop()
}

func TestPoller_ProviderChangeReschedules(t *testing.T) {
	first := newProvider(header(1))
	second := newProvider(header(100))
	source := newSource(first)
	p := newTestPoller(t, source)

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return p.State().Number == 1 }, time.Second, 5*time.Millisecond)

	source.Dispatch(walletdomain.SetProvider{Provider: second})

	require.Eventually(t, func() bool { return p.State().Number == 100 }, time.Second, 5*time.Millisecond)

	// old task is gone once the new one is armed
	frozen := first.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozen, first.calls.Load())
	assert.Greater(t, second.calls.Load(), int64(0))
}

func TestPoller_UnrelatedChangeKeepsTask(t *testing.T) {
	provider := newProvider(header(1))
	source := newSource(provider)
	cfg := DefaultConfig()
	cfg.PollInterval = time.Hour
	p, err := NewPoller(cfg, source, logger.NewNop())
	require.NoError(t, err)
	defer p.Stop()

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return provider.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	source.Dispatch(walletdomain.SetConnected{Connected: true})
	time.Sleep(30 * time.Millisecond)

	// a reschedule would have fetched immediately
	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestPoller_StartTwiceIsNoop(t *testing.T) {
	provider := newProvider(header(1))
	cfg := DefaultConfig()
	cfg.PollInterval = time.Hour
	p, err := NewPoller(cfg, newSource(provider), logger.NewNop())
	require.NoError(t, err)
	defer p.Stop()

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	require.NoError(t, p.Start(ctx))

	require.Eventually(t, func() bool { return provider.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), provider.calls.Load())
}

// blockingProvider hands its call context to the test and ignores
// cancellation until released.
type blockingProvider struct {
	walletdomain.Provider
	started chan context.Context
	release chan struct{}
}

func (b *blockingProvider) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	b.started <- ctx
	<-b.release
	return header(7)()
}

func TestPoller_StopDropsInFlightBlock(t *testing.T) {
	provider := &blockingProvider{started: make(chan context.Context, 1), release: make(chan struct{})}
	cfg := DefaultConfig()
	cfg.PollInterval = time.Hour
	p, err := NewPoller(cfg, newSource(provider), logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))

	var callCtx context.Context
	select {
	case callCtx = <-provider.started:
	case <-time.After(time.Second):
		t.Fatal("fetch never started")
	}

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-callCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop did not cancel the fetch")
	}
	close(provider.release)
	<-stopped

	assert.False(t, p.State().IsKnown())
}

func TestPoller_PublishRejectsStaleEpoch(t *testing.T) {
	p := newTestPoller(t, newSource(nil))
	ctx := context.Background()
	block := domain.BlockState{Number: 1, Hash: hashOf(1)}

	stale := p.bumpEpoch()
	current := p.bumpEpoch()

	assert.False(t, p.publish(ctx, stale, block))
	assert.False(t, p.State().IsKnown())

	assert.True(t, p.publish(ctx, current, block))
	assert.Equal(t, hashOf(1), p.State().Hash)
}
