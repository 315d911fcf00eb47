package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/internal/logger"
)

type fakeProvider struct {
	domain.Provider
	name string
}

type fakeAccount struct{ addr common.Address }

func (a fakeAccount) Address() common.Address { return a.addr }
func (a fakeAccount) SignTx(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type fakeHandle struct {
	enableErr error
	connected bool
	account   domain.Account
	provider  domain.Provider
	closed    int
}

func (h *fakeHandle) Enable(context.Context) error {
	if h.enableErr != nil {
		return h.enableErr
	}
	return nil
}
func (h *fakeHandle) IsConnected() bool         { return h.connected }
func (h *fakeHandle) Account() domain.Account   { return h.account }
func (h *fakeHandle) Provider() domain.Provider { return h.provider }
func (h *fakeHandle) Close() error              { h.closed++; return nil }

type fakeExtension struct {
	handle  Handle
	err     error
	panicky bool
	calls   int
}

func (e *fakeExtension) Connect(context.Context) (Handle, error) {
	e.calls++
	if e.panicky {
		panic("extension exploded")
	}
	return e.handle, e.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.notes...)
}

func newTestManager(t *testing.T, ext Extension) (*Manager, *recordingNotifier, *fakeProvider) {
	t.Helper()
	notifier := &recordingNotifier{}
	def := &fakeProvider{name: "default"}
	m, err := NewManager(ext, notifier, def, ManagerConfig{}, logger.NewNop())
	require.NoError(t, err)
	return m, notifier, def
}

func TestManager_InitialState(t *testing.T) {
	m, _, def := newTestManager(t, &fakeExtension{})

	state := m.State()
	assert.False(t, state.Connected)
	assert.Nil(t, state.Account)
	assert.Same(t, def, state.Provider)
	assert.Same(t, def, m.Default())
}

func TestConnectBrowserWallet_Success(t *testing.T) {
	wallet := &fakeProvider{name: "wallet"}
	acct := fakeAccount{addr: common.HexToAddress("0x123")}
	ext := &fakeExtension{handle: &fakeHandle{connected: true, account: acct, provider: wallet}}

	m, notifier, _ := newTestManager(t, ext)
	updates, cancel := m.Subscribe()
	defer cancel()

	m.ConnectBrowserWallet(context.Background())

	state := m.State()
	assert.Equal(t, acct, state.Account)
	assert.Same(t, wallet, state.Provider)
	assert.False(t, state.Connected, "connected is set by the caller")
	assert.Empty(t, notifier.all())

	// account and provider land in one transition
	select {
	case got := <-updates:
		assert.Equal(t, acct, got.Account)
		assert.Same(t, wallet, got.Provider)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
	select {
	case extra := <-updates:
		t.Fatalf("unexpected second update: %+v", extra)
	default:
	}
}

func TestConnectBrowserWallet_Failures(t *testing.T) {
	tests := []struct {
		name string
		ext  *fakeExtension
	}{
		{name: "no wallet selected", ext: &fakeExtension{}},
		{name: "connect error", ext: &fakeExtension{err: errors.New("rejected")}},
		{name: "enable error", ext: &fakeExtension{handle: &fakeHandle{enableErr: errors.New("locked")}}},
		{name: "extension panics", ext: &fakeExtension{panicky: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, notifier, def := newTestManager(t, tt.ext)
			before := m.State()

			assert.NotPanics(t, func() { m.ConnectBrowserWallet(context.Background()) })

			after := m.State()
			assert.Equal(t, before, after)
			assert.Same(t, def, after.Provider)

			notes := notifier.all()
			require.Len(t, notes, 1)
			assert.Equal(t, domain.NotificationError, notes[0].Level)
			assert.Equal(t, WalletMissingMessage, notes[0].Message)
			assert.Equal(t, 2*time.Second, notes[0].AutoDismiss)
		})
	}
}

func TestConnectBrowserWallet_EnabledButNotConnected(t *testing.T) {
	ext := &fakeExtension{handle: &fakeHandle{connected: false, account: fakeAccount{}}}
	m, notifier, _ := newTestManager(t, ext)

	m.ConnectBrowserWallet(context.Background())

	assert.Nil(t, m.State().Account)
	assert.Empty(t, notifier.all())
}

func TestSetConnected(t *testing.T) {
	wallet := &fakeProvider{name: "wallet"}
	acct := fakeAccount{addr: common.HexToAddress("0x123")}
	ext := &fakeExtension{handle: &fakeHandle{connected: true, account: acct, provider: wallet}}
	m, _, def := newTestManager(t, ext)
	ctx := context.Background()

	m.ConnectBrowserWallet(ctx)
	m.SetConnected(ctx, true)

	state := m.State()
	assert.True(t, state.Connected)
	assert.Equal(t, acct, state.Account)

	m.SetConnected(ctx, false)

	state = m.State()
	assert.False(t, state.Connected)
	assert.Nil(t, state.Account)
	assert.Same(t, def, state.Provider)
}

func TestSetConnected_FalsePublishesOnce(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeExtension{})
	updates, cancel := m.Subscribe()
	defer cancel()

	m.SetConnected(context.Background(), false)

	<-updates
	select {
	case <-updates:
		t.Fatal("disconnect must publish a single transition")
	default:
	}
}

func TestSetConnected_FalseClosesWallet(t *testing.T) {
	acct := fakeAccount{addr: common.HexToAddress("0x123")}
	ext := &fakeExtension{}
	m, _, def := newTestManager(t, ext)
	ctx := context.Background()

	var handles []*fakeHandle
	for i := 0; i < 3; i++ {
		h := &fakeHandle{connected: true, account: acct, provider: &fakeProvider{name: "wallet"}}
		handles = append(handles, h)
		ext.handle = h

		m.ConnectBrowserWallet(ctx)
		m.SetConnected(ctx, true)
		assert.Equal(t, 0, h.closed)

		m.SetConnected(ctx, false)
		assert.Same(t, def, m.State().Provider)
	}

	for _, h := range handles {
		assert.Equal(t, 1, h.closed)
	}
}

func TestConnectBrowserWallet_ReconnectClosesPrevious(t *testing.T) {
	acct := fakeAccount{addr: common.HexToAddress("0x123")}
	first := &fakeHandle{connected: true, account: acct, provider: &fakeProvider{name: "first"}}
	second := &fakeHandle{connected: true, account: acct, provider: &fakeProvider{name: "second"}}
	ext := &fakeExtension{handle: first}
	m, _, _ := newTestManager(t, ext)
	ctx := context.Background()

	m.ConnectBrowserWallet(ctx)
	ext.handle = second
	m.ConnectBrowserWallet(ctx)

	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 0, second.closed)
	assert.Same(t, second.provider, m.State().Provider)
}

func TestConnectBrowserWallet_FailedEnableClosesHandle(t *testing.T) {
	h := &fakeHandle{enableErr: errors.New("locked")}
	m, _, _ := newTestManager(t, &fakeExtension{handle: h})

	m.ConnectBrowserWallet(context.Background())

	assert.Equal(t, 1, h.closed)
}
