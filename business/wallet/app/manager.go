package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/store"
)

const (
	tracerName = "github.com/fd1az/whitelist-sync/business/wallet"
	meterName  = "github.com/fd1az/whitelist-sync/business/wallet"

	// WalletMissingMessage is shown when no wallet could be connected.
	WalletMissingMessage = "wallet extension missing"

	defaultToastDuration = 2 * time.Second
)

// ManagerConfig holds connection manager settings.
type ManagerConfig struct {
	ToastDuration time.Duration
}

// ConnectionStore is the store owned by the manager.
type ConnectionStore = store.Store[domain.ConnectionState, domain.Action]

// Manager owns the wallet connection state.
type Manager struct {
	ext             Extension
	notifier        Notifier
	defaultProvider domain.Provider
	config          ManagerConfig
	logger          logger.LoggerInterface
	state           *ConnectionStore

	mu     sync.Mutex
	handle Handle // wallet behind the current provider, nil when on the default

	tracer   trace.Tracer
	attempts metric.Int64Counter
}

// NewManager creates a manager whose state starts disconnected on defaultProvider.
func NewManager(ext Extension, notifier Notifier, defaultProvider domain.Provider, cfg ManagerConfig, log logger.LoggerInterface) (*Manager, error) {
	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = defaultToastDuration
	}
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, domain.Notification) {})
	}

	attempts, err := otel.Meter(meterName).Int64Counter(
		"wallet_connect_attempts_total",
		metric.WithDescription("Wallet connection attempts by result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &Manager{
		ext:             ext,
		notifier:        notifier,
		defaultProvider: defaultProvider,
		config:          cfg,
		logger:          log,
		state:           store.New[domain.ConnectionState, domain.Action](domain.NewConnectionState(defaultProvider), domain.Reduce),
		tracer:          otel.Tracer(tracerName),
		attempts:        attempts,
	}, nil
}

// ConnectBrowserWallet connects the wallet extension and, when it reports
// connected, publishes its account and provider. Failures never escape: the
// user gets a self-dismissing notification and the state is left untouched.
func (m *Manager) ConnectBrowserWallet(ctx context.Context) {
	ctx, span := m.tracer.Start(ctx, "wallet.connect")
	defer span.End()

	if err := m.connect(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "wallet unavailable")
		m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failed")))

		m.logger.Warn(ctx, "wallet connection failed", "error", err)
		m.notifier.Notify(ctx, domain.Notification{
			Level:       domain.NotificationError,
			Message:     WalletMissingMessage,
			AutoDismiss: m.config.ToastDuration,
		})
		return
	}

	span.SetStatus(codes.Ok, "")
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
}

func (m *Manager) connect(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperror.New(apperror.CodeWalletUnavailable,
				apperror.WithContext(fmt.Sprintf("extension panic: %v", r)))
		}
	}()

	if m.ext == nil {
		return apperror.New(apperror.CodeWalletUnavailable, apperror.WithContext("no extension"))
	}

	handle, err := m.ext.Connect(ctx)
	if err != nil {
		return apperror.New(apperror.CodeWalletUnavailable, apperror.WithCause(err), apperror.WithContext("connect"))
	}
	if handle == nil {
		return apperror.New(apperror.CodeWalletUnavailable, apperror.WithContext("no wallet selected"))
	}

	if err := handle.Enable(ctx); err != nil {
		m.release(ctx, handle)
		return apperror.New(apperror.CodeWalletUnavailable, apperror.WithCause(err), apperror.WithContext("enable"))
	}

	if !handle.IsConnected() {
		m.logger.Debug(ctx, "wallet enabled but not connected")
		m.release(ctx, handle)
		return nil
	}

	m.mu.Lock()
	previous := m.handle
	m.handle = handle
	next := m.state.Dispatch(
		domain.SetAccount{Account: handle.Account()},
		domain.SetProvider{Provider: handle.Provider()},
	)
	m.mu.Unlock()

	if previous != nil && previous != handle {
		m.release(ctx, previous)
	}

	if addr, ok := next.Address(); ok {
		m.logger.Info(ctx, "wallet account selected", "address", addr.Hex())
	}
	return nil
}

// SetConnected sets the connected flag. Disconnecting also clears the account
// and restores the default provider in the same transition.
func (m *Manager) SetConnected(ctx context.Context, connected bool) {
	if connected {
		m.state.Dispatch(domain.SetConnected{Connected: true})
		m.logger.Info(ctx, "wallet connected")
		return
	}

	m.mu.Lock()
	previous := m.handle
	m.handle = nil
	m.state.Dispatch(
		domain.SetConnected{Connected: false},
		domain.SetAccount{Account: nil},
		domain.SetProvider{Provider: m.defaultProvider},
	)
	m.mu.Unlock()

	if previous != nil {
		m.release(ctx, previous)
	}
	m.logger.Info(ctx, "wallet disconnected")
}

func (m *Manager) release(ctx context.Context, handle Handle) {
	if err := handle.Close(); err != nil {
		m.logger.Warn(ctx, "failed to close wallet", "error", err)
	}
}

// State returns the current connection snapshot.
func (m *Manager) State() domain.ConnectionState {
	return m.state.State()
}

// Subscribe returns a latest-wins feed of connection snapshots.
func (m *Manager) Subscribe() (<-chan domain.ConnectionState, func()) {
	return m.state.Subscribe()
}

// Default returns the default provider.
func (m *Manager) Default() domain.Provider {
	return m.defaultProvider
}
