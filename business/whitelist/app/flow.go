package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/business/whitelist/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/store"
)

const (
	tracerName = "github.com/fd1az/whitelist-sync/business/whitelist"
	meterName  = "github.com/fd1az/whitelist-sync/business/whitelist"

	defaultToastDuration = 2 * time.Second
)

var allowedFlag = big.NewInt(1)

// FlowConfig holds registration flow settings.
type FlowConfig struct {
	ToastDuration time.Duration
}

type flowMetrics struct {
	operations metric.Int64Counter
	failures   metric.Int64Counter
	freeSlots  metric.Int64Gauge
}

// UIStore is the store owned by the flow.
type UIStore = store.Store[domain.UIState, domain.UIState]

// Flow runs the whitelist reads and the registration write against the
// access controller and keeps the UI flags in sync. One flow serves one
// hosting scope, delimited by Mount and Unmount.
type Flow struct {
	controller AccessController
	tracker    TransactionTracker
	conn       ConnectionSource
	blocks     BlockSource
	notifier   Notifier
	config     FlowConfig
	logger     logger.LoggerInterface
	state      *UIStore
	now        func() time.Time

	mu       sync.Mutex
	mounted  bool
	epoch    uint64 // bumped on every mount; completions from older epochs are dropped
	inFlight int
	ui       domain.UIState
	cancel   context.CancelFunc
	done     chan struct{}

	tracer  trace.Tracer
	metrics *flowMetrics
}

// NewFlow creates an unmounted flow.
func NewFlow(
	controller AccessController,
	tracker TransactionTracker,
	conn ConnectionSource,
	blocks BlockSource,
	notifier Notifier,
	cfg FlowConfig,
	log logger.LoggerInterface,
) (*Flow, error) {
	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = defaultToastDuration
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	f := &Flow{
		controller: controller,
		tracker:    tracker,
		conn:       conn,
		blocks:     blocks,
		notifier:   notifier,
		config:     cfg,
		logger:     log,
		ui:         domain.NewUIState(),
		state:      store.New[domain.UIState, domain.UIState](domain.NewUIState(), store.Replace[domain.UIState]),
		now:        time.Now,
		tracer:     otel.Tracer(tracerName),
	}

	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return f, nil
}

func (f *Flow) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	f.metrics = &flowMetrics{}

	f.metrics.operations, err = meter.Int64Counter(
		"whitelist_operations_total",
		metric.WithDescription("Access controller operations by name"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return err
	}

	f.metrics.failures, err = meter.Int64Counter(
		"whitelist_operation_errors_total",
		metric.WithDescription("Failed access controller operations by name"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	f.metrics.freeSlots, err = meter.Int64Gauge(
		"whitelist_free_slots",
		metric.WithDescription("Last fetched free whitelist slots"),
		metric.WithUnit("{slot}"),
	)
	return err
}

// Mount starts a hosting scope: the state is reset, the free-slot count is
// fetched once and then again on every new block.
func (f *Flow) Mount(ctx context.Context) {
	f.mu.Lock()
	if f.mounted {
		f.mu.Unlock()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	f.mounted = true
	f.epoch++
	f.inFlight = 0
	f.ui = domain.NewUIState()
	f.cancel = cancel
	f.done = done
	f.state.Dispatch(f.ui)

	blocks, unsubscribe := f.blocks.Subscribe()
	f.mu.Unlock()

	go f.watchBlocks(runCtx, blocks, unsubscribe, done)
}

// Unmount ends the hosting scope. Operations still in flight complete
// without touching the state.
func (f *Flow) Unmount() {
	f.mu.Lock()
	if !f.mounted {
		f.mu.Unlock()
		return
	}
	f.mounted = false
	cancel, done := f.cancel, f.done
	f.mu.Unlock()

	cancel()
	<-done
}

// Mounted reports whether a hosting scope is active.
func (f *Flow) Mounted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mounted
}

// State returns the current UI snapshot.
func (f *Flow) State() domain.UIState {
	return f.state.State()
}

// Subscribe returns a latest-wins feed of UI snapshots.
func (f *Flow) Subscribe() (<-chan domain.UIState, func()) {
	return f.state.Subscribe()
}

func (f *Flow) watchBlocks(ctx context.Context, blocks <-chan blockdomain.BlockState, unsubscribe func(), done chan struct{}) {
	defer close(done)
	defer unsubscribe()

	last := f.blocks.State().Hash
	f.refreshFreeSlots(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-blocks:
			if !ok {
				return
			}
			if !b.IsKnown() || b.Hash == last {
				continue
			}
			last = b.Hash
			f.refreshFreeSlots(ctx)
		}
	}
}

func (f *Flow) refreshFreeSlots(ctx context.Context) {
	if err := f.GetFreeSlotsCount(ctx); err != nil {
		f.logger.Debug(ctx, "free slots refresh failed", "error", err)
	}
}

// CheckWhitelisted asks the access controller whether addr is allowed. A
// result of 1 marks the flow whitelisted. A result of 0 leaves the flag as
// it is: the flag never goes back to false within a scope.
func (f *Flow) CheckWhitelisted(ctx context.Context, addr common.Address) error {
	ctx, span := f.tracer.Start(ctx, "whitelist.check",
		trace.WithAttributes(attribute.String("address", addr.Hex())),
	)
	defer span.End()

	return f.run(ctx, span, domain.OpCheckWhitelisted, func(ctx context.Context) (func(*domain.UIState), error) {
		allowed, err := f.controller.IsAllowed(ctx, addr)
		if err != nil {
			return nil, apperror.New(apperror.CodeWhitelistReadFailed,
				apperror.WithCause(err),
				apperror.WithContext("isAllowed "+addr.Hex()))
		}

		whitelisted := allowed != nil && allowed.Cmp(allowedFlag) == 0
		span.SetAttributes(attribute.Bool("allowed", whitelisted))

		// TODO: reset on 0 if the controller ever supports removing an address.
		return func(s *domain.UIState) {
			if whitelisted {
				s.IsWhitelisted = true
			}
		}, nil
	})
}

// GetFreeSlotsCount replaces the free-slot count with the controller's
// current value.
func (f *Flow) GetFreeSlotsCount(ctx context.Context) error {
	ctx, span := f.tracer.Start(ctx, "whitelist.free_slots")
	defer span.End()

	return f.run(ctx, span, domain.OpFreeSlots, func(ctx context.Context) (func(*domain.UIState), error) {
		count, err := f.controller.FreeSlotsCount(ctx)
		if err != nil {
			return nil, apperror.New(apperror.CodeWhitelistReadFailed,
				apperror.WithCause(err),
				apperror.WithContext("freeSlotsCount"))
		}
		if count == nil || !count.IsInt64() || count.Sign() < 0 {
			return nil, apperror.New(apperror.CodeWhitelistReadFailed,
				apperror.WithContext(fmt.Sprintf("freeSlotsCount out of range: %v", count)))
		}

		slots := count.Int64()
		f.metrics.freeSlots.Record(ctx, slots)
		span.SetAttributes(attribute.Int64("free_slots", slots))

		return func(s *domain.UIState) {
			s.FreeSlots = slots
		}, nil
	})
}

// RegisterToWhitelist submits register() for the connected account and hands
// the transaction to the tracker without waiting for it to be mined.
// Failures are logged, shown as a notification, recorded in LastError and
// returned.
func (f *Flow) RegisterToWhitelist(ctx context.Context) (common.Hash, error) {
	ctx, span := f.tracer.Start(ctx, "whitelist.register")
	defer span.End()

	var hash common.Hash
	err := f.run(ctx, span, domain.OpRegister, func(ctx context.Context) (func(*domain.UIState), error) {
		account := f.conn.State().Account
		if account == nil {
			return nil, apperror.New(apperror.CodeWalletNotConnected, apperror.WithContext("register"))
		}

		txHash, err := f.controller.Register(ctx, account)
		if err != nil {
			return nil, apperror.New(apperror.CodeRegistrationFailed,
				apperror.WithCause(err),
				apperror.WithContext("register "+account.Address().Hex()))
		}
		hash = txHash

		from := account.Address()
		if err := f.tracker.AddTransaction(ctx, txHash, from); err != nil {
			f.logger.Warn(ctx, "failed to hand registration to tracker", "hash", txHash.Hex(), "error", err)
		}

		f.logger.Info(ctx, "registration submitted", "hash", txHash.Hex(), "from", from.Hex())
		span.SetAttributes(attribute.String("tx_hash", txHash.Hex()))

		return func(s *domain.UIState) {
			s.LastTx = txHash
		}, nil
	})

	if err != nil {
		f.logger.Error(ctx, "registration failed", "error", err)
		f.notifier.Notify(ctx, walletdomain.Notification{
			Level:       walletdomain.NotificationError,
			Message:     registrationFailureMessage(err),
			AutoDismiss: f.config.ToastDuration,
		})
		return common.Hash{}, err
	}

	f.notifier.Notify(ctx, walletdomain.Notification{
		Level:       walletdomain.NotificationSuccess,
		Message:     "registration submitted " + hash.Hex()[:10],
		AutoDismiss: f.config.ToastDuration,
	})
	return hash, nil
}

func registrationFailureMessage(err error) string {
	if apperror.HasCode(err, apperror.CodeWalletNotConnected) {
		return "connect a wallet first"
	}
	return "registration failed"
}

// run brackets call with the loading flag. The flag is cleared whatever
// happens to call, and results are applied only if the scope that started
// the operation is still mounted.
func (f *Flow) run(ctx context.Context, span trace.Span, op domain.Operation, call func(ctx context.Context) (func(*domain.UIState), error)) (err error) {
	epoch, ok := f.begin()
	if !ok {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext(string(op)+": flow not mounted"))
	}

	f.metrics.operations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(op))))

	var apply func(*domain.UIState)
	defer func() {
		if r := recover(); r != nil {
			apply = nil
			err = apperror.New(apperror.CodeInternalError, apperror.WithContext(fmt.Sprintf("%s panicked: %v", op, r)))
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(op)+" failed")
			f.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(op))))
		} else {
			span.SetStatus(codes.Ok, "")
		}

		f.end(epoch, op, apply, err)
	}()

	apply, err = call(ctx)
	return err
}

func (f *Flow) begin() (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.mounted {
		return 0, false
	}

	f.inFlight++
	if !f.ui.IsLoading {
		f.ui.IsLoading = true
		f.state.Dispatch(f.ui)
	}
	return f.epoch, true
}

func (f *Flow) end(epoch uint64, op domain.Operation, apply func(*domain.UIState), err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.mounted || epoch != f.epoch {
		return
	}

	if err != nil {
		f.ui.LastError = &domain.OpError{Op: op, Err: err, At: f.now()}
	} else {
		if f.ui.LastError != nil && f.ui.LastError.Op == op {
			f.ui.LastError = nil
		}
		if apply != nil {
			apply(&f.ui)
		}
	}

	f.inFlight--
	f.ui.IsLoading = f.inFlight > 0
	f.state.Dispatch(f.ui)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, walletdomain.Notification) {}
