package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	blockdomain "github.com/fd1az/whitelist-sync/business/block/domain"
	"github.com/fd1az/whitelist-sync/business/transactions/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/store"
)

const (
	tracerName = "github.com/fd1az/whitelist-sync/business/transactions"
	meterName  = "github.com/fd1az/whitelist-sync/business/transactions"
)

type trackerMetrics struct {
	added    metric.Int64Counter
	resolved metric.Int64Counter
	errors   metric.Int64Counter
}

// Tracker records submitted transactions and resolves them against receipts
// as new blocks arrive.
type Tracker struct {
	repo   Repository
	blocks BlockSource
	conn   ConnectionSource
	logger logger.LoggerInterface
	feed   *store.Store[[]domain.Transaction, []domain.Transaction]
	now    func() time.Time

	checkMu sync.Mutex // serializes receipt sweeps

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	tracer  trace.Tracer
	metrics *trackerMetrics
}

// NewTracker creates a tracker.
func NewTracker(repo Repository, blocks BlockSource, conn ConnectionSource, log logger.LoggerInterface) (*Tracker, error) {
	t := &Tracker{
		repo:   repo,
		blocks: blocks,
		conn:   conn,
		logger: log,
		feed:   store.New[[]domain.Transaction, []domain.Transaction](nil, store.Replace[[]domain.Transaction]),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}

	if err := t.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return t, nil
}

func (t *Tracker) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	t.metrics = &trackerMetrics{}

	t.metrics.added, err = meter.Int64Counter(
		"transactions_tracked_total",
		metric.WithDescription("Transactions handed to the tracker"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return err
	}

	t.metrics.resolved, err = meter.Int64Counter(
		"transactions_resolved_total",
		metric.WithDescription("Transactions resolved by receipt status"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return err
	}

	t.metrics.errors, err = meter.Int64Counter(
		"transaction_track_errors_total",
		metric.WithDescription("Receipt lookup or storage failures"),
		metric.WithUnit("{error}"),
	)
	return err
}

// AddTransaction starts tracking a submitted transaction as pending. Adding a
// hash that is already tracked is a no-op.
func (t *Tracker) AddTransaction(ctx context.Context, hash common.Hash, from common.Address) error {
	ctx, span := t.tracer.Start(ctx, "transactions.add",
		trace.WithAttributes(attribute.String("tx_hash", hash.Hex())),
	)
	defer span.End()

	if hash == (common.Hash{}) {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("empty transaction hash"))
	}

	now := t.now()
	created, err := t.repo.Insert(ctx, domain.Transaction{
		Hash:        hash,
		Address:     from,
		Status:      domain.StatusPending,
		SubmittedAt: now,
		UpdatedAt:   now,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		t.metrics.errors.Add(ctx, 1)
		return apperror.Wrap(err, apperror.CodeTransactionTrackFailed, "add "+hash.Hex())
	}

	if created {
		t.metrics.added.Add(ctx, 1)
		t.logger.Info(ctx, "tracking transaction", "hash", hash.Hex(), "from", from.Hex())
		t.publish(ctx)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Start resolves pending transactions on every new block until ctx is
// cancelled or Stop is called.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	blocks, unsubscribe := t.blocks.Subscribe()
	done := make(chan struct{})

	t.running = true
	t.cancel = cancel
	t.done = done

	t.publish(runCtx)
	go t.run(runCtx, blocks, unsubscribe, done)

	t.logger.Info(ctx, "transaction tracker started")
	return nil
}

// Stop halts block processing and waits for the loop to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel, done := t.cancel, t.done
	t.running = false
	t.mu.Unlock()

	cancel()
	<-done
}

func (t *Tracker) run(ctx context.Context, blocks <-chan blockdomain.BlockState, unsubscribe func(), done chan struct{}) {
	defer close(done)
	defer unsubscribe()

	var last common.Hash
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

			if err := t.CheckPending(ctx); err != nil {
				t.logger.Warn(ctx, "pending transaction sweep failed", "block", b.Number, "error", err)
			}
		}
	}
}

// CheckPending looks up receipts for every pending transaction on the
// current provider. Transactions without a receipt stay pending; lookup
// errors are logged and retried on the next block.
func (t *Tracker) CheckPending(ctx context.Context) error {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()

	ctx, span := t.tracer.Start(ctx, "transactions.check_pending")
	defer span.End()

	pending, err := t.repo.Pending(ctx)
	if err != nil {
		span.RecordError(err)
		t.metrics.errors.Add(ctx, 1)
		return apperror.Wrap(err, apperror.CodeTransactionTrackFailed, "load pending")
	}
	if len(pending) == 0 {
		return nil
	}

	provider := t.conn.State().Provider
	if provider == nil {
		return apperror.New(apperror.CodeTransactionTrackFailed, apperror.WithContext("no provider"))
	}

	changed := false
	for _, tx := range pending {
		receipt, err := provider.TransactionReceipt(ctx, tx.Hash)
		if errors.Is(err, ethereum.NotFound) {
			continue
		}
		if err != nil {
			t.metrics.errors.Add(ctx, 1)
			t.logger.Debug(ctx, "receipt lookup failed", "hash", tx.Hash.Hex(), "error", err)
			continue
		}

		resolved := tx.Resolve(receipt, t.now())
		if err := t.repo.Update(ctx, resolved); err != nil {
			t.metrics.errors.Add(ctx, 1)
			t.logger.Error(ctx, "failed to store transaction status", "hash", tx.Hash.Hex(), "error", err)
			continue
		}

		changed = true
		t.metrics.resolved.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(resolved.Status))))
		t.logger.Info(ctx, "transaction resolved",
			"hash", resolved.Hash.Hex(),
			"status", resolved.Status,
			"block", resolved.BlockNumber)
	}

	if changed {
		t.publish(ctx)
	}
	span.SetAttributes(attribute.Int("pending", len(pending)))
	return nil
}

// Transactions returns every tracked transaction, newest first.
func (t *Tracker) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := t.repo.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorageError, "list transactions")
	}
	return txs, nil
}

// Subscribe returns a latest-wins feed of the tracked transaction list.
func (t *Tracker) Subscribe() (<-chan []domain.Transaction, func()) {
	return t.feed.Subscribe()
}

func (t *Tracker) publish(ctx context.Context) {
	txs, err := t.repo.List(ctx)
	if err != nil {
		t.logger.Warn(ctx, "failed to refresh transaction feed", "error", err)
		return
	}
	t.feed.Dispatch(txs)
}
