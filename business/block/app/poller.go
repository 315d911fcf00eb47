package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/whitelist-sync/business/block/domain"
	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
	"github.com/fd1az/whitelist-sync/internal/circuitbreaker"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/ratelimit"
	"github.com/fd1az/whitelist-sync/internal/scheduler"
	"github.com/fd1az/whitelist-sync/internal/store"
)

const (
	tracerName = "github.com/fd1az/whitelist-sync/business/block"
	meterName  = "github.com/fd1az/whitelist-sync/business/block"
)

// Config holds poller settings.
type Config struct {
	PollInterval time.Duration
	Breaker      circuitbreaker.Config
	Limiter      *ratelimit.Limiter // optional
}

// DefaultConfig returns the poller defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		Breaker:      circuitbreaker.DefaultConfig("block-poll"),
	}
}

type pollerMetrics struct {
	polls       metric.Int64Counter
	pollErrors  metric.Int64Counter
	blockNumber metric.Int64Gauge
}

// BlockStore is the store owned by the poller.
type BlockStore = store.Store[domain.BlockState, domain.BlockState]

// Poller fetches the latest block from the current provider on a fixed
// interval and publishes it.
type Poller struct {
	config Config
	source ConnectionSource
	logger logger.LoggerInterface
	state  *BlockStore
	task   scheduler.Task
	cb     *circuitbreaker.CircuitBreaker[*types.Header]
	now    func() time.Time

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	provider walletdomain.Provider

	// pubMu orders publishing against re-arming; epoch names the armed task
	pubMu sync.Mutex
	epoch uint64

	tracer  trace.Tracer
	metrics *pollerMetrics
}

// NewPoller creates a poller reading providers from source.
func NewPoller(cfg Config, source ConnectionSource, log logger.LoggerInterface) (*Poller, error) {
	if cfg.PollInterval <= 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("poll interval must be positive, got %s", cfg.PollInterval)))
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = circuitbreaker.DefaultConfig("block-poll")
	}

	p := &Poller{
		config: cfg,
		source: source,
		logger: log,
		state:  store.New[domain.BlockState, domain.BlockState](domain.Unknown, store.Replace[domain.BlockState]),
		cb:     circuitbreaker.New[*types.Header](cfg.Breaker),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return p, nil
}

func (p *Poller) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &pollerMetrics{}

	p.metrics.polls, err = meter.Int64Counter(
		"block_polls_total",
		metric.WithDescription("Total latest-block fetch attempts"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return err
	}

	p.metrics.pollErrors, err = meter.Int64Counter(
		"block_poll_errors_total",
		metric.WithDescription("Failed latest-block fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	p.metrics.blockNumber, err = meter.Int64Gauge(
		"block_number",
		metric.WithDescription("Latest observed block number"),
		metric.WithUnit("{block}"),
	)
	return err
}

// Start arms polling against the current provider and re-arms it whenever
// the provider changes. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	updates, unsubscribe := p.source.Subscribe()
	done := make(chan struct{})

	p.running = true
	p.cancel = cancel
	p.done = done

	p.armLocked(runCtx, p.source.State().Provider)
	go p.watch(runCtx, updates, unsubscribe, done)

	p.logger.Info(ctx, "block poller started", "interval", p.config.PollInterval)
	return nil
}

// Stop cancels polling and waits for the loop to exit. No fetch starts
// after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.mu.Unlock()

	p.bumpEpoch()
	cancel()
	<-done
	p.task.Stop()
}

// State returns the latest block snapshot.
func (p *Poller) State() domain.BlockState {
	return p.state.State()
}

// Subscribe returns a latest-wins feed of block snapshots.
func (p *Poller) Subscribe() (<-chan domain.BlockState, func()) {
	return p.state.Subscribe()
}

// Interval returns the configured poll interval.
func (p *Poller) Interval() time.Duration {
	return p.config.PollInterval
}

func (p *Poller) watch(ctx context.Context, updates <-chan walletdomain.ConnectionState, unsubscribe func(), done chan struct{}) {
	defer close(done)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case conn, ok := <-updates:
			if !ok {
				return
			}

			p.mu.Lock()
			if ctx.Err() == nil && conn.Provider != p.provider {
				p.logger.Debug(ctx, "provider changed, rearming block poll")
				p.armLocked(ctx, conn.Provider)
			}
			p.mu.Unlock()
		}
	}
}

func (p *Poller) armLocked(ctx context.Context, provider walletdomain.Provider) {
	p.provider = provider
	epoch := p.bumpEpoch()
	p.task.Reschedule(ctx, p.config.PollInterval, func(jobCtx context.Context) {
		p.poll(jobCtx, epoch, provider)
	})
}

func (p *Poller) bumpEpoch() uint64 {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	p.epoch++
	return p.epoch
}

// publish dispatches block unless the task that fetched it was re-armed or
// stopped meanwhile.
func (p *Poller) publish(ctx context.Context, epoch uint64, block domain.BlockState) bool {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	if p.epoch != epoch || ctx.Err() != nil {
		return false
	}
	p.state.Dispatch(block)
	return true
}

func (p *Poller) poll(ctx context.Context, epoch uint64, provider walletdomain.Provider) {
	ctx, span := p.tracer.Start(ctx, "block.poll")
	defer span.End()

	p.metrics.polls.Add(ctx, 1)

	if provider == nil {
		span.AddEvent("no_provider")
		return
	}

	header, err := p.cb.Execute(func() (*types.Header, error) {
		if err := p.config.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		h, err := provider.HeaderByNumber(ctx, nil) // nil = latest
		if err == nil && h == nil {
			err = errors.New("empty header")
		}
		return h, err
	})

	// cancelled while in flight: the result belongs to a stopped task
	if ctx.Err() != nil {
		span.AddEvent("stale_result_dropped")
		return
	}

	if err != nil {
		err = apperror.Wrap(err, apperror.CodeBlockFetchFailed, "latest block")
		span.RecordError(err)
		span.SetStatus(codes.Error, "poll failed")
		p.metrics.pollErrors.Add(ctx, 1)
		p.logger.Debug(ctx, "block poll failed", "error", err)
		return
	}

	block := domain.FromHeader(header, p.now())
	if !p.publish(ctx, epoch, block) {
		span.AddEvent("stale_result_dropped")
		return
	}

	p.metrics.blockNumber.Record(ctx, int64(block.Number))
	span.SetAttributes(attribute.Int64("block_number", int64(block.Number)))
	span.SetStatus(codes.Ok, "polled")
}
