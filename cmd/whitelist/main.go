// Package main is the entry point for the whitelist registration dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/whitelist-sync/business/block"
	blockDI "github.com/fd1az/whitelist-sync/business/block/di"
	"github.com/fd1az/whitelist-sync/business/transactions"
	txDI "github.com/fd1az/whitelist-sync/business/transactions/di"
	"github.com/fd1az/whitelist-sync/business/wallet"
	walletDI "github.com/fd1az/whitelist-sync/business/wallet/di"
	"github.com/fd1az/whitelist-sync/business/whitelist"
	whitelistDI "github.com/fd1az/whitelist-sync/business/whitelist/di"
	whitelistInfra "github.com/fd1az/whitelist-sync/business/whitelist/infra"
	"github.com/fd1az/whitelist-sync/internal/apm"
	"github.com/fd1az/whitelist-sync/internal/config"
	"github.com/fd1az/whitelist-sync/internal/health"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/metrics"
	"github.com/fd1az/whitelist-sync/internal/monolith"
	"github.com/fd1az/whitelist-sync/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// staleBlockIntervals is how many poll intervals may pass without a new
// block before the rpc check fails.
const staleBlockIntervals = 3

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("whitelist-sync %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.TUIMode = tuiMode

	// In TUI mode, suppress logs (discard output)
	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceID)
	log.Info(ctx, "starting whitelist-sync",
		"version", version,
		"environment", cfg.App.Environment,
	)

	stopTelemetry, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// TUI mode routes reports and toasts to the program attached below.
	relay := ui.NewRelay()
	walletModule := &wallet.Module{}
	whitelistModule := &whitelist.Module{}
	if tuiMode {
		walletModule.Notifier = ui.NewToastNotifier(relay)
		whitelistModule.Reporter = whitelistInfra.NewTUIReporter(relay)
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		walletModule,           // connection manager
		&block.Module{},        // polls through the wallet's provider
		&transactions.Module{}, // resolves receipts on new blocks
		whitelistModule,        // flow + dashboard
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	healthServer := newHealthServer(cfg, mono, log)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
	}
	defer healthServer.Stop(context.Background())

	defer shutdown(mono, log)

	if tuiMode {
		return runTUI(ctx, cfg, mono, modules, relay)
	}
	return runCLI(ctx, mono, modules, log)
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	traceProvider, err := apm.NewTraceProvider(cfg.Telemetry.ServiceName,
		apm.WithProvider(apm.Provider(cfg.Telemetry.TraceExporter), cfg.Telemetry.OTLPEndpoint, log))
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceExporter, "endpoint", cfg.Telemetry.OTLPEndpoint)

	opts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if cfg.Telemetry.OTLPMetrics && cfg.Telemetry.OTLPEndpoint != "" {
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(cfg.Telemetry.OTLPEndpoint, nil, true)))
	}
	meterProvider, err := metrics.NewMetricProvider(opts...)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	promServer := metrics.NewPrometheusServer(metrics.WithPort(cfg.Telemetry.PrometheusPort))
	if err := promServer.Start(); err != nil {
		log.Warn(ctx, "failed to start prometheus server", "error", err)
	} else {
		log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		promServer.Stop(stopCtx)
		meterProvider.Shutdown(stopCtx)
		traceProvider.Stop()
	}, nil
}

func newHealthServer(cfg *config.Config, mono monolith.Monolith, log *logger.Logger) *health.Server {
	server := health.NewServer(cfg.Health.Port, version, log)

	poller := blockDI.GetPoller(mono.Services())
	server.RegisterCheck("rpc", health.Staleness(
		func() time.Time { return poller.State().ObservedAt },
		staleBlockIntervals*poller.Interval(),
	))

	manager := walletDI.GetManager(mono.Services())
	server.RegisterCheck("wallet", func(context.Context) (bool, string) {
		state := manager.State()
		addr, ok := state.Address()
		if !state.Connected || !ok {
			return true, "not connected"
		}
		return true, "connected " + addr.Hex()
	})

	return server
}

func runCLI(ctx context.Context, mono monolith.App, modules []monolith.Module, log *logger.Logger) error {
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	// CLI mode connects once on startup; the TUI waits for a key press.
	dashboard := whitelistDI.GetDashboard(mono.Services())
	if err := dashboard.Connect(ctx); err != nil {
		log.Warn(ctx, "wallet not connected", "error", err)
	}

	log.Info(ctx, "all modules started")

	<-ctx.Done()

	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, cfg *config.Config, mono monolith.App, modules []monolith.Module, relay *ui.Relay) error {
	dashboard := whitelistDI.GetDashboard(mono.Services())

	model := ui.New(ctx, dashboard, ui.Options{
		Controller:  cfg.Whitelist.AccessControllerHex().Hex(),
		ExplorerURL: cfg.Whitelist.ExplorerURL,
		Version:     version,
	})
	p := ui.NewProgram(model)
	relay.Attach(p)

	// Start modules in background so the TUI shows immediately
	errCh := make(chan error, 1)
	go func() {
		if err := mono.StartModules(ctx, modules...); err != nil {
			err = fmt.Errorf("failed to start modules: %w", err)
			p.Quit()
			errCh <- err
			return
		}
		<-ctx.Done()
		p.Quit()
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// shutdown stops the long-running components in reverse start order.
func shutdown(mono monolith.Monolith, log *logger.Logger) {
	ctx := context.Background()
	services := mono.Services()

	if err := whitelistDI.GetDashboard(services).Stop(); err != nil {
		log.Error(ctx, "error stopping dashboard", "error", err)
	}
	txDI.GetTracker(services).Stop()
	blockDI.GetPoller(services).Stop()
	walletDI.GetManager(services).SetConnected(ctx, false)

	if closer, ok := txDI.GetRepository(services).(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error(ctx, "error closing transactions db", "error", err)
		}
	}
}
