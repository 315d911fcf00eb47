// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/whitelist-sync/internal/config"
	"github.com/fd1az/whitelist-sync/internal/di"
	"github.com/fd1az/whitelist-sync/internal/logger"
	"github.com/fd1az/whitelist-sync/internal/ratelimit"
	"github.com/fd1az/whitelist-sync/internal/rpcclient"
)

// Service names registered by New.
const (
	ConfigService          = "config"
	LoggerService          = "logger"
	DefaultProviderService = "defaultProvider"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	DefaultProvider() rpcclient.Provider
	Services() di.ServiceRegistry
}

// App is the Monolith plus the lifecycle used by the entry point.
type App interface {
	Monolith
	Container() di.Container
	RegisterModules(modules ...Module) error
	StartModules(ctx context.Context, modules ...Module) error
	Close() error
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config          *config.Config
	logger          logger.LoggerInterface
	client          *ethclient.Client
	defaultProvider rpcclient.Provider
	container       di.Container
}

var _ App = (*app)(nil)

// New dials the default (public) provider and registers the shared services.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	client, err := rpcclient.Dial(ctx, cfg.Ethereum.RPCURL, "default")
	if err != nil {
		return nil, err
	}

	provider := rpcclient.NewLimited(client, ratelimit.New(cfg.Ethereum.RequestsPerMinute))

	a := newApp(cfg, log, provider)
	a.client = client
	return a, nil
}

// NewWithProvider builds the container around an existing provider.
func NewWithProvider(cfg *config.Config, log logger.LoggerInterface, provider rpcclient.Provider) *app {
	return newApp(cfg, log, provider)
}

func newApp(cfg *config.Config, log logger.LoggerInterface, provider rpcclient.Provider) *app {
	container := di.NewContainer()
	container.Register(ConfigService, cfg)
	container.Register(LoggerService, log)
	container.Register(DefaultProviderService, provider)

	return &app{
		config:          cfg,
		logger:          log,
		defaultProvider: provider,
		container:       container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) DefaultProvider() rpcclient.Provider {
	return a.defaultProvider
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the default provider connection.
func (a *app) Close() error {
	if a.client != nil {
		a.client.Close()
	}
	return nil
}
