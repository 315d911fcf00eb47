// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Ethereum      EthereumConfig      `mapstructure:"ethereum"`
	Wallet        WalletConfig        `mapstructure:"wallet"`
	Block         BlockConfig         `mapstructure:"block"`
	Whitelist     WhitelistConfig     `mapstructure:"whitelist"`
	Transactions  TransactionsConfig  `mapstructure:"transactions"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Health        HealthConfig        `mapstructure:"health"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
	TUIMode       bool                `mapstructure:"-"` // set at runtime
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds the default (public) provider settings.
type EthereumConfig struct {
	RPCURL            string `mapstructure:"rpc_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"` // 0 = unlimited
}

// WalletConfig holds the keystore-backed wallet settings.
type WalletConfig struct {
	KeystoreDir string `mapstructure:"keystore_dir"`
	Account     string `mapstructure:"account"` // optional, first keystore account if empty
	Passphrase  string `mapstructure:"passphrase"`
	RPCURL      string `mapstructure:"rpc_url"` // wallet provider, defaults to ethereum.rpc_url
}

// WalletRPCURL returns the endpoint the wallet provider dials.
func (c *Config) WalletRPCURL() string {
	if c.Wallet.RPCURL != "" {
		return c.Wallet.RPCURL
	}
	return c.Ethereum.RPCURL
}

// BlockConfig holds block poller settings.
type BlockConfig struct {
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

// PollInterval returns the poll period as a duration.
func (c *BlockConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// WhitelistConfig holds access controller settings.
type WhitelistConfig struct {
	AccessControllerAddress string `mapstructure:"access_controller_address"`
	ExplorerURL             string `mapstructure:"explorer_url"`
}

// AccessControllerHex returns the access controller address.
func (c *WhitelistConfig) AccessControllerHex() common.Address {
	return common.HexToAddress(c.AccessControllerAddress)
}

// TransactionsConfig holds tracker persistence settings.
type TransactionsConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// NotificationsConfig holds user notification settings.
type NotificationsConfig struct {
	ToastDuration time.Duration `mapstructure:"toast_duration"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	// TraceExporter is one of zipkin, otlp-grpc, otlp-http, stdout or none.
	TraceExporter string `mapstructure:"trace_exporter"`
	// OTLPMetrics also pushes metrics to OTLPEndpoint over gRPC.
	OTLPMetrics bool `mapstructure:"otlp_metrics"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("WL")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// no file, env + defaults only
	}

	// YAML reads an unquoted 0x literal that fits 64 bits as an integer
	for _, key := range []string{"whitelist.access_controller_address", "wallet.account"} {
		if addr, ok := numericAddress(v.Get(key)); ok {
			v.Set(key, addr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// numericAddress renders an integer config value back as a hex address.
func numericAddress(value any) (string, bool) {
	n := new(big.Int)
	switch x := value.(type) {
	case int:
		n.SetInt64(int64(x))
	case int64:
		n.SetInt64(x)
	case uint64:
		n.SetUint64(x)
	case uint:
		n.SetUint64(uint64(x))
	default:
		return "", false
	}
	if n.Sign() < 0 {
		return "", false
	}
	return common.BigToAddress(n).Hex(), true
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "WL_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "WL_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "WL_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("ethereum.rpc_url", "WL_RPC_URL", "ETH_RPC_URL")
	v.BindEnv("ethereum.requests_per_minute", "WL_RPC_RPM")

	v.BindEnv("wallet.keystore_dir", "WL_KEYSTORE_DIR")
	v.BindEnv("wallet.account", "WL_ACCOUNT")
	v.BindEnv("wallet.passphrase", "WL_PASSPHRASE")
	v.BindEnv("wallet.rpc_url", "WL_WALLET_RPC_URL")

	v.BindEnv("block.poll_interval_ms", "WL_POLL_INTERVAL_MS")

	v.BindEnv("whitelist.access_controller_address", "WL_ACCESS_CONTROLLER")
	v.BindEnv("whitelist.explorer_url", "WL_EXPLORER_URL")

	v.BindEnv("transactions.db_path", "WL_DB_PATH")
	v.BindEnv("notifications.toast_duration", "WL_TOAST_DURATION")
	v.BindEnv("health.port", "WL_HEALTH_PORT")

	v.BindEnv("telemetry.enabled", "WL_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "WL_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "WL_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.prometheus_port", "WL_PROMETHEUS_PORT")
	v.BindEnv("telemetry.trace_exporter", "WL_OTEL_TRACE_EXPORTER")
	v.BindEnv("telemetry.otlp_metrics", "WL_OTEL_OTLP_METRICS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "whitelist-sync")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("ethereum.requests_per_minute", 600)

	v.SetDefault("wallet.keystore_dir", "./keystore")

	v.SetDefault("block.poll_interval_ms", 5000)

	v.SetDefault("whitelist.explorer_url", "https://etherscan.io")

	v.SetDefault("transactions.db_path", "whitelist.db")
	v.SetDefault("notifications.toast_duration", "2s")
	v.SetDefault("health.port", 8081)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "whitelist-sync")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.trace_exporter", "zipkin")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.RPCURL == "" {
		return fmt.Errorf("ethereum.rpc_url is required")
	}
	if !common.IsHexAddress(c.Whitelist.AccessControllerAddress) {
		return fmt.Errorf("invalid whitelist.access_controller_address: %q", c.Whitelist.AccessControllerAddress)
	}
	if c.Wallet.Account != "" && !common.IsHexAddress(c.Wallet.Account) {
		return fmt.Errorf("invalid wallet.account: %q", c.Wallet.Account)
	}
	if c.Block.PollIntervalMs <= 0 {
		return fmt.Errorf("block.poll_interval_ms must be positive, got %d", c.Block.PollIntervalMs)
	}
	return nil
}
