package configloader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                  string   `yaml:"port"`
	ReadTimeout           int      `yaml:"readTimeout"`
	WriteTimeout          int      `yaml:"writeTimeout"`
	IdleTimeout           int      `yaml:"idleTimeout"`
	RequestTimeoutSeconds int      `yaml:"requestTimeoutSeconds"`
	CORSAllowOrigins      []string `yaml:"corsAllowOrigins"`
	EnablePprof           bool     `yaml:"enablePprof"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	Development bool   `yaml:"development"`
}

// ScanConfig holds request defaults and hard limits for scans.
type ScanConfig struct {
	DefaultNetwork       string  `yaml:"defaultNetwork"`
	DefaultLookbackDays  float64 `yaml:"defaultLookbackDays"`
	MaxLookbackDays      float64 `yaml:"maxLookbackDays"`
	DefaultMinAmount     string  `yaml:"defaultMinAmount"`
	DefaultMaxDepth      *uint   `yaml:"defaultMaxDepth"` // nil = 2; 0 scans only the roots' transfers
	MaxDepthLimit        uint    `yaml:"maxDepthLimit"`
	DefaultTokenDecimals uint8   `yaml:"defaultTokenDecimals"`
	MaxRootAddresses     int     `yaml:"maxRootAddresses"`
	// Chunking of eth_getLogs requests. 0 disables the corresponding split.
	MaxBlockSpan       uint64 `yaml:"maxBlockSpan"`
	MaxSendersPerQuery int    `yaml:"maxSendersPerQuery"`
}

// MinAmount returns DefaultMinAmount as a decimal. The loader has already validated it.
func (c ScanConfig) MinAmount() decimal.Decimal {
	d, err := decimal.NewFromString(c.DefaultMinAmount)
	if err != nil {
		return decimal.NewFromInt(100)
	}
	return d
}

// MaxDepth returns DefaultMaxDepth, or 2 when it is not set.
func (c ScanConfig) MaxDepth() uint {
	if c.DefaultMaxDepth == nil {
		return 2
	}
	return *c.DefaultMaxDepth
}

// RpcClientConfig holds configuration for RPC clients.
type RpcClientConfig struct {
	ConnectionTimeoutMs int64   `yaml:"connectionTimeoutMs"`
	CallTimeoutMs       int64   `yaml:"callTimeoutMs"`
	RateLimit           float64 `yaml:"rateLimit"` // requests per second per endpoint, 0 = unlimited
	BurstLimit          int     `yaml:"burstLimit"`
	// CustomClientTTLMs is how long a client for a caller-supplied rpc_url stays cached after its last use.
	CustomClientTTLMs int64 `yaml:"customClientTtlMs"`
}

// NetworkOverride replaces fields of a built-in network definition. Empty fields keep the built-in value.
type NetworkOverride struct {
	Identifier                string   `yaml:"identifier"`
	RPCURL                    string   `yaml:"rpcURL"`
	FallbackRPCURLs           []string `yaml:"fallbackRpcURLs"`
	AMMFactoryAddress         string   `yaml:"ammFactoryAddress"`
	WrappedNativeTokenAddress string   `yaml:"wrappedNativeTokenAddress"`
	BlocksPerDay              uint64   `yaml:"blocksPerDay"`
	DEXScreenerChainID        string   `yaml:"dexScreenerChainId"`
}

// DEXScreenerConfig holds DEXScreener API specific configurations.
type DEXScreenerConfig struct {
	Enabled              bool   `yaml:"enabled"`
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// TokenPriceServiceConfig holds configuration for the TokenPriceService.
type TokenPriceServiceConfig struct {
	CacheTTLMinutes int `yaml:"cacheTTLMinutes"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server        ServerConfig            `yaml:"server"`
	Logging       LoggingConfig           `yaml:"logging"`
	Scan          ScanConfig              `yaml:"scan"`
	RpcClient     RpcClientConfig         `yaml:"rpcClient"`
	Networks      []NetworkOverride       `yaml:"networks"`
	DEXScreener   DEXScreenerConfig       `yaml:"dexScreener"`
	TokenPriceSvc TokenPriceServiceConfig `yaml:"tokenPriceService"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
// An empty path yields the built-in defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		logrus.Infof("Loading configuration from path: %s", path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	} else {
		logrus.Info("No configuration file given, using defaults")
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DEFAULT_NETWORK"); v != "" {
		cfg.Scan.DefaultNetwork = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 120
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Server.RequestTimeoutSeconds <= 0 {
		cfg.Server.RequestTimeoutSeconds = 60
		logrus.Infof("Server.RequestTimeoutSeconds not set, defaulting to %d", cfg.Server.RequestTimeoutSeconds)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Scan.DefaultNetwork == "" {
		cfg.Scan.DefaultNetwork = "bsc"
	}
	if cfg.Scan.DefaultLookbackDays <= 0 {
		cfg.Scan.DefaultLookbackDays = 3
	}
	if cfg.Scan.MaxLookbackDays <= 0 {
		cfg.Scan.MaxLookbackDays = 30
	}
	if cfg.Scan.DefaultMinAmount == "" {
		cfg.Scan.DefaultMinAmount = "100"
	}
	if cfg.Scan.DefaultMaxDepth == nil {
		depth := cfg.Scan.MaxDepth()
		cfg.Scan.DefaultMaxDepth = &depth
	}
	if cfg.Scan.MaxDepthLimit == 0 {
		cfg.Scan.MaxDepthLimit = 5
		logrus.Infof("Scan.MaxDepthLimit not set, defaulting to %d", cfg.Scan.MaxDepthLimit)
	}
	if cfg.Scan.DefaultTokenDecimals == 0 {
		cfg.Scan.DefaultTokenDecimals = 18
	}
	if cfg.Scan.MaxRootAddresses <= 0 {
		cfg.Scan.MaxRootAddresses = 50
	}

	if cfg.RpcClient.ConnectionTimeoutMs <= 0 {
		cfg.RpcClient.ConnectionTimeoutMs = 10000
	}
	if cfg.RpcClient.CallTimeoutMs <= 0 {
		cfg.RpcClient.CallTimeoutMs = 20000
	}
	if cfg.RpcClient.BurstLimit <= 0 {
		cfg.RpcClient.BurstLimit = 1
	}
	if cfg.RpcClient.CustomClientTTLMs <= 0 {
		cfg.RpcClient.CustomClientTTLMs = 600000
	}

	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
	}
	if cfg.DEXScreener.RequestTimeoutMillis <= 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 10000
	}
	if cfg.TokenPriceSvc.CacheTTLMinutes <= 0 {
		cfg.TokenPriceSvc.CacheTTLMinutes = 60
	}
}

func validate(cfg *Config) error {
	var errs []error

	minAmount, err := decimal.NewFromString(cfg.Scan.DefaultMinAmount)
	if err != nil {
		errs = append(errs, fmt.Errorf("scan.defaultMinAmount %q is not a number: %w", cfg.Scan.DefaultMinAmount, err))
	} else if minAmount.IsNegative() {
		errs = append(errs, fmt.Errorf("scan.defaultMinAmount must not be negative"))
	}
	if cfg.Scan.MaxDepth() > cfg.Scan.MaxDepthLimit {
		errs = append(errs, fmt.Errorf("scan.defaultMaxDepth %d exceeds scan.maxDepthLimit %d", cfg.Scan.MaxDepth(), cfg.Scan.MaxDepthLimit))
	}
	if cfg.Scan.DefaultLookbackDays > cfg.Scan.MaxLookbackDays {
		errs = append(errs, fmt.Errorf("scan.defaultLookbackDays %.2f exceeds scan.maxLookbackDays %.2f", cfg.Scan.DefaultLookbackDays, cfg.Scan.MaxLookbackDays))
	}
	if cfg.RpcClient.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rpcClient.rateLimit must not be negative"))
	}

	seen := make(map[string]struct{})
	for i, n := range cfg.Networks {
		id := strings.ToLower(strings.TrimSpace(n.Identifier))
		if id == "" {
			errs = append(errs, fmt.Errorf("networks[%d]: identifier is required", i))
			continue
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("networks[%d]: duplicate identifier %q", i, id))
		}
		seen[id] = struct{}{}
		cfg.Networks[i].Identifier = id
	}

	return errors.Join(errs...)
}
