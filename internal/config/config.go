package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// OKX API
	OKXAPIKey     string `mapstructure:"okx_api_key"`
	OKXSecretKey  string `mapstructure:"okx_secret_key"`
	OKXPassphrase string `mapstructure:"okx_passphrase"`
	OKXBaseURL    string `mapstructure:"okx_base_url"`
	OKXWSURL      string `mapstructure:"okx_ws_url"`

	// Persistence and notifications
	DatabaseURL string `mapstructure:"database_url"`
	WebhookURL  string `mapstructure:"webhook_url"`

	// Engine
	HistorySize int `mapstructure:"history_size"`

	// Risk
	MaxOrderUSD float64 `mapstructure:"max_order_usd"`

	// Performance
	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
	WSReconnectDelay time.Duration `mapstructure:"ws_reconnect_delay"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`

	// Strategies launched by the run command
	Strategies []StrategyLaunch `mapstructure:"strategies"`
}

// StrategyLaunch describes one strategy instance to start on boot
type StrategyLaunch struct {
	Strategy  string  `mapstructure:"strategy"`
	Symbol    string  `mapstructure:"symbol"`
	Interval  string  `mapstructure:"interval"`
	Amount    float64 `mapstructure:"amount"`
	AutoStart bool    `mapstructure:"auto_start"`
}

// Load reads configuration from an optional okx-trading.yaml file and the
// environment. Environment variables use the upper-snake form of the keys,
// e.g. OKX_API_KEY, DATABASE_URL.
func Load(path string) (*Config, error) {
	// Pick up a local .env first so viper sees its variables (ignore error
	// if not found).
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("okx-trading")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.okx-trading")
	}

	// Empty defaults keep env-only keys visible to Unmarshal.
	v.SetDefault("okx_api_key", "")
	v.SetDefault("okx_secret_key", "")
	v.SetDefault("okx_passphrase", "")
	v.SetDefault("database_url", "")
	v.SetDefault("webhook_url", "")
	v.SetDefault("okx_base_url", "https://www.okx.com")
	v.SetDefault("okx_ws_url", "wss://ws.okx.com:8443/ws/v5/business")
	v.SetDefault("history_size", 200)
	v.SetDefault("max_order_usd", 20000.0)
	v.SetDefault("http_timeout", 5*time.Second)
	v.SetDefault("ws_reconnect_delay", time.Second)
	v.SetDefault("cache_ttl", 500*time.Millisecond)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HistorySize <= 0 {
		return nil, fmt.Errorf("history_size must be positive, got %d", cfg.HistorySize)
	}

	return &cfg, nil
}

// ValidateCredentials checks the fields required for live trading
func (c *Config) ValidateCredentials() error {
	if c.OKXAPIKey == "" || c.OKXSecretKey == "" || c.OKXPassphrase == "" {
		return fmt.Errorf("OKX_API_KEY, OKX_SECRET_KEY and OKX_PASSPHRASE must be set")
	}
	return nil
}
