package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/cache"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/config"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/exchange"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/risk"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/strategy"
)

var (
	// Global instances
	cfgFile     string
	cfg         *config.Config
	client      *exchange.Client
	dataCache   *cache.Cache
	riskManager *risk.Manager
	registry    *strategy.Registry
	logger      *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "okx-trading",
	Short: "Live strategy execution engine for OKX spot markets",
	Long: `okx-trading runs trading strategies against live OKX candle streams.
Strategies are evaluated on calendar-aligned period buckets, orders are
executed asynchronously per strategy instance, and every trade is persisted
with full accounting.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./okx-trading.yaml)")
}

// initLogger configures logging: default INFO, DEBUG if DEBUG env is truthy
func initLogger() {
	verbose := false
	if v := os.Getenv("DEBUG"); v == "true" || v == "1" || v == "yes" {
		verbose = true
	}

	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var err error
	logger, err = zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
}

// initializeApp sets up the dependencies shared by all commands
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client = exchange.NewClient(cfg)
	dataCache = cache.NewCache(cfg.CacheTTL)
	riskManager = risk.NewManager(cfg)
	registry = strategy.Default()

	return nil
}
