package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/engine"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/notify"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/store"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/stream"
	"github.com/liangjiangliang/okx-trading1-sub001/pkg/formatters"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the strategy engine against live candle streams",
	Long: `Starts every strategy configured under "strategies", resumes persisted
auto-start strategies, and trades until interrupted. SIGINT or SIGTERM stops
all strategies gracefully, waiting for in-flight orders to settle.`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}

	ctx := context.Background()

	db, err := store.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	var notifier engine.Notifier = notify.Noop{}
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL, logger)
	}

	// The engine consumes candle ticks straight off the stream.
	var eng *engine.Engine
	streamClient := stream.NewClient(cfg, func(symbol, interval string, candle models.Candle) {
		eng.OnCandle(symbol, interval, candle)
	}, logger)

	eng = engine.New(cfg, client, client, db, notifier, streamClient,
		registry, riskManager, dataCache, logger)

	if err := streamClient.Connect(); err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	defer streamClient.Close()

	resumed := eng.RecoverAutoStart(ctx)

	started := 0
	var completions []<-chan models.Summary
	for _, launch := range cfg.Strategies {
		amount := decimal.NewFromFloat(launch.Amount)
		done, err := eng.Start(ctx, launch.Strategy, launch.Symbol, launch.Interval, amount, launch.AutoStart)
		if err != nil {
			logger.Warn("Failed to start configured strategy",
				zap.String("strategy", launch.Strategy),
				zap.String("symbol", launch.Symbol),
				zap.Error(err))
			continue
		}
		completions = append(completions, done)
		started++
	}

	if resumed+started == 0 {
		return fmt.Errorf("no strategies to run; configure \"strategies\" or persist auto-start states")
	}

	fmt.Println(formatters.FormatStatesTable(eng.ActiveStates()))
	logger.Info("Engine running",
		zap.Int("started", started),
		zap.Int("resumed", resumed))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	eng.Shutdown(shutdownCtx)

	for _, done := range completions {
		select {
		case summary, ok := <-done:
			if ok {
				fmt.Println(formatters.FormatSummary(summary))
			}
		case <-shutdownCtx.Done():
		}
	}

	logger.Info("Engine stopped")
	return nil
}
