package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/liangjiangliang/okx-trading1-sub001/pkg/formatters"
)

var candlesLimit int

var candlesCmd = &cobra.Command{
	Use:   "candles SYMBOL INTERVAL",
	Short: "Fetch recent candles for a symbol",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		candles, err := client.GetCandles(ctx, args[0], args[1], candlesLimit)
		if err != nil {
			return fmt.Errorf("fetch candles: %w", err)
		}

		fmt.Println(formatters.FormatCandlesTable(candles))
		return nil
	},
}

func init() {
	candlesCmd.Flags().IntVar(&candlesLimit, "limit", 20, "number of candles to fetch")
	rootCmd.AddCommand(candlesCmd)
}
