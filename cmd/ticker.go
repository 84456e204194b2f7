package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/liangjiangliang/okx-trading1-sub001/pkg/formatters"
)

var tickerCmd = &cobra.Command{
	Use:   "ticker SYMBOL",
	Short: "Show the latest price for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := args[0]

		if cached, found := dataCache.GetTicker(symbol); found {
			fmt.Printf("%s  last=%s bid=%s ask=%s (%s, cached)\n",
				cached.Symbol, cached.Last, cached.BidPrice, cached.AskPrice,
				formatters.FormatTimestamp(cached.Timestamp))
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ticker, err := client.GetTicker(ctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch ticker: %w", err)
		}
		dataCache.SetTicker(symbol, ticker)

		fmt.Printf("%s  last=%s bid=%s ask=%s (%s)\n",
			ticker.Symbol, ticker.Last, ticker.BidPrice, ticker.AskPrice,
			formatters.FormatTimestamp(ticker.Timestamp))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tickerCmd)
}
