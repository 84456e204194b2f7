package formatters

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

// Colors for different values
var (
	ColorGreen  = text.FgGreen
	ColorRed    = text.FgRed
	ColorYellow = text.FgYellow
	ColorGray   = text.FgHiBlack
)

// FormatAmount formats a quote-currency amount with sign-based color
func FormatAmount(amount decimal.Decimal) string {
	amountStr := fmt.Sprintf("%.2f", amount.Abs().InexactFloat64())
	if amount.IsNegative() {
		return ColorRed.Sprint("-" + amountStr)
	}
	return ColorGreen.Sprint(amountStr)
}

// FormatStatus colors a lifecycle status
func FormatStatus(status models.StrategyStatus) string {
	switch status {
	case models.StatusRunning:
		return ColorGreen.Sprint(string(status))
	case models.StatusError:
		return ColorRed.Sprint(string(status))
	case models.StatusCanceled:
		return ColorYellow.Sprint(string(status))
	default:
		return string(status)
	}
}

// FormatCandlesTable renders recent candles, oldest first
func FormatCandlesTable(candles []models.Candle) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Time", "Open", "High", "Low", "Close", "Volume"})

	if len(candles) == 0 {
		t.AppendRow(table.Row{"No candles", "", "", "", "", ""})
		return t.Render()
	}

	for _, c := range candles {
		closeStr := c.Close.String()
		if c.Close.GreaterThanOrEqual(c.Open) {
			closeStr = ColorGreen.Sprint(closeStr)
		} else {
			closeStr = ColorRed.Sprint(closeStr)
		}
		t.AppendRow(table.Row{
			c.Timestamp.Format("2006-01-02 15:04"),
			c.Open.String(),
			c.High.String(),
			c.Low.String(),
			closeStr,
			c.Volume.String(),
		})
	}
	return t.Render()
}

// FormatStatesTable renders running strategy instances
func FormatStatesTable(states []models.StrategyState) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Strategy", "Symbol", "Interval", "Position", "Trades", "Profit", "Fees", "Status"})

	if len(states) == 0 {
		t.AppendRow(table.Row{"No strategies running", "", "", "", "", "", "", ""})
		return t.Render()
	}

	for _, st := range states {
		t.AppendRow(table.Row{
			st.StrategyID,
			st.Symbol,
			st.Interval,
			string(st.Position),
			fmt.Sprintf("%d/%d", st.SuccessfulTrades, st.TotalTrades),
			FormatAmount(st.TotalProfit),
			st.TotalFees.StringFixed(4),
			FormatStatus(st.Status),
		})
	}
	return t.Render()
}

// FormatSummary renders a strategy stop summary
func FormatSummary(s models.Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"Strategy", s.StrategyID})
	t.AppendRow(table.Row{"Symbol", s.Symbol})
	t.AppendRow(table.Row{"Interval", s.Interval})
	t.AppendRow(table.Row{"Trades", s.TotalTrades})
	t.AppendRow(table.Row{"Successful", s.SuccessfulTrades})
	t.AppendRow(table.Row{"Success Rate", fmt.Sprintf("%.1f%%", s.SuccessRate*100)})
	t.AppendRow(table.Row{"Profit", FormatAmount(s.TotalProfit)})
	return t.Render()
}

// FormatTimestamp formats a time for display
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ColorGray.Sprint("-")
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
