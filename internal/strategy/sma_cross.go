package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/series"
)

// SMACross enters when the short moving average crosses above the long one
// and exits on the opposite cross.
type SMACross struct {
	series *series.Series
	short  int
	long   int
}

// NewSMACross creates an SMA crossover evaluator
func NewSMACross(s *series.Series, short, long int) *SMACross {
	return &SMACross{series: s, short: short, long: long}
}

// ShouldEnter reports a golden cross at index
func (c *SMACross) ShouldEnter(index int) bool {
	if index < c.long {
		return false
	}
	prevShort, prevLong := c.sma(index-1, c.short), c.sma(index-1, c.long)
	curShort, curLong := c.sma(index, c.short), c.sma(index, c.long)
	return prevShort.LessThanOrEqual(prevLong) && curShort.GreaterThan(curLong)
}

// ShouldExit reports a death cross at index
func (c *SMACross) ShouldExit(index int) bool {
	if index < c.long {
		return false
	}
	prevShort, prevLong := c.sma(index-1, c.short), c.sma(index-1, c.long)
	curShort, curLong := c.sma(index, c.short), c.sma(index, c.long)
	return prevShort.GreaterThanOrEqual(prevLong) && curShort.LessThan(curLong)
}

// sma averages closes over the period ending at index inclusive
func (c *SMACross) sma(index, period int) decimal.Decimal {
	sum := decimal.Zero
	for i := index - period + 1; i <= index; i++ {
		sum = sum.Add(c.series.Candle(i).Close)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}
