package strategy

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/series"
)

// Bollinger enters when the close drops below the lower band and exits when
// it rises above the upper band.
type Bollinger struct {
	series *series.Series
	period int
	width  float64
}

// NewBollinger creates a Bollinger band evaluator
func NewBollinger(s *series.Series, period int, width float64) *Bollinger {
	return &Bollinger{series: s, period: period, width: width}
}

// ShouldEnter reports whether the close at index is below the lower band
func (b *Bollinger) ShouldEnter(index int) bool {
	lower, _, ok := b.bands(index)
	if !ok {
		return false
	}
	return b.series.Candle(index).Close.LessThan(lower)
}

// ShouldExit reports whether the close at index is above the upper band
func (b *Bollinger) ShouldExit(index int) bool {
	_, upper, ok := b.bands(index)
	if !ok {
		return false
	}
	return b.series.Candle(index).Close.GreaterThan(upper)
}

func (b *Bollinger) bands(index int) (lower, upper decimal.Decimal, ok bool) {
	if index < b.period-1 {
		return decimal.Zero, decimal.Zero, false
	}

	sum := decimal.Zero
	for i := index - b.period + 1; i <= index; i++ {
		sum = sum.Add(b.series.Candle(i).Close)
	}
	mean := sum.Div(decimal.NewFromInt(int64(b.period)))

	variance := 0.0
	for i := index - b.period + 1; i <= index; i++ {
		d := b.series.Candle(i).Close.Sub(mean).InexactFloat64()
		variance += d * d
	}
	dev := decimal.NewFromFloat(math.Sqrt(variance / float64(b.period)))
	band := dev.Mul(decimal.NewFromFloat(b.width))

	return mean.Sub(band), mean.Add(band), true
}
