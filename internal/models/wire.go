package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ParseCandleRow decodes one OKX candle row, [ts, open, high, low, close,
// vol, ...], as delivered by both the REST and websocket APIs.
func ParseCandleRow(row []string, symbol, interval string) (Candle, error) {
	if len(row) < 6 {
		return Candle{}, fmt.Errorf("candle row has %d fields, want at least 6", len(row))
	}
	millis, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return Candle{}, fmt.Errorf("parse candle timestamp %q: %w", row[0], err)
	}
	fields := make([]decimal.Decimal, 5)
	for i := 0; i < 5; i++ {
		fields[i], err = decimal.NewFromString(row[i+1])
		if err != nil {
			return Candle{}, fmt.Errorf("parse candle field %q: %w", row[i+1], err)
		}
	}
	return Candle{
		Symbol:    symbol,
		Interval:  interval,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
		Timestamp: time.UnixMilli(millis).UTC(),
	}, nil
}
