package series

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

func candleAt(ts time.Time, close float64) models.Candle {
	return models.Candle{
		Symbol:    "BTC-USDT",
		Interval:  "5m",
		Open:      decimal.NewFromFloat(close - 1),
		High:      decimal.NewFromFloat(close + 2),
		Low:       decimal.NewFromFloat(close - 2),
		Close:     decimal.NewFromFloat(close),
		Volume:    decimal.NewFromInt(10),
		Timestamp: ts,
	}
}

func TestApplyEmptySeriesAppends(t *testing.T) {
	s := New("BTC-USDT", "5m", zap.NewNop())

	appended := s.Apply(candleAt(time.Date(2024, 3, 14, 10, 2, 0, 0, time.UTC), 100))
	if !appended {
		t.Error("first candle on an empty series must append")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 bar, got %d", s.Len())
	}
}

func TestApplySamePeriodReplaces(t *testing.T) {
	s := New("BTC-USDT", "5m", zap.NewNop())

	first := candleAt(time.Date(2024, 3, 14, 10, 2, 0, 0, time.UTC), 100)
	s.Apply(first)

	update := candleAt(time.Date(2024, 3, 14, 10, 4, 0, 0, time.UTC), 105)
	appended := s.Apply(update)
	if appended {
		t.Error("a candle in the same 5m bucket must replace, not append")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 bar after replace, got %d", s.Len())
	}

	last, _ := s.Last()
	if !last.Close.Equal(decimal.NewFromFloat(105)) {
		t.Errorf("expected close 105 after replace, got %s", last.Close)
	}
	// The open bar keeps its original start time.
	if !last.Timestamp.Equal(first.Timestamp) {
		t.Errorf("replace must not move the bar start time: got %v, want %v",
			last.Timestamp, first.Timestamp)
	}
}

func TestApplyNewPeriodAppends(t *testing.T) {
	s := New("BTC-USDT", "5m", zap.NewNop())

	s.Apply(candleAt(time.Date(2024, 3, 14, 10, 2, 0, 0, time.UTC), 100))
	appended := s.Apply(candleAt(time.Date(2024, 3, 14, 10, 6, 0, 0, time.UTC), 110))
	if !appended {
		t.Error("a candle in a new bucket must append")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 bars, got %d", s.Len())
	}

	// Finalized bar start times are strictly increasing.
	if !s.Candle(0).Timestamp.Before(s.Candle(1).Timestamp) {
		t.Error("bar start times must be strictly increasing")
	}
}

func TestApplyDerivesCloseTime(t *testing.T) {
	s := New("BTC-USDT", "5m", zap.NewNop())

	open := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	s.Apply(candleAt(open, 100))

	last, _ := s.Last()
	want := open.Add(5 * time.Minute)
	if !last.CloseTime.Equal(want) {
		t.Errorf("derived close time = %v, want %v", last.CloseTime, want)
	}
}

func TestSeedAndEnd(t *testing.T) {
	s := New("BTC-USDT", "5m", zap.NewNop())
	if s.End() != -1 {
		t.Errorf("empty series End() = %d, want -1", s.End())
	}

	base := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	var candles []models.Candle
	for i := 0; i < 4; i++ {
		candles = append(candles, candleAt(base.Add(time.Duration(i)*5*time.Minute), 100+float64(i)))
	}
	s.Seed(candles)

	if s.End() != 3 {
		t.Errorf("End() = %d, want 3", s.End())
	}
	got := s.Candles()
	if len(got) != 4 {
		t.Fatalf("Candles() returned %d bars, want 4", len(got))
	}
	// The copy must be detached from the series.
	got[0].Close = decimal.NewFromInt(-1)
	if s.Candle(0).Close.Equal(decimal.NewFromInt(-1)) {
		t.Error("Candles() must return a copy")
	}
}

func TestApplyMalformedIntervalDoesNotFail(t *testing.T) {
	s := New("BTC-USDT", "banana", zap.NewNop())

	ts := time.Date(2024, 3, 14, 10, 2, 10, 0, time.UTC)
	s.Apply(candleAt(ts, 100))
	// Same minute, different second: unknown unit truncates seconds only.
	if appended := s.Apply(candleAt(ts.Add(20*time.Second), 101)); appended {
		t.Error("same-minute update under an unknown unit should replace")
	}
	if appended := s.Apply(candleAt(ts.Add(2*time.Minute), 102)); !appended {
		t.Error("next-minute update under an unknown unit should append")
	}
}
