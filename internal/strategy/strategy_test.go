package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/series"
)

func seriesWithCloses(t *testing.T, closes []float64) *series.Series {
	t.Helper()
	s := series.New("BTC-USDT", "5m", zap.NewNop())
	base := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, 0, len(closes))
	for i, c := range closes {
		candles = append(candles, models.Candle{
			Symbol:    "BTC-USDT",
			Interval:  "5m",
			Open:      decimal.NewFromFloat(c),
			High:      decimal.NewFromFloat(c),
			Low:       decimal.NewFromFloat(c),
			Close:     decimal.NewFromFloat(c),
			Volume:    decimal.NewFromInt(1),
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
		})
	}
	s.Seed(candles)
	return s
}

func TestRegistryUnknownIdentifier(t *testing.T) {
	r := Default()
	s := seriesWithCloses(t, []float64{100, 101})

	_, err := r.New(s, "no_such_strategy")
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestRegistryEmptySeries(t *testing.T) {
	r := Default()
	s := series.New("BTC-USDT", "5m", zap.NewNop())

	_, err := r.New(s, "sma_cross")
	if !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
	if _, err := r.New(nil, "sma_cross"); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries for nil series, got %v", err)
	}
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func(s *series.Series) (SignalEvaluator, error) {
		return NewSMACross(s, 2, 3), nil
	})

	s := seriesWithCloses(t, []float64{100, 101, 102})
	eval, err := r.New(s, "custom")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if eval == nil {
		t.Fatal("New() returned nil evaluator")
	}
}

func TestSMACrossSignals(t *testing.T) {
	// Flat then a sharp rise: the short SMA crosses above the long SMA.
	closes := []float64{100, 100, 100, 100, 100, 100, 108, 116}
	s := seriesWithCloses(t, closes)
	eval := NewSMACross(s, 2, 4)

	end := s.End()
	if !eval.ShouldEnter(end) {
		t.Error("expected entry signal after upward cross")
	}
	if eval.ShouldExit(end) {
		t.Error("did not expect exit signal after upward cross")
	}

	// Mirror image: sharp fall produces an exit, not an entry.
	closes = []float64{100, 100, 100, 100, 100, 100, 92, 84}
	s = seriesWithCloses(t, closes)
	eval = NewSMACross(s, 2, 4)
	end = s.End()
	if eval.ShouldEnter(end) {
		t.Error("did not expect entry signal after downward cross")
	}
	if !eval.ShouldExit(end) {
		t.Error("expected exit signal after downward cross")
	}
}

func TestSMACrossTooFewBars(t *testing.T) {
	s := seriesWithCloses(t, []float64{100, 101})
	eval := NewSMACross(s, 2, 4)
	if eval.ShouldEnter(s.End()) || eval.ShouldExit(s.End()) {
		t.Error("no signals expected with fewer bars than the long period")
	}
}

func TestBollingerSignals(t *testing.T) {
	closes := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		// Alternate around 100 so the bands have width.
		if i%2 == 0 {
			closes = append(closes, 99)
		} else {
			closes = append(closes, 101)
		}
	}

	// A collapse far below the lower band triggers entry.
	s := seriesWithCloses(t, append(closes, 80))
	eval := NewBollinger(s, 20, 2.0)
	if !eval.ShouldEnter(s.End()) {
		t.Error("expected entry when close breaks the lower band")
	}
	if eval.ShouldExit(s.End()) {
		t.Error("did not expect exit when close breaks the lower band")
	}

	// A spike far above the upper band triggers exit.
	s = seriesWithCloses(t, append(closes, 120))
	eval = NewBollinger(s, 20, 2.0)
	if !eval.ShouldExit(s.End()) {
		t.Error("expected exit when close breaks the upper band")
	}
}
