package series

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

// Series is the ordered bar history for one (symbol, interval). Bars are
// append-only except for the most recent one, which is replaced in place
// while its period is still open. Finalized bar start times are strictly
// increasing.
//
// A Series is shared by every strategy running on its (symbol, interval);
// only the owning aggregation path mutates it.
type Series struct {
	mu       sync.RWMutex
	symbol   string
	interval string
	candles  []models.Candle
	logger   *zap.Logger
}

// New creates an empty series for a (symbol, interval)
func New(symbol, interval string, logger *zap.Logger) *Series {
	if _, _, ok := ParseInterval(interval); !ok {
		logger.Warn("unrecognized interval, falling back to second truncation",
			zap.String("symbol", symbol),
			zap.String("interval", interval))
	}
	return &Series{
		symbol:   symbol,
		interval: interval,
		logger:   logger,
	}
}

// Seed replaces the series content with a historical window. Candles must
// already be in ascending time order.
func (s *Series) Seed(candles []models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles = append(s.candles[:0], candles...)
}

// Apply merges an incoming candle into the series. If the candle's period
// bucket matches the open (last) bar's bucket, the open bar's OHLCV fields
// are replaced in place and Apply returns false; otherwise the candle is
// appended as a new bar and Apply returns true. An empty series always
// appends.
func (s *Series) Apply(c models.Candle) (appended bool) {
	if c.CloseTime.IsZero() {
		c.CloseTime = c.Timestamp.Add(IntervalDuration(s.interval))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.candles) == 0 {
		s.candles = append(s.candles, c)
		return true
	}

	last := &s.candles[len(s.candles)-1]
	if BucketStart(c.Timestamp, s.interval).Equal(BucketStart(last.Timestamp, s.interval)) {
		// Same period: later update of the open bar. The bar keeps its
		// original start time; only OHLCV and close time move.
		last.Open = c.Open
		last.High = c.High
		last.Low = c.Low
		last.Close = c.Close
		last.Volume = c.Volume
		last.CloseTime = c.CloseTime
		return false
	}

	s.candles = append(s.candles, c)
	return true
}

// Symbol returns the series symbol
func (s *Series) Symbol() string { return s.symbol }

// Interval returns the series interval string
func (s *Series) Interval() string { return s.interval }

// Len returns the number of bars
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candles)
}

// End returns the index of the last bar, or -1 for an empty series
func (s *Series) End() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candles) - 1
}

// Candle returns the bar at index i
func (s *Series) Candle(i int) models.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.candles[i]
}

// Last returns the most recent bar and whether one exists
func (s *Series) Last() (models.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.candles) == 0 {
		return models.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Candles returns a copy of the bar history
func (s *Series) Candles() []models.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// LastBucket returns the period bucket of the open bar, or the zero time for
// an empty series.
func (s *Series) LastBucket() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.candles) == 0 {
		return time.Time{}
	}
	return BucketStart(s.candles[len(s.candles)-1].Timestamp, s.interval)
}
