package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

// Cache provides fast in-memory caching for market data
type Cache struct {
	tickers *gocache.Cache
	candles *gocache.Cache
	ttl     time.Duration
}

// NewCache creates a new cache instance
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		tickers: gocache.New(ttl, ttl*2),
		candles: gocache.New(5*time.Minute, 10*time.Minute), // candles cached longer
		ttl:     ttl,
	}
}

// GetTicker retrieves a cached ticker
func (c *Cache) GetTicker(symbol string) (*models.Ticker, bool) {
	if val, found := c.tickers.Get(symbol); found {
		if ticker, ok := val.(*models.Ticker); ok {
			return ticker, true
		}
	}
	return nil, false
}

// SetTicker caches a ticker
func (c *Cache) SetTicker(symbol string, ticker *models.Ticker) {
	c.tickers.Set(symbol, ticker, c.ttl)
}

// GetCandle retrieves the latest cached candle for a (symbol, interval) key
func (c *Cache) GetCandle(key string) (*models.Candle, bool) {
	if val, found := c.candles.Get(key); found {
		if candle, ok := val.(*models.Candle); ok {
			return candle, true
		}
	}
	return nil, false
}

// SetCandle caches the latest candle for a (symbol, interval) key
func (c *Cache) SetCandle(key string, candle *models.Candle) {
	c.candles.Set(key, candle, 5*time.Minute)
}

// Clear removes all cached data
func (c *Cache) Clear() {
	c.tickers.Flush()
	c.candles.Flush()
}

// Stats returns cache statistics
type Stats struct {
	TickerCount int
	CandleCount int
}

// GetStats returns current cache statistics
func (c *Cache) GetStats() Stats {
	return Stats{
		TickerCount: c.tickers.ItemCount(),
		CandleCount: c.candles.ItemCount(),
	}
}
