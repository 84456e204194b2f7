package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/cache"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/config"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/risk"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/series"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/strategy"
)

// Sentinel errors for lifecycle operations.
var (
	ErrAlreadyRunning = errors.New("strategy already running for this symbol and interval")
)

// MarketData provides historical bars for seeding a series
type MarketData interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

// OrderExecutor places market orders. A nil order with nil error means the
// exchange produced nothing to account for.
type OrderExecutor interface {
	PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, amount, quantity decimal.Decimal) (*models.Order, error)
}

// StateStore persists strategy states and executed orders
type StateStore interface {
	SaveState(ctx context.Context, st *models.StrategyState) error
	SaveOrder(ctx context.Context, order *models.Order) error
	LoadAutoStartCandidates(ctx context.Context) ([]*models.StrategyState, error)
}

// Notifier reports trades and failures. Trade delivery is fire-and-forget.
type Notifier interface {
	NotifyTrade(ctx context.Context, st *models.StrategyState, order *models.Order)
	NotifyError(ctx context.Context, st *models.StrategyState, cause error) error
}

// Subscriber controls live candle delivery per (symbol, interval) channel
type Subscriber interface {
	Subscribe(symbol, interval string) error
	Unsubscribe(symbol, interval string) error
}

// key identifies one strategy instance
type key struct {
	strategyID string
	symbol     string
	interval   string
}

func (k key) String() string {
	return k.strategyID + "/" + k.symbol + "/" + k.interval
}

// Engine runs strategy instances against live candle streams. Each instance
// is keyed by (strategy, symbol, interval); instances sharing a (symbol,
// interval) share one candle series and one stream subscription.
type Engine struct {
	cfg      *config.Config
	market   MarketData
	executor OrderExecutor
	store    StateStore
	notifier Notifier
	sub      Subscriber
	registry *strategy.Registry
	risk     *risk.Manager
	cache    *cache.Cache
	logger   *zap.Logger

	mu      sync.RWMutex
	runners map[key]*runner
	series  map[string]*series.Series

	// subMu serializes series construction and stream (un)subscription so
	// concurrent starts of a shared (symbol, interval) build one series.
	subMu sync.Mutex
	refs  *refCounter

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an engine
func New(cfg *config.Config, market MarketData, executor OrderExecutor, store StateStore,
	notifier Notifier, sub Subscriber, registry *strategy.Registry, riskMgr *risk.Manager,
	dataCache *cache.Cache, logger *zap.Logger) *Engine {

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:      cfg,
		market:   market,
		executor: executor,
		store:    store,
		notifier: notifier,
		sub:      sub,
		registry: registry,
		risk:     riskMgr,
		cache:    dataCache,
		logger:   logger,
		runners:  make(map[key]*runner),
		series:   make(map[string]*series.Series),
		refs:     newRefCounter(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches a new strategy instance. The returned channel delivers
// exactly one summary when the instance stops, for any reason.
func (e *Engine) Start(ctx context.Context, strategyID, symbol, interval string, amount decimal.Decimal, autoStart bool) (<-chan models.Summary, error) {
	st := &models.StrategyState{
		ID:          uuid.NewString(),
		StrategyID:  strategyID,
		Symbol:      symbol,
		Interval:    interval,
		TradeAmount: amount,
		Position:    models.PositionFlat,
		Status:      models.StatusRunning,
		AutoStart:   autoStart,
		StartTime:   time.Now().UTC(),
	}
	return e.start(ctx, st)
}

// Resume relaunches a previously persisted state, keeping its accumulated
// position and statistics.
func (e *Engine) Resume(ctx context.Context, st *models.StrategyState) (<-chan models.Summary, error) {
	st.Status = models.StatusRunning
	st.EndTime = time.Time{}
	return e.start(ctx, st)
}

func (e *Engine) start(ctx context.Context, st *models.StrategyState) (<-chan models.Summary, error) {
	k := key{strategyID: st.StrategyID, symbol: st.Symbol, interval: st.Interval}

	e.mu.Lock()
	if _, exists := e.runners[k]; exists {
		e.mu.Unlock()
		st.Status = models.StatusCanceled
		st.EndTime = time.Now().UTC()
		if err := e.store.SaveState(ctx, st); err != nil {
			e.logger.Warn("Failed to persist canceled duplicate", zap.String("key", k.String()), zap.Error(err))
		}
		return nil, fmt.Errorf("%s: %w", k.String(), ErrAlreadyRunning)
	}
	e.mu.Unlock()

	ser, err := e.acquireSeries(ctx, st.Symbol, st.Interval)
	if err != nil {
		st.Status = models.StatusCanceled
		st.EndTime = time.Now().UTC()
		if saveErr := e.store.SaveState(ctx, st); saveErr != nil {
			e.logger.Warn("Failed to persist canceled start", zap.String("key", k.String()), zap.Error(saveErr))
		}
		return nil, err
	}

	eval, err := e.registry.New(ser, st.StrategyID)
	if err != nil {
		e.releaseSeries(st.Symbol, st.Interval)
		st.Status = models.StatusCanceled
		st.EndTime = time.Now().UTC()
		if saveErr := e.store.SaveState(ctx, st); saveErr != nil {
			e.logger.Warn("Failed to persist canceled start", zap.String("key", k.String()), zap.Error(saveErr))
		}
		return nil, err
	}

	st.Active = true
	if err := e.store.SaveState(ctx, st); err != nil {
		e.releaseSeries(st.Symbol, st.Interval)
		return nil, fmt.Errorf("persist state: %w", err)
	}

	r := &runner{
		key:    k,
		state:  st,
		eval:   eval,
		series: ser,
		done:   make(chan models.Summary, 1),
	}

	e.mu.Lock()
	if _, exists := e.runners[k]; exists {
		// Lost the race to a concurrent start of the same key.
		e.mu.Unlock()
		e.releaseSeries(st.Symbol, st.Interval)
		st.Active = false
		st.Status = models.StatusCanceled
		st.EndTime = time.Now().UTC()
		if saveErr := e.store.SaveState(ctx, st); saveErr != nil {
			e.logger.Warn("Failed to persist canceled duplicate", zap.String("key", k.String()), zap.Error(saveErr))
		}
		return nil, fmt.Errorf("%s: %w", k.String(), ErrAlreadyRunning)
	}
	e.runners[k] = r
	e.mu.Unlock()

	e.logger.Info("Strategy started",
		zap.String("strategy", st.StrategyID),
		zap.String("symbol", st.Symbol),
		zap.String("interval", st.Interval),
		zap.String("amount", st.TradeAmount.String()))
	return r.done, nil
}

// Stop halts a strategy instance, waits for any in-flight order to settle and
// delivers the final summary. Stopping an unknown instance is a no-op.
func (e *Engine) Stop(ctx context.Context, strategyID, symbol, interval string) (*models.Summary, error) {
	k := key{strategyID: strategyID, symbol: symbol, interval: interval}

	e.mu.Lock()
	r, exists := e.runners[k]
	if !exists {
		e.mu.Unlock()
		return nil, nil
	}
	delete(e.runners, k)
	e.mu.Unlock()

	// Deactivate first so a concurrent tick cannot launch a new order, then
	// let any in-flight execution finish before final accounting.
	r.mu.Lock()
	r.state.Active = false
	r.mu.Unlock()
	r.wg.Wait()

	r.mu.Lock()
	if r.state.Status == models.StatusRunning {
		r.state.Status = models.StatusCompleted
	}
	r.state.EndTime = time.Now().UTC()
	summary := r.state.Summarize()
	if err := e.store.SaveState(ctx, r.state); err != nil {
		e.logger.Warn("Failed to persist stopped state", zap.String("key", k.String()), zap.Error(err))
	}
	r.mu.Unlock()

	e.releaseSeries(symbol, interval)
	r.complete(summary)

	e.logger.Info("Strategy stopped",
		zap.String("key", k.String()),
		zap.Int("trades", summary.TotalTrades),
		zap.String("profit", summary.TotalProfit.String()))
	return &summary, nil
}

// OnCandle ingests one live candle tick and routes it to every strategy
// instance subscribed to its (symbol, interval).
func (e *Engine) OnCandle(symbol, interval string, candle models.Candle) {
	seriesKey := symbol + "|" + interval

	e.mu.RLock()
	ser, ok := e.series[seriesKey]
	if !ok {
		e.mu.RUnlock()
		return
	}
	matching := make([]*runner, 0, len(e.runners))
	for k, r := range e.runners {
		if k.symbol == symbol && k.interval == interval {
			matching = append(matching, r)
		}
	}
	e.mu.RUnlock()

	ser.Apply(candle)
	e.cache.SetCandle(seriesKey, &candle)

	for _, r := range matching {
		e.evaluate(r, candle)
	}
}

// RecoverAutoStart resumes every persisted state flagged for automatic
// restart. Individual failures are logged and skipped.
func (e *Engine) RecoverAutoStart(ctx context.Context) int {
	states, err := e.store.LoadAutoStartCandidates(ctx)
	if err != nil {
		e.logger.Error("Failed to load auto-start candidates", zap.Error(err))
		return 0
	}

	resumed := 0
	for _, st := range states {
		if _, err := e.Resume(ctx, st); err != nil {
			e.logger.Warn("Auto-start resume failed",
				zap.String("strategy", st.StrategyID),
				zap.String("symbol", st.Symbol),
				zap.String("interval", st.Interval),
				zap.Error(err))
			continue
		}
		resumed++
	}
	if resumed > 0 {
		e.logger.Info("Resumed auto-start strategies", zap.Int("count", resumed))
	}
	return resumed
}

// ActiveStates returns a snapshot of all running strategy states
func (e *Engine) ActiveStates() []models.StrategyState {
	e.mu.RLock()
	runners := make([]*runner, 0, len(e.runners))
	for _, r := range e.runners {
		runners = append(runners, r)
	}
	e.mu.RUnlock()

	states := make([]models.StrategyState, 0, len(runners))
	for _, r := range runners {
		r.mu.Lock()
		states = append(states, *r.state)
		r.mu.Unlock()
	}
	return states
}

// Shutdown stops all strategy instances and waits for in-flight orders
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.RLock()
	keys := make([]key, 0, len(e.runners))
	for k := range e.runners {
		keys = append(keys, k)
	}
	e.mu.RUnlock()

	for _, k := range keys {
		if _, err := e.Stop(ctx, k.strategyID, k.symbol, k.interval); err != nil {
			e.logger.Warn("Shutdown stop failed", zap.String("key", k.String()), zap.Error(err))
		}
	}
	e.cancel()
}

// acquireSeries returns the shared series for a (symbol, interval), creating
// and seeding it on first use. First use also subscribes the live stream.
func (e *Engine) acquireSeries(ctx context.Context, symbol, interval string) (*series.Series, error) {
	seriesKey := symbol + "|" + interval

	e.subMu.Lock()
	defer e.subMu.Unlock()

	if first := e.refs.acquire(seriesKey); !first {
		e.mu.RLock()
		ser := e.series[seriesKey]
		e.mu.RUnlock()
		return ser, nil
	}

	candles, err := e.market.GetCandles(ctx, symbol, interval, e.cfg.HistorySize)
	if err != nil {
		e.refs.release(seriesKey)
		return nil, fmt.Errorf("seed candles for %s %s: %w", symbol, interval, err)
	}

	ser := series.New(symbol, interval, e.logger)
	ser.Seed(candles)

	if err := e.sub.Subscribe(symbol, interval); err != nil {
		e.refs.release(seriesKey)
		return nil, fmt.Errorf("subscribe %s %s: %w", symbol, interval, err)
	}

	e.mu.Lock()
	e.series[seriesKey] = ser
	e.mu.Unlock()

	e.logger.Info("Series seeded",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("candles", ser.Len()))
	return ser, nil
}

// releaseSeries drops one reference; the last reference unsubscribes the
// stream (best effort) and discards the series.
func (e *Engine) releaseSeries(symbol, interval string) {
	seriesKey := symbol + "|" + interval

	e.subMu.Lock()
	defer e.subMu.Unlock()

	if last := e.refs.release(seriesKey); !last {
		return
	}

	e.mu.Lock()
	delete(e.series, seriesKey)
	e.mu.Unlock()

	if err := e.sub.Unsubscribe(symbol, interval); err != nil {
		e.logger.Warn("Unsubscribe failed",
			zap.String("symbol", symbol),
			zap.String("interval", interval),
			zap.Error(err))
	}
}
