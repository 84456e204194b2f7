package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/series"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/strategy"
)

// runner is one live strategy instance. All state mutation happens under mu;
// inflight guarantees at most one order is being executed at a time.
type runner struct {
	key    key
	mu     sync.Mutex
	state  *models.StrategyState
	eval   strategy.SignalEvaluator
	series *series.Series

	inflight bool
	wg       sync.WaitGroup

	once sync.Once
	done chan models.Summary
}

// complete delivers the final summary exactly once
func (r *runner) complete(sum models.Summary) {
	r.once.Do(func() {
		r.done <- sum
		close(r.done)
	})
}

// signals evaluates both signals at index, converting evaluator panics into
// errors so a broken strategy cannot take the engine down.
func (r *runner) signals(index int) (enter, exit bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("evaluator panic at index %d: %v", index, p)
		}
	}()
	return r.eval.ShouldEnter(index), r.eval.ShouldExit(index), nil
}

// evaluate runs the signal and gating logic for one candle tick. Gating and
// order launch happen under the runner lock so ticks for the same instance
// are strictly serialized.
func (e *Engine) evaluate(r *runner, candle models.Candle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.Active || r.inflight {
		return
	}
	index := r.series.End()
	if index < 0 {
		return
	}

	enter, exit, err := r.signals(index)
	if err != nil {
		e.failLocked(r, err)
		return
	}

	st := r.state
	switch {
	case enter && st.Position == models.PositionFlat:
		// Entry debounce: after any trade, wait out one full period before
		// buying again.
		if st.HasTraded() && time.Since(st.LastTradeTime) <= series.IntervalDuration(st.Interval) {
			e.logger.Debug("Entry signal debounced",
				zap.String("key", r.key.String()),
				zap.Time("last_trade", st.LastTradeTime))
			return
		}

		amount := st.TradeAmount
		if st.LastSide == models.Sell {
			// Reinvest the proceeds of the previous round trip.
			amount = st.LastAmount
		}
		if check := e.risk.ValidateOrder(models.Buy, amount, decimal.Zero); !check.Passed {
			e.logger.Warn("Buy blocked by risk check",
				zap.String("key", r.key.String()),
				zap.String("reason", check.Reason))
			return
		}
		e.launchLocked(r, models.Buy, amount, decimal.Zero, candle)

	case exit && st.Position == models.PositionLong:
		qty := st.LastQuantity
		if !qty.IsPositive() {
			e.logger.Warn("Exit signal with no held quantity",
				zap.String("key", r.key.String()))
			return
		}
		e.launchLocked(r, models.Sell, decimal.Zero, qty, candle)
	}
}

// launchLocked starts asynchronous order execution. Caller holds r.mu.
func (e *Engine) launchLocked(r *runner, side models.OrderSide, amount, qty decimal.Decimal, candle models.Candle) {
	st := r.state
	samePeriod := st.HasTraded() &&
		series.BucketStart(candle.Timestamp, st.Interval).Equal(series.BucketStart(st.LastTradeTime, st.Interval))

	r.inflight = true
	r.wg.Add(1)
	go e.execute(r, side, amount, qty, samePeriod)

	e.logger.Info("Signal accepted",
		zap.String("key", r.key.String()),
		zap.String("side", string(side)),
		zap.String("amount", amount.String()),
		zap.String("quantity", qty.String()))
}

// execute places the order and applies its result to the strategy state
func (e *Engine) execute(r *runner, side models.OrderSide, amount, qty decimal.Decimal, samePeriod bool) {
	defer r.wg.Done()

	order, err := e.executor.PlaceMarketOrder(e.ctx, r.key.symbol, side, amount, qty)

	r.mu.Lock()
	r.inflight = false

	if err != nil {
		e.failLocked(r, fmt.Errorf("place %s order: %w", side, err))
		r.mu.Unlock()
		return
	}
	if order == nil {
		r.mu.Unlock()
		e.logger.Info("Order produced no execution",
			zap.String("key", r.key.String()),
			zap.String("side", string(side)))
		return
	}

	st := r.state
	order.StateID = st.ID
	order.Signal = side
	order.SamePeriod = samePeriod
	if order.Symbol == "" {
		order.Symbol = r.key.symbol
	}

	st.TotalTrades++
	if order.Status == models.OrderFilled {
		st.SuccessfulTrades++
	}
	st.TotalFees = st.TotalFees.Add(order.Fee)
	if side == models.Sell {
		// Realized profit of the round trip: sell proceeds minus the buy
		// notional carried in LastAmount.
		st.TotalProfit = st.TotalProfit.Add(order.ExecutedAmount.Sub(st.LastAmount))
	}

	st.LastSide = side
	st.LastPrice = order.Price
	st.LastAmount = order.ExecutedAmount
	st.LastTradeTime = time.Now().UTC()
	if side == models.Buy {
		st.LastQuantity = order.ExecutedQty
		st.Position = models.PositionLong
	} else {
		st.LastQuantity = decimal.Zero
		st.Position = models.PositionFlat
	}

	if err := e.store.SaveState(e.ctx, st); err != nil {
		e.failLocked(r, fmt.Errorf("persist state after %s: %w", side, err))
		r.mu.Unlock()
		return
	}
	if err := e.store.SaveOrder(e.ctx, order); err != nil {
		e.failLocked(r, fmt.Errorf("persist %s order %s: %w", side, order.ID, err))
		r.mu.Unlock()
		return
	}

	// Notify outside the lock: a slow webhook must not stall the next tick
	// for this runner.
	snapshot := *st
	r.mu.Unlock()
	e.notifier.NotifyTrade(e.ctx, &snapshot, order)

	e.logger.Info("Order executed",
		zap.String("key", r.key.String()),
		zap.String("side", string(side)),
		zap.String("status", string(order.Status)),
		zap.String("price", order.Price.String()),
		zap.String("executed_amount", order.ExecutedAmount.String()),
		zap.String("profit", snapshot.TotalProfit.String()))
}

// failLocked deactivates a failed instance without touching its siblings.
// Caller holds r.mu; taking e.mu afterwards is safe because candle dispatch
// never holds e.mu while locking a runner.
func (e *Engine) failLocked(r *runner, cause error) {
	st := r.state
	st.Active = false
	st.Status = models.StatusError
	st.EndTime = time.Now().UTC()

	e.logger.Error("Strategy failed",
		zap.String("key", r.key.String()),
		zap.Error(cause))

	if err := e.store.SaveState(e.ctx, st); err != nil {
		e.logger.Warn("Failed to persist error state",
			zap.String("key", r.key.String()), zap.Error(err))
	}
	if err := e.notifier.NotifyError(e.ctx, st, cause); err != nil {
		e.logger.Warn("Error notification failed",
			zap.String("key", r.key.String()), zap.Error(err))
	}

	e.mu.Lock()
	if cur, ok := e.runners[r.key]; ok && cur == r {
		delete(e.runners, r.key)
		e.mu.Unlock()
		e.releaseSeries(r.key.symbol, r.key.interval)
	} else {
		e.mu.Unlock()
	}

	r.complete(st.Summarize())
}
