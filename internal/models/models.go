package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide represents buy or sell
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// OrderStatus represents the current status of an order
type OrderStatus string

const (
	OrderLive            OrderStatus = "live"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderFilled          OrderStatus = "filled"
	OrderCanceled        OrderStatus = "canceled"
)

// PositionStatus tracks whether a strategy currently holds an asset
type PositionStatus string

const (
	PositionFlat PositionStatus = "flat"
	PositionLong PositionStatus = "long"
)

// StrategyStatus is the lifecycle status of a running strategy
type StrategyStatus string

const (
	StatusRunning   StrategyStatus = "RUNNING"
	StatusError     StrategyStatus = "ERROR"
	StatusCompleted StrategyStatus = "COMPLETED"
	StatusCanceled  StrategyStatus = "CANCELED"
)

// Candle is an OHLCV bar for one period of a (symbol, interval) series.
// Timestamp is the period open time; CloseTime may be zero on ingress, in
// which case it is derived from the interval duration.
type Candle struct {
	Symbol    string          `json:"symbol"`
	Interval  string          `json:"interval"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
	CloseTime time.Time       `json:"close_time"`
}

// Ticker is the latest traded price for a symbol
type Ticker struct {
	Symbol    string          `json:"symbol"`
	Last      decimal.Decimal `json:"last"`
	BidPrice  decimal.Decimal `json:"bid_price"`
	AskPrice  decimal.Decimal `json:"ask_price"`
	Timestamp time.Time       `json:"timestamp"`
}

// Order is an acknowledged exchange order together with the execution
// details the engine needs for accounting.
type Order struct {
	ID             string          `json:"id"`
	ClientOrderID  string          `json:"client_order_id"`
	StateID        string          `json:"state_id"`
	Symbol         string          `json:"symbol"`
	Side           OrderSide       `json:"side"`
	Status         OrderStatus     `json:"status"`
	Price          decimal.Decimal `json:"price"`
	ExecutedQty    decimal.Decimal `json:"executed_qty"`
	ExecutedAmount decimal.Decimal `json:"executed_amount"`
	Fee            decimal.Decimal `json:"fee"`
	Signal         OrderSide       `json:"signal"`
	SamePeriod     bool            `json:"same_period"`
	CreatedAt      time.Time       `json:"created_at"`
}

// StrategyState is the persistent state of one running strategy instance,
// keyed by (strategy identifier, symbol, interval). Identity fields are
// immutable for the lifetime of the state; everything else is mutated only
// by the engine's per-key execution path.
type StrategyState struct {
	ID         string `json:"id"`
	StrategyID string `json:"strategy_id"`
	Symbol     string `json:"symbol"`
	Interval   string `json:"interval"`

	// TradeAmount is the configured quote-currency notional for the first buy.
	TradeAmount decimal.Decimal `json:"trade_amount"`

	Position PositionStatus `json:"position"`

	// Last executed trade. LastAmount doubles as the carried notional: after
	// a sell it is the proceeds available for the next buy.
	LastSide      OrderSide       `json:"last_side"`
	LastPrice     decimal.Decimal `json:"last_price"`
	LastAmount    decimal.Decimal `json:"last_amount"`
	LastQuantity  decimal.Decimal `json:"last_quantity"`
	LastTradeTime time.Time       `json:"last_trade_time"`

	TotalTrades      int             `json:"total_trades"`
	SuccessfulTrades int             `json:"successful_trades"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	TotalFees        decimal.Decimal `json:"total_fees"`

	Active    bool           `json:"active"`
	Status    StrategyStatus `json:"status"`
	AutoStart bool           `json:"auto_start"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
}

// HasTraded reports whether the state carries at least one executed trade
func (s *StrategyState) HasTraded() bool {
	return s.LastSide != ""
}

// Summary is the final report delivered when a strategy stops
type Summary struct {
	StrategyID       string          `json:"strategy_id"`
	Symbol           string          `json:"symbol"`
	Interval         string          `json:"interval"`
	TotalTrades      int             `json:"total_trades"`
	SuccessfulTrades int             `json:"successful_trades"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	SuccessRate      float64         `json:"success_rate"`
}

// Summarize builds the stop summary for a state. Success rate is 0.0 when no
// trades executed.
func (s *StrategyState) Summarize() Summary {
	rate := 0.0
	if s.TotalTrades > 0 {
		rate = float64(s.SuccessfulTrades) / float64(s.TotalTrades)
	}
	return Summary{
		StrategyID:       s.StrategyID,
		Symbol:           s.Symbol,
		Interval:         s.Interval,
		TotalTrades:      s.TotalTrades,
		SuccessfulTrades: s.SuccessfulTrades,
		TotalProfit:      s.TotalProfit,
		SuccessRate:      rate,
	}
}
