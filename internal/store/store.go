package store

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

// Store persists strategy states and executed orders in Postgres
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a Store and verifies connectivity
func New(ctx context.Context, dbURL string, logger *zap.Logger) (*Store, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS strategy_states (
			id                TEXT PRIMARY KEY,
			strategy_id       TEXT NOT NULL,
			symbol            TEXT NOT NULL,
			interval          TEXT NOT NULL,
			trade_amount      NUMERIC NOT NULL,
			position          TEXT NOT NULL,
			last_side         TEXT NOT NULL DEFAULT '',
			last_price        NUMERIC NOT NULL DEFAULT 0,
			last_amount       NUMERIC NOT NULL DEFAULT 0,
			last_quantity     NUMERIC NOT NULL DEFAULT 0,
			last_trade_time   TIMESTAMPTZ,
			total_trades      INT NOT NULL DEFAULT 0,
			successful_trades INT NOT NULL DEFAULT 0,
			total_profit      NUMERIC NOT NULL DEFAULT 0,
			total_fees        NUMERIC NOT NULL DEFAULT 0,
			active            BOOLEAN NOT NULL DEFAULT FALSE,
			status            TEXT NOT NULL,
			auto_start        BOOLEAN NOT NULL DEFAULT FALSE,
			start_time        TIMESTAMPTZ,
			end_time          TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id              TEXT PRIMARY KEY,
			client_order_id TEXT NOT NULL DEFAULT '',
			state_id        TEXT NOT NULL,
			symbol          TEXT NOT NULL,
			side            TEXT NOT NULL,
			status          TEXT NOT NULL,
			price           NUMERIC NOT NULL DEFAULT 0,
			executed_qty    NUMERIC NOT NULL DEFAULT 0,
			executed_amount NUMERIC NOT NULL DEFAULT 0,
			fee             NUMERIC NOT NULL DEFAULT 0,
			signal          TEXT NOT NULL DEFAULT '',
			same_period     BOOLEAN NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_state_id ON orders (state_id)`,
		`CREATE INDEX IF NOT EXISTS idx_states_auto_start ON strategy_states (auto_start) WHERE auto_start`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveState upserts a strategy state by id
func (s *Store) SaveState(ctx context.Context, st *models.StrategyState) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO strategy_states (
			id, strategy_id, symbol, interval, trade_amount, position,
			last_side, last_price, last_amount, last_quantity, last_trade_time,
			total_trades, successful_trades, total_profit, total_fees,
			active, status, auto_start, start_time, end_time
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19, $20
		)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			last_side = EXCLUDED.last_side,
			last_price = EXCLUDED.last_price,
			last_amount = EXCLUDED.last_amount,
			last_quantity = EXCLUDED.last_quantity,
			last_trade_time = EXCLUDED.last_trade_time,
			total_trades = EXCLUDED.total_trades,
			successful_trades = EXCLUDED.successful_trades,
			total_profit = EXCLUDED.total_profit,
			total_fees = EXCLUDED.total_fees,
			active = EXCLUDED.active,
			status = EXCLUDED.status,
			auto_start = EXCLUDED.auto_start,
			end_time = EXCLUDED.end_time`,
		st.ID, st.StrategyID, st.Symbol, st.Interval, st.TradeAmount, st.Position,
		st.LastSide, st.LastPrice, st.LastAmount, st.LastQuantity, nullableTime(st.LastTradeTime),
		st.TotalTrades, st.SuccessfulTrades, st.TotalProfit, st.TotalFees,
		st.Active, st.Status, st.AutoStart, nullableTime(st.StartTime), nullableTime(st.EndTime))
	if err != nil {
		return fmt.Errorf("save state %s: %w", st.ID, err)
	}
	return nil
}

// SaveOrder records an executed order
func (s *Store) SaveOrder(ctx context.Context, order *models.Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (
			id, client_order_id, state_id, symbol, side, status,
			price, executed_qty, executed_amount, fee, signal, same_period, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		order.ID, order.ClientOrderID, order.StateID, order.Symbol, order.Side, order.Status,
		order.Price, order.ExecutedQty, order.ExecutedAmount, order.Fee,
		order.Signal, order.SamePeriod, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("save order %s: %w", order.ID, err)
	}
	return nil
}

// LoadAutoStartCandidates returns the states flagged for automatic restart
func (s *Store) LoadAutoStartCandidates(ctx context.Context) ([]*models.StrategyState, error) {
	rows, err := s.pool.Query(ctx, selectStates+` WHERE auto_start ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("load auto-start candidates: %w", err)
	}
	return scanStates(rows)
}

const selectStates = `
	SELECT id, strategy_id, symbol, interval, trade_amount, position,
		last_side, last_price, last_amount, last_quantity, last_trade_time,
		total_trades, successful_trades, total_profit, total_fees,
		active, status, auto_start, start_time, end_time
	FROM strategy_states`

func scanStates(rows pgx.Rows) ([]*models.StrategyState, error) {
	defer rows.Close()

	var states []*models.StrategyState
	for rows.Next() {
		var st models.StrategyState
		var lastTradeTime, startTime, endTime *time.Time
		err := rows.Scan(
			&st.ID, &st.StrategyID, &st.Symbol, &st.Interval, &st.TradeAmount, &st.Position,
			&st.LastSide, &st.LastPrice, &st.LastAmount, &st.LastQuantity, &lastTradeTime,
			&st.TotalTrades, &st.SuccessfulTrades, &st.TotalProfit, &st.TotalFees,
			&st.Active, &st.Status, &st.AutoStart, &startTime, &endTime)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		if lastTradeTime != nil {
			st.LastTradeTime = *lastTradeTime
		}
		if startTime != nil {
			st.StartTime = *startTime
		}
		if endTime != nil {
			st.EndTime = *endTime
		}
		states = append(states, &st)
	}
	return states, rows.Err()
}

// nullableTime maps the zero time to SQL NULL
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Close releases the connection pool
func (s *Store) Close() {
	s.pool.Close()
}
