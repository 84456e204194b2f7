package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

// Webhook delivers trade and error events to an HTTP endpoint as JSON
type Webhook struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhook creates a webhook notifier
func NewWebhook(url string, logger *zap.Logger) *Webhook {
	return &Webhook{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

type tradeEvent struct {
	Event      string          `json:"event"`
	StrategyID string          `json:"strategy_id"`
	Symbol     string          `json:"symbol"`
	Interval   string          `json:"interval"`
	Order      *models.Order   `json:"order"`
	Timestamp  time.Time       `json:"timestamp"`
}

type errorEvent struct {
	Event      string    `json:"event"`
	StrategyID string    `json:"strategy_id"`
	Symbol     string    `json:"symbol"`
	Interval   string    `json:"interval"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// NotifyTrade reports an executed order. Delivery failures are logged, never
// propagated; a lost notification must not affect trading.
func (w *Webhook) NotifyTrade(ctx context.Context, st *models.StrategyState, order *models.Order) {
	event := tradeEvent{
		Event:      "trade",
		StrategyID: st.StrategyID,
		Symbol:     st.Symbol,
		Interval:   st.Interval,
		Order:      order,
		Timestamp:  time.Now().UTC(),
	}
	if err := w.post(ctx, event); err != nil {
		w.logger.Warn("Trade notification failed",
			zap.String("strategy", st.StrategyID),
			zap.String("symbol", st.Symbol),
			zap.Error(err))
	}
}

// NotifyError reports a strategy failure
func (w *Webhook) NotifyError(ctx context.Context, st *models.StrategyState, cause error) error {
	event := errorEvent{
		Event:      "strategy_error",
		StrategyID: st.StrategyID,
		Symbol:     st.Symbol,
		Interval:   st.Interval,
		Message:    cause.Error(),
		Timestamp:  time.Now().UTC(),
	}
	return w.post(ctx, event)
}

func (w *Webhook) post(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Noop discards all notifications; used when no webhook is configured
type Noop struct{}

func (Noop) NotifyTrade(ctx context.Context, st *models.StrategyState, order *models.Order) {}

func (Noop) NotifyError(ctx context.Context, st *models.StrategyState, cause error) error {
	return nil
}
