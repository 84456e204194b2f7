package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/config"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

// Client is a thin wrapper around the OKX v5 REST API
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new OKX client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		baseURL: cfg.OKXBaseURL,
	}
}

// apiResponse is the common OKX envelope
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// doRequest performs an HTTP request with signed auth headers
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*apiResponse, error) {
	var bodyBytes []byte
	var bodyReader io.Reader
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	req.Header.Set("OK-ACCESS-KEY", c.cfg.OKXAPIKey)
	req.Header.Set("OK-ACCESS-SIGN", c.sign(timestamp, method, path, bodyBytes))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.cfg.OKXPassphrase)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(raw))
	}

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if env.Code != "0" {
		return nil, fmt.Errorf("exchange error %s: %s", env.Code, env.Msg)
	}
	return &env, nil
}

// sign computes the OKX request signature: base64(hmac-sha256(ts+method+path+body))
func (c *Client) sign(timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.OKXSecretKey))
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// GetCandles retrieves the most recent bars for a (symbol, interval),
// oldest first.
func (c *Client) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	params := url.Values{}
	params.Set("instId", symbol)
	params.Set("bar", interval)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	env, err := c.doRequest(ctx, "GET", "/api/v5/market/candles?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	// Each row is [ts, open, high, low, close, vol, ...], newest first.
	var rows [][]string
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal candles: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		candle, err := models.ParseCandleRow(rows[i], symbol, interval)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// GetTicker retrieves the latest ticker for a symbol
func (c *Client) GetTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	env, err := c.doRequest(ctx, "GET", "/api/v5/market/ticker?instId="+url.QueryEscape(symbol), nil)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Last   decimal.Decimal `json:"last"`
		BidPx  decimal.Decimal `json:"bidPx"`
		AskPx  decimal.Decimal `json:"askPx"`
		Millis string          `json:"ts"`
	}
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal ticker: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no ticker data for %s", symbol)
	}

	millis, _ := strconv.ParseInt(rows[0].Millis, 10, 64)
	return &models.Ticker{
		Symbol:    symbol,
		Last:      rows[0].Last,
		BidPrice:  rows[0].BidPx,
		AskPrice:  rows[0].AskPx,
		Timestamp: time.UnixMilli(millis).UTC(),
	}, nil
}

// PlaceMarketOrder submits a spot market order and returns its execution
// details. Buys are sized by quote-currency amount, sells by base quantity.
// A nil order with nil error means the exchange acknowledged nothing (no-op).
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, amount, quantity decimal.Decimal) (*models.Order, error) {
	clientOrderID := uuid.NewString()

	sz := quantity
	tgtCcy := "base_ccy"
	if side == models.Buy {
		sz = amount
		tgtCcy = "quote_ccy"
	}

	placeReq := map[string]string{
		"instId":  symbol,
		"tdMode":  "cash",
		"side":    string(side),
		"ordType": "market",
		"sz":      sz.String(),
		"tgtCcy":  tgtCcy,
		"clOrdId": clientOrderID,
	}

	env, err := c.doRequest(ctx, "POST", "/api/v5/trade/order", placeReq)
	if err != nil {
		return nil, err
	}

	var acks []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	}
	if err := json.Unmarshal(env.Data, &acks); err != nil {
		return nil, fmt.Errorf("unmarshal order ack: %w", err)
	}
	if len(acks) == 0 || acks[0].OrdID == "" {
		// The exchange accepted the request but produced no order.
		return nil, nil
	}
	if acks[0].SCode != "" && acks[0].SCode != "0" {
		return nil, fmt.Errorf("order rejected %s: %s", acks[0].SCode, acks[0].SMsg)
	}

	order, err := c.getOrder(ctx, symbol, acks[0].OrdID)
	if err != nil {
		return nil, err
	}
	if order != nil {
		order.ClientOrderID = clientOrderID
		order.Side = side
	}
	return order, nil
}

// getOrder fetches execution details for a placed order
func (c *Client) getOrder(ctx context.Context, symbol, orderID string) (*models.Order, error) {
	params := url.Values{}
	params.Set("instId", symbol)
	params.Set("ordId", orderID)

	env, err := c.doRequest(ctx, "GET", "/api/v5/trade/order?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		OrdID     string          `json:"ordId"`
		State     string          `json:"state"`
		AvgPx     decimal.Decimal `json:"avgPx"`
		AccFillSz decimal.Decimal `json:"accFillSz"`
		Fee       decimal.Decimal `json:"fee"`
		CTime     string          `json:"cTime"`
	}
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	millis, _ := strconv.ParseInt(row.CTime, 10, 64)
	return &models.Order{
		ID:             row.OrdID,
		Symbol:         symbol,
		Status:         mapOrderState(row.State),
		Price:          row.AvgPx,
		ExecutedQty:    row.AccFillSz,
		ExecutedAmount: row.AvgPx.Mul(row.AccFillSz),
		// OKX reports fees as negative charges.
		Fee:       row.Fee.Abs(),
		CreatedAt: time.UnixMilli(millis).UTC(),
	}, nil
}

func mapOrderState(state string) models.OrderStatus {
	switch state {
	case "filled":
		return models.OrderFilled
	case "partially_filled":
		return models.OrderPartiallyFilled
	case "canceled":
		return models.OrderCanceled
	default:
		return models.OrderLive
	}
}
