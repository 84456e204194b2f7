package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/config"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

// CandleHandler is a callback invoked for every candle tick received on a
// subscribed (symbol, interval) channel.
type CandleHandler func(symbol, interval string, candle models.Candle)

// Client manages the websocket connection for real-time candle data
type Client struct {
	cfg                   *config.Config
	logger                *zap.Logger
	conn                  *websocket.Conn
	mu                    sync.RWMutex
	subscriptions         map[string]subscription
	handler               CandleHandler
	reconnectDelay        time.Duration
	ctx                   context.Context
	cancel                context.CancelFunc
	isConnected           bool
	connectionAttempts    int
	maxConnectionAttempts int
}

type subscription struct {
	symbol   string
	interval string
}

// wire messages

type wsRequest struct {
	Op   string      `json:"op"`
	Args []channelID `json:"args"`
}

type channelID struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsMessage struct {
	Event string          `json:"event"`
	Code  string          `json:"code"`
	Msg   string          `json:"msg"`
	Arg   channelID       `json:"arg"`
	Data  json.RawMessage `json:"data"`
}

// NewClient creates a new streaming client. handler receives every candle
// tick; it must be non-blocking or copy out quickly.
func NewClient(cfg *config.Config, handler CandleHandler, logger *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:                   cfg,
		logger:                logger,
		subscriptions:         make(map[string]subscription),
		handler:               handler,
		reconnectDelay:        cfg.WSReconnectDelay,
		ctx:                   ctx,
		cancel:                cancel,
		maxConnectionAttempts: 5,
	}
}

// Connect establishes the websocket connection
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.isConnected = false
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(c.cfg.OKXWSURL, nil)
	if err != nil {
		c.connectionAttempts++
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	c.isConnected = true
	c.connectionAttempts = 0

	// Resubscribe staged channels on every (re)connect.
	if len(c.subscriptions) > 0 {
		args := make([]channelID, 0, len(c.subscriptions))
		for _, sub := range c.subscriptions {
			args = append(args, channelID{Channel: "candle" + sub.interval, InstID: sub.symbol})
		}
		if err := conn.WriteJSON(wsRequest{Op: "subscribe", Args: args}); err != nil {
			conn.Close()
			c.conn = nil
			c.isConnected = false
			return fmt.Errorf("resubscribe write: %w", err)
		}
		c.logger.Info("Resubscribed channels", zap.Int("count", len(args)))
	}

	go c.handleMessages(conn)
	go c.keepAlive(conn)

	c.logger.Info("Websocket connected", zap.String("url", c.cfg.OKXWSURL))
	return nil
}

// Subscribe starts candle delivery for a (symbol, interval). Subscribing the
// same pair twice is a no-op; the subscription is staged if not yet connected.
func (c *Client) Subscribe(symbol, interval string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := symbol + "|" + interval
	if _, exists := c.subscriptions[key]; exists {
		return nil
	}
	c.subscriptions[key] = subscription{symbol: symbol, interval: interval}

	if c.isConnected {
		req := wsRequest{
			Op:   "subscribe",
			Args: []channelID{{Channel: "candle" + interval, InstID: symbol}},
		}
		c.logger.Info("Sending subscription",
			zap.String("symbol", symbol), zap.String("interval", interval))
		return c.conn.WriteJSON(req)
	}

	c.logger.Info("Staged subscription (will subscribe after connect)",
		zap.String("symbol", symbol), zap.String("interval", interval))
	return nil
}

// Unsubscribe stops candle delivery for a (symbol, interval)
func (c *Client) Unsubscribe(symbol, interval string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := symbol + "|" + interval
	if _, exists := c.subscriptions[key]; !exists {
		return nil
	}
	delete(c.subscriptions, key)

	if c.isConnected {
		req := wsRequest{
			Op:   "unsubscribe",
			Args: []channelID{{Channel: "candle" + interval, InstID: symbol}},
		}
		return c.conn.WriteJSON(req)
	}
	return nil
}

// handleMessages processes incoming websocket messages until the connection
// drops, then triggers reconnection.
func (c *Client) handleMessages(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.isConnected = false
		c.mu.Unlock()

		if c.connectionAttempts < c.maxConnectionAttempts {
			c.reconnect()
		} else {
			c.logger.Error("Max connection attempts reached, stopping reconnection")
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Error("Websocket read error", zap.Error(err))
				}
				return
			}

			// Keepalive replies are plain text, not JSON.
			if string(raw) == "pong" {
				continue
			}

			c.processMessage(raw)
		}
	}
}

// processMessage handles a single stream message
func (c *Client) processMessage(raw []byte) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Error("failed to parse stream message", zap.Error(err))
		return
	}

	switch msg.Event {
	case "subscribe", "unsubscribe":
		c.logger.Info("Stream event",
			zap.String("event", msg.Event),
			zap.String("channel", msg.Arg.Channel),
			zap.String("symbol", msg.Arg.InstID))
		return
	case "error":
		c.logger.Error("Stream error",
			zap.String("code", msg.Code),
			zap.String("message", msg.Msg))
		return
	}

	if len(msg.Data) == 0 || len(msg.Arg.Channel) <= len("candle") {
		return
	}
	interval := msg.Arg.Channel[len("candle"):]

	// Each row is [ts, open, high, low, close, vol, ...].
	var rows [][]string
	if err := json.Unmarshal(msg.Data, &rows); err != nil {
		c.logger.Error("failed to parse candle data", zap.Error(err))
		return
	}

	for _, row := range rows {
		candle, err := models.ParseCandleRow(row, msg.Arg.InstID, interval)
		if err != nil {
			c.logger.Error("failed to parse candle row", zap.Error(err))
			continue
		}
		if c.handler != nil {
			c.handler(msg.Arg.InstID, interval, candle)
		}
	}
}

// keepAlive pings the server periodically; OKX drops idle connections after
// 30 seconds.
func (c *Client) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != conn || !c.isConnected {
				c.mu.Unlock()
				return
			}
			err := conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			c.mu.Unlock()
			if err != nil {
				c.logger.Error("Keepalive write failed", zap.Error(err))
				return
			}
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
func (c *Client) reconnect() {
	backoff := c.reconnectDelay
	maxBackoff := 60 * time.Second

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
			if c.connectionAttempts >= c.maxConnectionAttempts {
				c.logger.Error("Max connection attempts reached, stopping reconnection",
					zap.Int("attempts", c.connectionAttempts))
				return
			}

			c.logger.Info("Attempting to reconnect",
				zap.Duration("backoff", backoff),
				zap.Int("attempt", c.connectionAttempts+1))

			if err := c.Connect(); err != nil {
				c.logger.Error("Reconnect failed", zap.Error(err))
				backoff = backoff * 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			} else {
				c.logger.Info("Reconnected successfully")
				return
			}
		}
	}
}

// Close gracefully shuts down the stream client
func (c *Client) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			c.logger.Error("Error sending close message", zap.Error(err))
		}

		closeErr := c.conn.Close()
		c.conn = nil
		c.isConnected = false
		return closeErr
	}

	return nil
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}
