package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"QuotePull/internal/domain/models"
	applogger "QuotePull/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	Name      = "FinnhubStream"
	priority  = 20
	rateLimit = 60
)

// Config holds the stream settings.
type Config struct {
	APIKey         string
	WebSocketURL   string
	Symbols        []string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
	// Trades older than StaleAfter are not served as quotes.
	StaleAfter time.Duration
}

// Client keeps the latest Finnhub trade per symbol and serves it as a quote.
// It only knows US listings and never serves candles.
type Client struct {
	cfg    Config
	logger *applogger.Logger
	now    func() time.Time

	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool

	mu     sync.RWMutex
	latest map[string]models.MarketTick
}

// New creates a stream provider. Call Run to start receiving trades.
func New(cfg Config, logger *applogger.Logger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Minute
	}
	if logger == nil {
		logger = applogger.Nop()
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With(applogger.String("provider", Name)),
		now:    time.Now,
		latest: make(map[string]models.MarketTick),
	}
}

func (c *Client) Name() string   { return Name }
func (c *Client) Priority() int  { return priority }
func (c *Client) RateLimit() int { return rateLimit }

// GetQuote returns the last trade seen for symbol if it is fresh.
func (c *Client) GetQuote(_ context.Context, symbol models.Symbol) (models.MarketTick, bool) {
	if symbol.Market != models.MarketUS {
		return models.MarketTick{}, false
	}
	c.mu.RLock()
	tick, ok := c.latest[symbol.Code]
	c.mu.RUnlock()
	if !ok || c.now().Sub(tick.Timestamp) > c.cfg.StaleAfter {
		return models.MarketTick{}, false
	}
	tick.Symbol = symbol
	return tick, true
}

func (c *Client) GetCandles(context.Context, models.Symbol, models.KlinePeriod, int) []models.OHLCV {
	return nil
}

// HealthCheck reports whether the socket is up.
func (c *Client) HealthCheck(context.Context) bool {
	return c.connected.Load()
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected.Load() }

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.cfg.WebSocketURL, c.cfg.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	c.connected.Store(true)
	c.logger.Info("finnhub connected")
	return nil
}

// Subscribe subscribes to configured symbols.
func (c *Client) Subscribe() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil || !c.connected.Load() {
		return fmt.Errorf("finnhub not connected")
	}
	for _, s := range c.cfg.Symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.logger.Debug("finnhub subscribed", applogger.String("symbol", s))
	}
	return nil
}

// Run connects, subscribes and reads until ctx is done, reconnecting after
// ReconnectDelay whenever the socket drops.
func (c *Client) Run(ctx context.Context) {
	for {
		err := c.Connect(ctx)
		if err == nil {
			err = c.Subscribe()
		}
		if err == nil {
			err = c.readLoop(ctx)
		}
		_ = c.Close()

		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("finnhub stream interrupted, reconnecting",
			applogger.Error(err), applogger.Duration("delay", c.cfg.ReconnectDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

func (c *Client) readLoop(ctx context.Context) error {
	c.writeMu.Lock()
	conn := c.conn
	c.writeMu.Unlock()
	if conn == nil {
		return fmt.Errorf("finnhub conn nil")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				// Unblock ReadMessage.
				_ = conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				c.writeMu.Lock()
				_ = conn.WriteMessage(websocket.PingMessage, nil)
				c.writeMu.Unlock()
			}
		}
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("finnhub read: %w", err)
		}
		var m fhMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			// ping frames and errors
			continue
		}
		c.apply(m.Data)
	}
}

func (c *Client) apply(trades []fhTrade) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range trades {
		if d.S == "" || d.P <= 0 {
			continue
		}
		ts := time.UnixMilli(d.T)
		if prev, ok := c.latest[d.S]; ok && prev.Timestamp.After(ts) {
			continue
		}
		c.latest[d.S] = models.MarketTick{
			Symbol:    models.NewSymbol(d.S, models.MarketUS, models.SecurityStock),
			Price:     decimal.NewFromFloat(d.P),
			Volume:    int64(d.V),
			Timestamp: ts,
		}
	}
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected.Store(false)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
