package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repository.Provider = (*Client)(nil)

func TestStreamServesLatestTrade(t *testing.T) {
	t.Parallel()

	subscribed := make(chan string, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribed <- sub["symbol"]

		now := time.Now().UnixMilli()
		_ = conn.WriteJSON(map[string]any{"type": "ping"})
		_ = conn.WriteJSON(map[string]any{
			"type": "trade",
			"data": []map[string]any{
				{"s": "AAPL", "p": 190.5, "v": 10, "t": now},
				{"s": "AAPL", "p": 189.0, "v": 5, "t": now - 1000},
			},
		})
		// Hold the socket open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	c := New(Config{
		APIKey:       "secret",
		WebSocketURL: "ws" + strings.TrimPrefix(srv.URL, "http"),
		Symbols:      []string{"AAPL"},
	}, nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Equal(t, "AAPL", <-subscribed)
	aapl := models.NewSymbol("AAPL", models.MarketUS, models.SecurityStock)
	require.Eventually(t, func() bool {
		_, ok := c.GetQuote(t.Context(), aapl)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	tick, _ := c.GetQuote(t.Context(), aapl)
	require.Equal(t, "190.5", tick.Price.String())
	require.True(t, c.HealthCheck(t.Context()))

	_, ok := c.GetQuote(t.Context(), models.NewSymbol("AAPL", models.MarketSH, models.SecurityStock))
	require.False(t, ok)
	require.Empty(t, c.GetCandles(t.Context(), aapl, models.Period1d, 10))

	cancel()
	<-done
	require.False(t, c.IsConnected())
}

func TestStaleTradeIsAbsent(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	c := New(Config{StaleAfter: time.Minute}, nil)
	c.now = func() time.Time { return now }
	c.apply([]fhTrade{{S: "MSFT", P: 400, V: 1, T: now.Add(-2 * time.Minute).UnixMilli()}})

	_, ok := c.GetQuote(t.Context(), models.NewSymbol("MSFT", models.MarketUS, models.SecurityStock))
	require.False(t, ok)
	require.False(t, c.HealthCheck(t.Context()))
}

func TestRunStopsWhenDialFails(t *testing.T) {
	t.Parallel()

	c := New(Config{WebSocketURL: "ws://127.0.0.1:1", ReconnectDelay: 10 * time.Millisecond}, nil)
	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	c.Run(ctx)
	require.False(t, c.IsConnected())
}
