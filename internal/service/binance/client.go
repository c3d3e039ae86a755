package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"QuantPulse/internal/domain/models"
	drepo "QuantPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the Binance kline WebSocket.
// Only closed candles are emitted downstream.
type Client struct {
	websocketURL   string
	symbols        []string
	timeframe      drepo.Timeframe
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
	subID     int
}

// New creates a new Binance MarketStream.
func New(websocketURL string, symbols []string, tf drepo.Timeframe, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Client{
		websocketURL:   websocketURL,
		symbols:        symbols,
		timeframe:      tf,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("binance: connected")
	return nil
}

// Subscribe subscribes to the kline streams of the configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("binance not connected")
	}
	params := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		params = append(params, fmt.Sprintf("%s@kline_%s", strings.ToLower(s), c.timeframe))
	}
	c.subID++
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     c.subID,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %v: %w", params, err)
	}
	log.Printf("binance: subscribed %v", params)
	return nil
}

type wsKline struct {
	Start  int64  `json:"t"` // ms
	Open   string `json:"o"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Close  string `json:"c"`
	Volume string `json:"v"`
	Closed bool   `json:"x"`
}

type wsMessage struct {
	Event  string  `json:"e"`
	Symbol string  `json:"s"`
	Kline  wsKline `json:"k"`
}

// Read streams closed Bars and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Bar, <-chan error) {
	bars := make(chan *models.Bar, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(bars)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-kline frames (subscribe acks etc.)
					continue
				}
				if m.Event != "kline" || !m.Kline.Closed {
					continue
				}
				bar, err := m.Kline.toBar(m.Symbol)
				if err != nil {
					continue
				}
				select {
				case bars <- bar:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return bars, errs
}

func (k wsKline) toBar(symbol string) (*models.Bar, error) {
	o, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return nil, err
	}
	h, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return nil, err
	}
	l, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return nil, err
	}
	cl, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return nil, err
	}
	return &models.Bar{
		Time:   time.Unix(k.Start/1000, 0).UTC(),
		Symbol: symbol,
		Open:   o,
		High:   h,
		Low:    l,
		Close:  cl,
		Volume: v,
	}, nil
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
