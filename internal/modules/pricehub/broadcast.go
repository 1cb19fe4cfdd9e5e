package pricehub

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"propfirm-core/internal/modules/config"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/internal/modules/registry"
	"propfirm-core/internal/models"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const maxClientBufferBytes = 1 << 20 // 1 MB

// Client is one downstream WS connection. Subscriptions, empty means
// "all symbols" per the welcome/subscribe contract.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	subs   map[string]struct{}
	bufLen int
	gotPong bool
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn, send: make(chan []byte, 256), subs: make(map[string]struct{})}
}

func (c *Client) subscribe(symbol string) {
	c.mu.Lock()
	c.subs[symbol] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) unsubscribe(symbol string) {
	c.mu.Lock()
	delete(c.subs, symbol)
	c.mu.Unlock()
}

func (c *Client) wantsSymbol(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) == 0 {
		return true
	}
	_, ok := c.subs[symbol]
	return ok
}

// Broadcaster fans out event-bus topics to subscribed WS clients,
// subject to a single process-wide token bucket (MAX_BROADCAST_TPS)
// and per-client backpressure/heartbeat rules (SPEC_FULL.md §4.C/§5).
type Broadcaster struct {
	cfg      *config.Config
	bus      *eventbus.Bus
	registry *registry.Registry
	limiter  *rate.Limiter

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewBroadcaster(cfg *config.Config, bus *eventbus.Bus, reg *registry.Registry) *Broadcaster {
	return &Broadcaster{
		cfg:      cfg,
		bus:      bus,
		registry: reg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.MaxBroadcastTPS), cfg.MaxBroadcastTPS),
		clients:  make(map[*Client]struct{}),
	}
}

// Start attaches the broadcaster to every bus topic it mirrors to
// clients — the fixed topics plus one orderbook_{symbol} topic per
// instrument currently in the registry — and runs the heartbeat loop,
// until ctx is done.
func (b *Broadcaster) Start(ctx context.Context) {
	topics := []string{eventbus.TopicPriceTicks, eventbus.TopicTradeEvents, eventbus.TopicOrderEvents, eventbus.TopicAccountEvents}
	for _, symbol := range b.registry.AllSymbols() {
		topics = append(topics, eventbus.OrderbookTopic(symbol))
	}
	for _, topic := range topics {
		ch := b.bus.Subscribe(topic)
		topic := topic
		go eventbus.Run(ctx, ch, func(payload any) {
			b.fanOut(topic, payload)
		})
	}
	go b.heartbeatLoop(ctx)
}

func (b *Broadcaster) fanOut(topic string, payload any) {
	if !b.limiter.Allow() {
		return // excess dropped, not queued (spec.md §4.C)
	}

	symbol, msgType := symbolAndType(topic, payload)
	envelope := map[string]any{"type": msgType}
	switch p := payload.(type) {
	case models.PriceTickEvent:
		envelope["symbol"] = p.Symbol
		envelope["price"] = p.Price
		envelope["ts"] = p.TsMs
	case models.OrderbookEvent:
		envelope["symbol"] = p.Symbol
		envelope["bids"] = p.Bids
		envelope["asks"] = p.Asks
		envelope["ts"] = p.TsMs
	case models.TradeEvent:
		envelope["trade"] = p.Trade
		envelope["reason"] = p.Reason
	case models.OrderEvent:
		envelope["order"] = p.Order
		envelope["reason"] = p.Reason
	case models.Account:
		envelope["account"] = p
	case models.AccountUPnLEvent:
		envelope["account_id"] = p.AccountID
		envelope["symbol"] = p.Symbol
		envelope["upnl"] = p.UPnL
	default:
		return
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		if symbol != "" && !c.wantsSymbol(symbol) {
			continue
		}
		c.mu.Lock()
		tooFull := c.bufLen+len(body) > maxClientBufferBytes
		c.mu.Unlock()
		if tooFull {
			continue // slow consumer, skip this message
		}
		select {
		case c.send <- body:
			c.mu.Lock()
			c.bufLen += len(body)
			c.mu.Unlock()
		default:
		}
	}
}

func symbolAndType(topic string, payload any) (symbol, msgType string) {
	switch p := payload.(type) {
	case models.PriceTickEvent:
		return p.Symbol, "price"
	case models.OrderbookEvent:
		return p.Symbol, "orderbook"
	case models.TradeEvent:
		if p.Type == models.EventTradeOpened {
			return p.Trade.Symbol, "trade_fill"
		}
		return p.Trade.Symbol, "trade_close"
	case models.OrderEvent:
		switch p.Type {
		case models.EventOrderPending:
			return p.Order.Symbol, "order_pending"
		case models.EventOrderReject:
			return p.Order.Symbol, "order_reject"
		default:
			return p.Order.Symbol, "order_filled"
		}
	case models.Account:
		return "", "account_update"
	case models.AccountUPnLEvent:
		return "", "account_upnl"
	default:
		return "", strings.TrimPrefix(topic, "orderbook_")
	}
}

func (b *Broadcaster) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.pingAll()
		}
	}
}

func (b *Broadcaster) pingAll() {
	b.mu.Lock()
	targets := make([]*Client, 0, len(b.clients))
	for c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	for _, c := range targets {
		c.mu.Lock()
		hadPong := c.gotPong
		c.gotPong = false
		c.mu.Unlock()
		if !hadPong {
			b.remove(c)
			_ = c.conn.Close()
			continue
		}
		_ = c.conn.WriteMessage(websocket.PingMessage, nil)
	}
}

// ClientCount reports the number of live downstream WS connections,
// exposed by the gateway's /health handler.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) add(c *Client) {
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
}

func (b *Broadcaster) remove(c *Client) {
	b.mu.Lock()
	delete(b.clients, c)
	b.mu.Unlock()
	close(c.send)
}

// Serve drives one accepted connection: write pump plus read pump for
// subscribe/unsubscribe control messages, until the connection drops.
func (b *Broadcaster) Serve(ctx context.Context, conn *websocket.Conn) {
	c := newClient(conn)
	c.gotPong = true
	conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.gotPong = true
		c.mu.Unlock()
		return nil
	})
	b.add(c)
	defer b.remove(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for body := range c.send {
			c.mu.Lock()
			c.bufLen -= len(body)
			c.mu.Unlock()
			if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var ctrl struct {
			Type   string `json:"type"`
			Symbol string `json:"symbol"`
		}
		if err := json.Unmarshal(msg, &ctrl); err != nil {
			continue
		}
		switch ctrl.Type {
		case "subscribe":
			c.subscribe(ctrl.Symbol)
		case "unsubscribe":
			c.unsubscribe(ctrl.Symbol)
		}
	}
	_ = conn.Close()
	<-done
}
