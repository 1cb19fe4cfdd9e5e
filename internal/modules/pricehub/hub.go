package pricehub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"propfirm-core/internal/modules/config"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/internal/modules/registry"
	"propfirm-core/internal/models"

	"github.com/shopspring/decimal"
)

const (
	priceHashFlushInterval = 200 * time.Millisecond
	tickPushInterval       = time.Second
	depthFlushInterval     = 500 * time.Millisecond
)

// Hub is the Price Hub's publication path: upstream ticks in, KV
// writes (batched/throttled), bus events, matching hand-off out.
type Hub struct {
	cfg      *config.Config
	registry *registry.Registry
	kv       KVWriter
	bus      Publisher
	sink     TickSink

	ticks chan upstreamTick

	mu           sync.Mutex
	pendingHash  map[string]upstreamTick
	lastPush     map[string]time.Time
	lastMark     map[string]decimal.Decimal
	depthDirty   map[string]struct{}
}

func New(cfg *config.Config, reg *registry.Registry, kv KVWriter, bus Publisher, sink TickSink) *Hub {
	return &Hub{
		cfg:         cfg,
		registry:    reg,
		kv:          kv,
		bus:         bus,
		sink:        sink,
		ticks:       make(chan upstreamTick, 4096),
		pendingHash: make(map[string]upstreamTick),
		lastPush:    make(map[string]time.Time),
		lastMark:    make(map[string]decimal.Decimal),
		depthDirty:  make(map[string]struct{}),
	}
}

// Run starts one upstream connection per configured feed URL, the KV
// flush loops, and the tick-consumer loop, until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for _, url := range h.cfg.UpstreamFeedURLs {
		s := newUpstreamStream(url, h.cfg, h.ticks)
		go s.run(ctx)
	}

	go h.flushLoop(ctx, priceHashFlushInterval, h.flushLatestPrices)
	go h.flushLoop(ctx, depthFlushInterval, h.flushDepth)

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-h.ticks:
			h.handleTick(ctx, t)
		}
	}
}

func (h *Hub) flushLoop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (h *Hub) handleTick(ctx context.Context, raw upstreamTick) {
	symbol := h.registry.NormalizeSymbol(raw.Symbol)
	if _, ok := h.registry.GetContract(symbol); !ok {
		return
	}
	t := upstreamTick{Symbol: symbol, Price: raw.Price, TsMs: raw.TsMs}

	h.mu.Lock()
	// Identical consecutive price on the same symbol is a no-op: suppress
	// it before it ever reaches the last-price hash or the bus (spec.md
	// §3 Tick invariant).
	if prev, ok := h.lastMark[symbol]; ok && prev.Equal(t.Price) {
		h.mu.Unlock()
		return
	}
	h.pendingHash[symbol] = t
	h.lastMark[symbol] = t.Price
	h.depthDirty[symbol] = struct{}{}
	shouldPushTick := time.Since(h.lastPush[symbol]) >= tickPushInterval
	if shouldPushTick {
		h.lastPush[symbol] = time.Now()
	}
	h.mu.Unlock()

	if shouldPushTick {
		priceStr := t.Price.String()
		if err := h.kv.PushTick(ctx, symbol, priceStr, t.TsMs, 1000); err != nil {
			logInfo("push tick failed for %s: %v", symbol, err)
		}
	}

	// emit to the internal tick channel consumed by matching/risk
	h.sink.ProcessTick(ctx, symbol, t.Price)

	// emit to the event bus for WS broadcast / observers
	_ = h.bus.Publish(eventbus.TopicPriceTicks, models.PriceTickEvent{Symbol: symbol, Price: t.Price.String(), TsMs: t.TsMs})
}

func (h *Hub) flushLatestPrices(ctx context.Context) {
	h.mu.Lock()
	batch := h.pendingHash
	h.pendingHash = make(map[string]upstreamTick, len(batch))
	h.mu.Unlock()

	for symbol, t := range batch {
		if err := h.kv.SetLatestPrice(ctx, symbol, t.Price.String(), t.TsMs); err != nil {
			logInfo("set latest price failed for %s: %v", symbol, err)
		}
	}
}

// flushDepth synthesizes a one-level orderbook around the last mark
// and spread, since the simulated feed carries no native depth stream
// (see DESIGN.md): a best bid/ask derived from spread is sufficient
// for the snapshot contract the gateway and WS clients rely on.
func (h *Hub) flushDepth(ctx context.Context) {
	h.mu.Lock()
	dirty := h.depthDirty
	h.depthDirty = make(map[string]struct{}, len(dirty))
	marks := make(map[string]decimal.Decimal, len(dirty))
	for symbol := range dirty {
		marks[symbol] = h.lastMark[symbol]
	}
	h.mu.Unlock()

	for symbol, mark := range marks {
		ins, ok := h.registry.GetContract(symbol)
		if !ok {
			continue
		}
		half := ins.Spread.Div(decimal.NewFromInt(2))
		book := models.DepthSnapshot{
			Symbol: symbol,
			Bids:   []models.DepthLevel{{Price: mark.Sub(half), Qty: ins.MinQty.Mul(decimal.NewFromInt(10))}},
			Asks:   []models.DepthLevel{{Price: mark.Add(half), Qty: ins.MinQty.Mul(decimal.NewFromInt(10))}},
			TsMs:   time.Now().UnixMilli(),
		}
		payload, err := json.Marshal(book)
		if err != nil {
			continue
		}
		if err := h.kv.SetOrderbook(ctx, symbol, payload, 10*time.Second); err != nil {
			logInfo("set orderbook failed for %s: %v", symbol, err)
		}
		_ = h.bus.Publish(eventbus.OrderbookTopic(symbol), models.OrderbookEvent{Symbol: symbol, Bids: book.Bids, Asks: book.Asks, TsMs: book.TsMs})
	}
}
