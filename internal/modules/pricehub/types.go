// Package pricehub is the Price Hub (SPEC_FULL.md §4.C): supervised
// upstream WebSocket ingest, KV publication (batched/throttled), the
// internal tick channel matching/risk consume, and the downstream
// broadcast to WS clients (rate-limited, subscription-filtered).
//
// Upstream ingest is grounded on the teacher's internal/exchange/ws.go
// StreamCandlesBatch (one gorilla/websocket dial per stream, periodic
// keepalive ping, reconnect-on-error loop), generalized from OKX's
// candle channel to a generic trade/depth stream with backoff cap and
// a read watchdog.
package pricehub

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TickSink receives a normalized tick for downstream fan-out. The
// matching engine's ProcessTick satisfies this directly.
type TickSink interface {
	ProcessTick(ctx context.Context, symbol string, price decimal.Decimal)
}

// KVWriter is the subset of rediskv.Store the hub needs.
type KVWriter interface {
	SetLatestPrice(ctx context.Context, symbol, price string, tsMs int64) error
	PushTick(ctx context.Context, symbol, price string, tsMs int64, cap int64) error
	SetOrderbook(ctx context.Context, symbol string, payload []byte, ttl time.Duration) error
}

// Publisher is the narrow event-bus dependency.
type Publisher interface {
	Publish(topic string, payload any) error
}

// upstreamTick is the parsed shape of one trade-stream message, before
// symbol normalization.
type upstreamTick struct {
	Symbol string
	Price  decimal.Decimal
	TsMs   int64
}
