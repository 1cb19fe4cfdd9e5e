// Package gateway is the thin HTTP/WS adapter of SPEC_FULL.md §4.I: it
// implements exactly the wire contracts of spec.md §6 and contains no
// business logic, translating request framing into calls on the
// matching engine, the trade-state snapshot and the KV store.
package gateway

import (
	"context"
	"time"

	"propfirm-core/internal/models"

	"github.com/shopspring/decimal"
)

// OrderGate is the narrow matching-engine dependency the gateway
// drives from POST /place-order.
type OrderGate interface {
	PlaceOrder(ctx context.Context, o models.Order) models.Result
}

// StateReader is the narrow trade-state dependency behind the WS
// welcome/sync_state snapshot.
type StateReader interface {
	GetAccounts() []models.Account
	GetAccount(id string) (models.Account, bool)
	GetPendingOrders() []models.Order
	GetOpenTrades() []models.Trade
}

// candle is the OHLCV shape returned by GET /candles, bucketed
// client-side from the ticks:{symbol} ring — the aggregator itself is
// out of scope (spec.md §1 Non-goals), this is the minimal derivation
// needed to answer the wire contract.
type candle struct {
	TsMs  int64           `json:"ts"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

var intervalDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
}
