package models

import "github.com/shopspring/decimal"

// EventType tags the payload carried on the trade_events / order_events
// channels of the event bus (spec.md §4.F).
type EventType string

const (
	EventTradeOpened  EventType = "TRADE_OPENED"
	EventTradeClosed  EventType = "TRADE_CLOSED"
	EventOrderPending EventType = "ORDER_PENDING"
	EventOrderFilled  EventType = "ORDER_FILLED"
	EventOrderReject  EventType = "ORDER_REJECTED"
	EventAccountUPnL  EventType = "account_upnl"
	EventAccountUpdate EventType = "account_update"
)

// TradeEvent is the payload shape published on the trade_events topic.
type TradeEvent struct {
	Type   EventType
	Trade  Trade
	Reason string
}

// OrderEvent is the payload shape published on the order_events topic.
type OrderEvent struct {
	Type   EventType
	Order  Order
	Reason string
}

// PriceTickEvent is the payload shape published on the price_ticks topic.
type PriceTickEvent struct {
	Symbol string
	Price  string // decimal string, wire-friendly
	TsMs   int64
}

// OrderbookEvent is the payload shape published on orderbook_{symbol}.
type OrderbookEvent struct {
	Symbol string
	Bids   []DepthLevel
	Asks   []DepthLevel
	TsMs   int64
}

// AccountUPnLEvent is the per-tick unrealized-PnL payload published on
// the account_events topic; AccountBlownEvent-equivalent full account
// snapshots are published as a plain Account on the same topic.
type AccountUPnLEvent struct {
	AccountID string
	Symbol    string
	UPnL      decimal.Decimal
}

// AuditLogEntry mirrors a trade_audit_logs / order_audit row.
type AuditLogEntry struct {
	Event     string
	Payload   string // JSON-encoded
	CreatedAt int64  // unix ms
}
