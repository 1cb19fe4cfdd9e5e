package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderFilled   OrderStatus = "filled"
	OrderRejected OrderStatus = "rejected"
)

// Order is a request to trade, either a resting limit order or a
// market order that is expected to fill synchronously.
type Order struct {
	ID             string
	AccountID      string
	UserID         string
	Symbol         string
	Side           Side
	Quantity       decimal.Decimal
	Type           OrderType
	LimitPrice     decimal.Decimal
	StopLoss       *decimal.Decimal
	TakeProfit     *decimal.Decimal
	IdempotencyKey string
	CreatedAt      time.Time
	Status         OrderStatus
	FilledAt       *time.Time
	RejectReason   ErrorCode
}

// FillEligible reports whether a pending limit order is triggered by
// the given tick price, per spec.md §4.D step 3.
func (o Order) FillEligible(price decimal.Decimal) bool {
	switch o.Side {
	case SideBuy:
		return price.LessThanOrEqual(o.LimitPrice)
	case SideSell:
		return price.GreaterThanOrEqual(o.LimitPrice)
	default:
		return false
	}
}
