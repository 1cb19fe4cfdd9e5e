package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExitReason string

const (
	ExitSLHit             ExitReason = "SL Hit"
	ExitTPHit             ExitReason = "TP Hit"
	ExitDailyLossLimit    ExitReason = "DAILY_LOSS_LIMIT"
	ExitMaxLoss           ExitReason = "MAX_LOSS"
	ExitTrailingDrawdown  ExitReason = "TRAILING_DRAWDOWN"
	ExitMaxIntradayLoss   ExitReason = "MAX_INTRADAY_LOSS"
	ExitDailyReset        ExitReason = "DAILY_RESET"
	ExitManual            ExitReason = "MANUAL"
)

// Trade is an open or closed position. IsOpen is true iff TimeClosed
// is nil — a trade arena keyed by ID, never a bidirectional
// trade<->account pointer (per spec.md §9).
type Trade struct {
	ID          string
	AccountID   string
	Symbol      string
	Side        Side
	Quantity    decimal.Decimal
	EntryPrice  decimal.Decimal
	StopLoss    *decimal.Decimal
	TakeProfit  *decimal.Decimal
	TimeOpened  time.Time
	PnL         decimal.Decimal // starts at -commission*quantity, folds in realized pnl on close
	OrderID     string

	TimeClosed *time.Time
	ExitPrice  decimal.Decimal
	ExitReason ExitReason
}

func (t Trade) IsOpen() bool { return t.TimeClosed == nil }

// CrossesStop reports whether the tick price triggers this trade's SL
// or TP, per spec.md §4.D step 4. Callers must separately enforce the
// SLTP_GRACE_MS grace period before calling this.
func (t Trade) CrossesStop(price decimal.Decimal) (ExitReason, bool) {
	switch t.Side {
	case SideBuy:
		if t.StopLoss != nil && price.LessThanOrEqual(*t.StopLoss) {
			return ExitSLHit, true
		}
		if t.TakeProfit != nil && price.GreaterThanOrEqual(*t.TakeProfit) {
			return ExitTPHit, true
		}
	case SideSell:
		if t.StopLoss != nil && price.GreaterThanOrEqual(*t.StopLoss) {
			return ExitSLHit, true
		}
		if t.TakeProfit != nil && price.LessThanOrEqual(*t.TakeProfit) {
			return ExitTPHit, true
		}
	}
	return "", false
}

// UnrealizedPnL computes upnl = (price-entry)*qty*tickValue for buys,
// negated for sells, per spec.md §4.D step 2.
func (t Trade) UnrealizedPnL(price, tickValue decimal.Decimal) decimal.Decimal {
	delta := price.Sub(t.EntryPrice).Mul(t.Quantity).Mul(tickValue)
	if t.Side == SideSell {
		return delta.Neg()
	}
	return delta
}

// RealizedPnLDelta computes pnl_delta = (closePrice-entry)*qty*tickValue
// for buys, negated for sells, per spec.md §4.D closeTrade step 1.
func (t Trade) RealizedPnLDelta(closePrice, tickValue decimal.Decimal) decimal.Decimal {
	delta := closePrice.Sub(t.EntryPrice).Mul(t.Quantity).Mul(tickValue)
	if t.Side == SideSell {
		return delta.Neg()
	}
	return delta
}
