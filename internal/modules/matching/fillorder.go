package matching

import (
	"context"
	"math/rand"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/pkg/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultMaxSlippage = 5

// FillOrder is fillOrder(order, basePrice, prevPrice): SPEC_FULL.md
// §4.D. Fills for a single account never interleave — the account
// mutex spans the artificial execution-latency wait, the one
// documented exception to "no critical section spans a suspension".
func (e *Engine) FillOrder(ctx context.Context, o models.Order, basePrice, prevPrice decimal.Decimal) {
	e.locks.withAccountLock(o.AccountID, func() {
		e.fillOrderLocked(ctx, o, basePrice, prevPrice)
	})
}

func (e *Engine) fillOrderLocked(ctx context.Context, o models.Order, basePrice, prevPrice decimal.Decimal) {
	span, ctx := tracing.StartSpan(ctx, "matching.fillOrder")
	defer span.Finish()

	time.Sleep(e.cfg.ExecutionLatencyMS)

	ins, ok := e.registry.GetContract(o.Symbol)
	if !ok {
		e.rejectFill(ctx, o, models.ErrSymbolNotSupported)
		return
	}

	maxSlip := ins.MaxSlippage
	if maxSlip.IsZero() {
		maxSlip = decimal.NewFromInt(defaultMaxSlippage)
	}
	moveSlip := basePrice.Sub(prevPrice).Abs().Mul(decimal.NewFromFloat(0.2))
	slippage := decimal.Min(moveSlip, maxSlip)

	adverse := ins.Spread.Add(slippage)
	var execPrice decimal.Decimal
	if o.Side == models.SideBuy {
		execPrice = basePrice.Add(adverse)
	} else {
		execPrice = basePrice.Sub(adverse)
	}

	filled := o.Quantity
	var remainder decimal.Decimal
	if e.cfg.EnablePartialFills {
		r := 0.5 + rand.Float64()*0.5
		step := ins.QtyStep
		if step.IsZero() {
			step = decimal.NewFromInt(1)
		}
		units := o.Quantity.Div(step).Mul(decimal.NewFromFloat(r)).Floor()
		if units.LessThan(decimal.NewFromInt(1)) {
			units = decimal.NewFromInt(1)
		}
		filled = units.Mul(step)
		if filled.GreaterThan(o.Quantity) {
			filled = o.Quantity
		}
		remainder = o.Quantity.Sub(filled)
	}

	acct, ok := e.state.GetAccount(o.AccountID)
	if !ok {
		e.rejectFill(ctx, o, models.ErrAccountNotFound)
		return
	}
	hypothetical := acct.CurrentBalance.Sub(ins.Commission.Mul(filled))
	if res := e.risk.EvaluateImmediateRisk(ctx, o.AccountID, hypothetical); !res.OK {
		e.rejectFill(ctx, o, res.Code)
		return
	}

	if remainder.IsPositive() {
		if remainder.LessThan(ins.MinQty) {
			// Below the instrument's minimum tradable size: drop rather
			// than requeue or force-fill at a loss (SPEC_FULL.md §9).
			logInfo("dropping sub-minQty partial-fill remainder %s for order %s (%s < %s)",
				remainder, o.ID, remainder, ins.MinQty)
		} else {
			remOrder := o
			remOrder.ID = uuid.NewString()
			remOrder.Quantity = remainder
			remOrder.LimitPrice = execPrice
			remOrder.Status = models.OrderPending
			e.state.AddPendingOrder(remOrder)
			if err := e.orders.InsertPending(ctx, remOrder); err != nil {
				logInfo("failed to persist partial-fill remainder %s: %v", remOrder.ID, err)
			}
		}
	}

	if o.Status == models.OrderPending {
		e.state.RemovePendingOrder(o.ID)
		if err := e.orders.DeletePending(ctx, o.ID); err != nil {
			logInfo("failed to delete filled pending order %s: %v", o.ID, err)
		}
	}

	now := time.Now()
	trade := models.Trade{
		ID:         uuid.NewString(),
		AccountID:  o.AccountID,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Quantity:   filled,
		EntryPrice: execPrice,
		StopLoss:   o.StopLoss,
		TakeProfit: o.TakeProfit,
		TimeOpened: now,
		PnL:        ins.Commission.Mul(filled).Neg(),
		OrderID:    o.ID,
	}
	e.state.AddOpenTrade(trade)
	if err := e.trades.InsertOpen(ctx, trade); err != nil {
		logInfo("failed to persist opened trade %s: %v", trade.ID, err)
	}
	e.publish(eventbus.TopicTradeEvents, models.TradeEvent{Type: models.EventTradeOpened, Trade: trade})
	e.publish(eventbus.TopicOrderEvents, models.OrderEvent{Type: models.EventOrderFilled, Order: o})
}

func (e *Engine) rejectFill(ctx context.Context, o models.Order, code models.ErrorCode) {
	if o.Status == models.OrderPending {
		e.state.RemovePendingOrder(o.ID)
		if err := e.orders.DeletePending(ctx, o.ID); err != nil {
			logInfo("failed to delete pending order %s on rejected fill: %v", o.ID, err)
		}
	}
	if err := e.orders.MarkRejected(ctx, o.ID, code); err != nil {
		logInfo("failed to mark order %s rejected: %v", o.ID, err)
	}
	e.publish(eventbus.TopicOrderEvents, models.OrderEvent{Type: models.EventOrderReject, Order: o, Reason: string(code)})
}
