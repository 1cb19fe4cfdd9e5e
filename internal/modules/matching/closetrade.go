package matching

import (
	"context"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/pkg/tracing"

	"github.com/shopspring/decimal"
)

// CloseTrade is closeTrade(trade, closePrice, reason): SPEC_FULL.md
// §4.D. Exposed as a plain method so it can be handed to the risk
// engine as an injected function value (risk.handleBreach never
// imports this package — spec.md §9's "inject the collaborator"
// resolution of the matching<->risk cycle).
func (e *Engine) CloseTrade(ctx context.Context, t models.Trade, closePrice decimal.Decimal, reason models.ExitReason) {
	span, ctx := tracing.StartSpan(ctx, "matching.closeTrade")
	defer span.Finish()

	// Serialized with FillOrder and every other CloseTrade on this
	// account (spec.md §5) — the balance patch below is a
	// read-then-write over tradestate and would lose updates against a
	// concurrent close on the same account otherwise.
	e.locks.withAccountLock(t.AccountID, func() {
		e.closeTradeLocked(ctx, t, closePrice, reason)
	})
}

func (e *Engine) closeTradeLocked(ctx context.Context, t models.Trade, closePrice decimal.Decimal, reason models.ExitReason) {
	ins, ok := e.registry.GetContract(t.Symbol)
	tickValue := decimal.NewFromInt(1)
	if ok {
		tickValue = ins.TickValue
	}

	// 1. realized pnl delta, folding in the entry commission already in trade.PnL
	delta := t.RealizedPnLDelta(closePrice, tickValue)
	netPnL := delta.Add(t.PnL)

	// 2. mark closed
	now := time.Now()
	closed := t
	closed.TimeClosed = &now
	closed.ExitPrice = closePrice
	closed.ExitReason = reason
	closed.PnL = netPnL

	// 3. remove from open list, persist, emit
	e.state.RemoveOpenTrade(t.ID, closed)
	if err := e.trades.UpdateClosed(ctx, closed); err != nil {
		logInfo("failed to persist closed trade %s: %v", closed.ID, err)
	}
	e.publish(eventbus.TopicTradeEvents, models.TradeEvent{Type: models.EventTradeClosed, Trade: closed, Reason: string(reason)})

	// 4. apply to the account, with session-day rollover
	acct, ok := e.state.GetAccount(t.AccountID)
	if !ok {
		logInfo("closeTrade could not find account %s", t.AccountID)
		return
	}
	today := now.In(time.UTC).Truncate(24 * time.Hour)
	dailyRealized := acct.DailyRealizedPnL
	if !acct.SessionDay.Equal(today) {
		// session rolled over since the last close: today's counters start fresh
		dailyRealized = decimal.Zero
	}
	dailyRealized = dailyRealized.Add(netPnL)

	bestDay := acct.BestDayProfit
	if dailyRealized.GreaterThan(bestDay) {
		bestDay = dailyRealized
	}

	totalProfit := acct.TotalProfit.Add(netPnL)
	newBalance := acct.CurrentBalance.Add(netPnL)

	patch := models.Patch{
		CurrentBalance:   &newBalance,
		TotalProfit:      &totalProfit,
		BestDayProfit:    &bestDay,
		DailyRealizedPnL: &dailyRealized,
		SessionDay:       &today,
	}

	// 5. persist the account patch
	if _, ok := e.state.UpdateAccount(t.AccountID, patch); !ok {
		logInfo("closeTrade failed to apply account patch for %s", t.AccountID)
	}
	if err := e.accounts.ApplyBalancePatch(ctx, t.AccountID, patch); err != nil {
		logInfo("failed to persist account balance patch for %s: %v", t.AccountID, err)
	}
}
