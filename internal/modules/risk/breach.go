package risk

import (
	"context"
	"encoding/json"

	"propfirm-core/internal/models"
	"propfirm-core/internal/modules/eventbus"

	"github.com/shopspring/decimal"
)

const (
	slippageBase        = 0.0001
	liquidityGapFactor  = 0.25
)

// handleBreach is SPEC_FULL.md §4.E's handleBreach: persist the new
// account status/blown_reason, then close every open position on the
// breached symbol path independently of the tick that caused it,
// avoiding recursion into processTick.
func (e *Engine) handleBreach(ctx context.Context, acct models.Account, symbol string, tickPrice decimal.Decimal, reason models.ExitReason, code models.ErrorCode) {
	status := models.AccountBlown
	blownReason := code
	updated, ok := e.state.UpdateAccount(acct.ID, models.Patch{Status: &status, BlownReason: &blownReason})
	if !ok {
		logInfo("handleBreach failed to apply blown patch for account %s", acct.ID)
	}
	e.auditLog(ctx, "ACCOUNT_BLOWN", string(code))
	if e.bus != nil {
		_ = e.bus.Publish(eventbus.TopicAccountEvents, updated)
	}

	for _, t := range e.state.GetOpenTradesByAccount(acct.ID) {
		exitPx := applySlippage(t.EntryPrice, tickPrice, t.Side)
		e.close(ctx, t, exitPx, reason)
	}

	payload, _ := json.Marshal(struct {
		AccountID string `json:"account_id"`
		Symbol    string `json:"symbol"`
		Reason    string `json:"reason"`
	}{acct.ID, symbol, string(reason)})
	e.auditLog(ctx, "LIQUIDATION", string(payload))
}

// applySlippage is the breach-exit slippage model (SPEC_FULL.md §4.E):
// normal SL/TP exits use the tick price directly, only liquidation
// exits pay this adverse adjustment. liquidityGap is modeled as the
// absolute distance between entry and tick price (the matching engine's
// fillOrder instead uses the gap between consecutive marks).
func applySlippage(entryPrice, tickPrice decimal.Decimal, side models.Side) decimal.Decimal {
	liquidityGap := tickPrice.Sub(entryPrice).Abs()
	slip := entryPrice.Mul(decimal.NewFromFloat(slippageBase)).Add(liquidityGap.Mul(decimal.NewFromFloat(liquidityGapFactor)))
	if side == models.SideBuy {
		return tickPrice.Add(slip)
	}
	return tickPrice.Sub(slip)
}
