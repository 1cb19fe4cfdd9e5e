package risk

import (
	"context"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/pkg/tracing"

	"github.com/shopspring/decimal"
)

// PreTradeRiskCheck is preTradeRiskCheck(account_id, symbol, quantity):
// SPEC_FULL.md §4.E. A pure function over a fresh account fetch and
// instrument metadata; it never mutates state.
func (e *Engine) PreTradeRiskCheck(ctx context.Context, accountID, symbol string, quantity decimal.Decimal) models.Result {
	span, _ := tracing.StartSpan(ctx, "risk.preTradeRiskCheck")
	defer span.Finish()

	acct, ok := e.state.GetAccount(accountID)
	if !ok {
		return models.Fail(models.ErrAccountNotFound)
	}
	if !acct.IsTradable() {
		return models.Fail(models.ErrAccountInactive)
	}

	ins, ok := e.registry.GetContract(symbol)
	if !ok {
		return models.Fail(models.ErrSymbolNotSupported)
	}

	if !e.registry.IsWithinTradingHours(symbol, time.Now()) {
		return models.Fail(models.ErrMarketClosed)
	}

	maxLots := ins.MaxLotsFor(acct.Tier)
	if maxLots.IsPositive() && quantity.GreaterThan(maxLots) {
		return models.Fail(models.ErrMaxLotSize)
	}
	if !lotShapeValid(quantity, ins.MinQty, ins.QtyStep) {
		return models.Fail(models.ErrInvalidLotSize)
	}

	if dailyLossBreached(acct) {
		return models.Fail(models.ErrDailyLossLimit)
	}

	return models.Ok()
}

func lotShapeValid(quantity, minQty, qtyStep decimal.Decimal) bool {
	if quantity.LessThan(minQty) {
		return false
	}
	if !qtyStep.IsZero() && !quantity.Mod(qtyStep).IsZero() {
		return false
	}
	return true
}

func dailyLossBreached(acct models.Account) bool {
	if acct.DailyLossLimit.IsZero() {
		return false
	}
	return acct.DailyRealizedPnL.LessThanOrEqual(acct.DailyLossLimit.Neg())
}
