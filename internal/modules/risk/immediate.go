package risk

import (
	"context"

	"propfirm-core/internal/models"
	"propfirm-core/pkg/tracing"

	"github.com/shopspring/decimal"
)

// EvaluateImmediateRisk is evaluateImmediateRisk(account_id,
// hypotheticalBalance): SPEC_FULL.md §4.E. Same account fetch as
// PreTradeRiskCheck, plus max-loss and trailing-drawdown tests against
// the hypothetical post-fill balance. Invoked once after execution
// latency, before the trade is written.
func (e *Engine) EvaluateImmediateRisk(ctx context.Context, accountID string, hypotheticalBalance decimal.Decimal) models.Result {
	span, _ := tracing.StartSpan(ctx, "risk.evaluateImmediateRisk")
	defer span.Finish()

	acct, ok := e.state.GetAccount(accountID)
	if !ok {
		return models.Fail(models.ErrAccountNotFound)
	}
	if !acct.IsTradable() {
		return models.Fail(models.ErrAccountInactive)
	}

	if staticMaxLossBreached(acct, hypotheticalBalance) {
		return models.Fail(models.ErrMaxLoss)
	}

	if floor, ok := trailingDDFloor(acct); ok && hypotheticalBalance.LessThanOrEqual(floor) {
		return models.Fail(models.ErrTrailingDrawdown)
	}

	return models.Ok()
}

func staticMaxLossBreached(acct models.Account, balance decimal.Decimal) bool {
	if acct.MaxLoss.IsZero() {
		return false
	}
	return balance.LessThanOrEqual(acct.StartBalance.Sub(acct.MaxLoss))
}

// trailingDDFloor computes ddFloor per SPEC_FULL.md §4.E's trailing
// drawdown math. Peak advances only while the account is LIVE; once
// passed/FROZEN the floor is pinned at the last peak.
func trailingDDFloor(acct models.Account) (decimal.Decimal, bool) {
	if acct.TrailDrawdown.IsZero() {
		return decimal.Zero, false
	}
	peak := acct.PeakBalance
	if peak.IsZero() {
		peak = acct.StartBalance
	}
	startFloor := acct.StartBalance.Sub(acct.TrailDrawdown)
	peakFloor := peak.Sub(acct.TrailDrawdown)
	if acct.IsLive() {
		if peakFloor.GreaterThan(startFloor) {
			return peakFloor, true
		}
		return startFloor, true
	}
	return peakFloor, true
}
