package risk

import (
	"context"
	"time"

	"propfirm-core/internal/models"

	"github.com/shopspring/decimal"
)

// EvaluateOpenPositions is evaluateOpenPositions(symbol, price):
// SPEC_FULL.md §4.E. Iterates every account holding a position on
// symbol and applies the rule matrix in order; breaches liquidate via
// the injected CloseTradeFunc, never by recursing into processTick.
func (e *Engine) EvaluateOpenPositions(ctx context.Context, symbol string, price decimal.Decimal) {
	trades := e.state.GetOpenTradesBySymbol(symbol)
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if _, already := seen[t.AccountID]; already {
			continue
		}
		seen[t.AccountID] = struct{}{}
		e.evaluateAccount(ctx, t.AccountID, symbol, price)
	}
}

func (e *Engine) evaluateAccount(ctx context.Context, accountID, symbol string, price decimal.Decimal) {
	acct, ok := e.state.GetAccount(accountID)
	if !ok || !acct.IsTradable() {
		return
	}

	acct = e.advancePeak(ctx, acct)

	if reason, code, breached := e.checkTerminalBreaches(acct); breached {
		e.handleBreach(ctx, acct, symbol, price, reason, code)
		return
	}

	e.checkConsistencyAndTarget(ctx, acct)
}

// advancePeak updates peak_balance for LIVE accounts and persists it
// when it changes, per the trailing drawdown math in SPEC_FULL.md §4.E.
func (e *Engine) advancePeak(ctx context.Context, acct models.Account) models.Account {
	if !acct.IsLive() {
		return acct
	}
	peak := acct.PeakBalance
	if peak.IsZero() {
		peak = acct.StartBalance
	}
	if acct.CurrentBalance.GreaterThan(peak) {
		newPeak := acct.CurrentBalance
		if updated, ok := e.state.UpdateAccount(acct.ID, models.Patch{PeakBalance: &newPeak}); ok {
			return updated
		}
	}
	return acct
}

func (e *Engine) checkTerminalBreaches(acct models.Account) (models.ExitReason, models.ErrorCode, bool) {
	if staticMaxLossBreached(acct, acct.CurrentBalance) {
		return models.ExitMaxLoss, models.ErrMaxLoss, true
	}
	if !acct.DailyLossLimit.IsZero() && acct.DailyRealizedPnL.LessThanOrEqual(acct.DailyLossLimit.Neg()) {
		return models.ExitDailyLossLimit, models.ErrDailyLossLimit, true
	}
	if !acct.MaxIntradayLoss.IsZero() {
		drawn := acct.StartOfDayEquity.Sub(acct.CurrentBalance)
		if drawn.GreaterThanOrEqual(acct.MaxIntradayLoss) {
			return models.ExitMaxIntradayLoss, models.ErrMaxIntradayLoss, true
		}
	}
	if floor, ok := trailingDDFloor(acct); ok && acct.CurrentBalance.LessThanOrEqual(floor) {
		return models.ExitTrailingDrawdown, models.ErrTrailingDrawdown, true
	}
	return "", models.ErrNone, false
}

func (e *Engine) checkConsistencyAndTarget(ctx context.Context, acct models.Account) {
	if !acct.ConsistencyFlag && !acct.ProfitTarget.IsZero() {
		half := acct.ProfitTarget.Mul(decimal.NewFromFloat(0.5))
		if acct.BestDayProfit.GreaterThan(half) {
			flag := true
			e.state.UpdateAccount(acct.ID, models.Patch{ConsistencyFlag: &flag})
			e.auditLog(ctx, "CONSISTENCY_FLAG", acct.ID)
			acct.ConsistencyFlag = true
		}
	}

	if !acct.ProfitTarget.IsZero() && acct.TotalProfit.GreaterThanOrEqual(acct.ProfitTarget) && !acct.ConsistencyFlag {
		status := models.AccountPassed
		frozen := models.TrailingFrozen
		e.state.UpdateAccount(acct.ID, models.Patch{Status: &status, TrailingDDMode: &frozen})
		e.auditLog(ctx, "PROFIT_TARGET_PASSED", acct.ID)
	}
}

func (e *Engine) auditLog(ctx context.Context, event, payload string) {
	if e.audit == nil {
		return
	}
	_ = e.audit.InsertAuditLog(ctx, models.AuditLogEntry{
		Event:     event,
		Payload:   payload,
		CreatedAt: time.Now().UnixMilli(),
	})
}
