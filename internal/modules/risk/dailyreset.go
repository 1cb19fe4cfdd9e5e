package risk

import (
	"context"
	"time"

	"propfirm-core/internal/models"

	"github.com/shopspring/decimal"
)

// DailyReset is the daily-reset collaborator (SPEC_FULL.md §4.E),
// invoked by a scheduled job at local-day rollover. For every account
// it optionally force-closes open trades at the last known mark, then
// resets the session counters.
func (e *Engine) DailyReset(ctx context.Context, now time.Time, lastMark func(symbol string) (decimal.Decimal, bool)) {
	today := now.In(time.UTC).Truncate(24 * time.Hour)

	for _, acct := range e.state.GetAccounts() {
		if acct.ForceCloseOnReset {
			for _, t := range e.state.GetOpenTradesByAccount(acct.ID) {
				price := t.EntryPrice
				if mark, ok := lastMark(t.Symbol); ok {
					price = mark
				}
				e.close(ctx, t, price, models.ExitDailyReset)
			}
		}

		zero := decimal.Zero
		balance, ok := e.state.GetAccount(acct.ID)
		if !ok {
			continue
		}
		startEquity := balance.CurrentBalance
		if _, ok := e.state.UpdateAccount(acct.ID, models.Patch{
			SessionDay:       &today,
			StartOfDayEquity: &startEquity,
			DailyRealizedPnL: &zero,
		}); !ok {
			logInfo("daily reset failed to apply session patch for account %s", acct.ID)
		}
		e.auditLog(ctx, "DAILY_RESET", acct.ID)
	}
}
