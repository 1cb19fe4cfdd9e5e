// Package matching is the Matching Engine (SPEC_FULL.md §4.D): tick
// processing, order placement, fill execution and trade close. It
// never imports the risk package directly — risk is reached only
// through the narrow RiskGate interface below, injected at wiring
// time, so the matching<->risk cycle described in spec.md §9 is
// resolved the same way the teacher resolves its own service-pair
// cycles: by depending on a collaborator interface, not a package.
package matching

import (
	"context"
	"time"

	"propfirm-core/internal/models"

	"github.com/shopspring/decimal"
)

// RiskGate is the subset of the risk engine the matching engine calls
// into. closeTrade itself lives here in matching (handleBreach calls
// back into it as an injected function value, not through this
// interface) — RiskGate only carries the read/evaluate side.
type RiskGate interface {
	PreTradeRiskCheck(ctx context.Context, accountID, symbol string, quantity decimal.Decimal) models.Result
	EvaluateImmediateRisk(ctx context.Context, accountID string, hypotheticalBalance decimal.Decimal) models.Result
	EvaluateOpenPositions(ctx context.Context, symbol string, price decimal.Decimal)
}

// PriceFetcher is the synchronous REST fallback used by placeOrder
// step 4a when the cached mark is older than PRICE_STALE_MS.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// OrderStore persists order rows. Implemented by a pgx-backed adapter
// in production, a fake in tests.
type OrderStore interface {
	InsertPending(ctx context.Context, o models.Order) error
	InsertFilled(ctx context.Context, o models.Order, filledAt time.Time) error
	MarkRejected(ctx context.Context, orderID string, reason models.ErrorCode) error
	DeletePending(ctx context.Context, orderID string) error
}

// TradeStore persists trade rows.
type TradeStore interface {
	InsertOpen(ctx context.Context, t models.Trade) error
	UpdateClosed(ctx context.Context, t models.Trade) error
}

// AccountStore persists the account-balance side effects of closeTrade.
type AccountStore interface {
	ApplyBalancePatch(ctx context.Context, accountID string, patch models.Patch) error
}
