// Package risk is the Risk Engine (SPEC_FULL.md §4.E): the rule matrix
// gating order placement and fills, the per-tick evaluator that
// liquidates breached accounts, and the daily-reset collaborator. It
// depends on the same leaf modules the matching engine does
// (tradestate, registry); only the fx wiring in module.go imports
// matching — the engine code gets closeTrade handed in as
// CloseTradeFunc at wiring time, resolving the cycle spec.md §9 calls out.
package risk

import (
	"context"

	"propfirm-core/internal/models"

	"github.com/shopspring/decimal"
)

// CloseTradeFunc is matching.Engine.CloseTrade, injected so handleBreach
// can liquidate positions without the engine code importing matching.
type CloseTradeFunc func(ctx context.Context, trade models.Trade, closePrice decimal.Decimal, reason models.ExitReason)

// AuditStore persists trade_audit_logs rows.
type AuditStore interface {
	InsertAuditLog(ctx context.Context, entry models.AuditLogEntry) error
}
