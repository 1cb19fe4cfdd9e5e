package risk

import (
	"propfirm-core/internal/modules/matching"

	"go.uber.org/fx"
)

// Module provides the risk Engine as both matching.RiskGate (so the
// matching engine's constructor is satisfied without importing this
// package) and the CloseTradeFunc wiring in the opposite direction —
// this file is the one place the cycle described in spec.md §9 is
// actually closed, safely, because only this package imports matching.
func Module() fx.Option {
	return fx.Module("risk",
		fx.Provide(
			fx.Annotate(NewPgAuditStore, fx.As(new(AuditStore))),
			func(m *matching.Engine) CloseTradeFunc { return m.CloseTrade },
			fx.Annotate(New, fx.As(new(matching.RiskGate))),
		),
	)
}
