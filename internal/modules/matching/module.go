package matching

import (
	"propfirm-core/internal/modules/pricehub"

	"go.uber.org/fx"
)

// Module wires the matching engine's persistence adapters behind
// their narrow interfaces and provides the Engine. RiskGate and
// PriceFetcher are expected to already be in the graph (provided by
// internal/modules/risk and this package's own RESTFallback ctor,
// respectively), so matching never imports risk's concrete type.
// The Engine also satisfies pricehub.TickSink structurally; this is
// the one file that names that interface, since pricehub never
// imports matching back.
func Module() fx.Option {
	return fx.Module("matching",
		fx.Provide(
			fx.Annotate(NewPgOrderStore, fx.As(new(OrderStore))),
			fx.Annotate(NewPgTradeStore, fx.As(new(TradeStore))),
			fx.Annotate(NewPgAccountStore, fx.As(new(AccountStore))),
			fx.Annotate(NewRESTFallback, fx.As(new(PriceFetcher))),
			New,
			fx.Annotate(func(e *Engine) *Engine { return e }, fx.As(new(pricehub.TickSink))),
		),
	)
}
