package tradestate

import (
	"propfirm-core/internal/modules/eventbus"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("tradestate",
		fx.Provide(
			func(bus *eventbus.Bus) *State { return New(bus) },
		),
	)
}
