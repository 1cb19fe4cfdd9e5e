package eventbus

import (
	"context"

	"propfirm-core/internal/modules/rediskv"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(
			New,
			func(bus *Bus, kv *rediskv.Store) *Bridge { return NewBridge(bus, kv) },
		),
		fx.Invoke(func(lc fx.Lifecycle, br *Bridge, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go br.Start(ctx,
						TopicPriceTicks,
						TopicTradeEvents,
						TopicOrderEvents,
						TopicAccountEvents,
					)
					return nil
				},
			})
		}),
	)
}
