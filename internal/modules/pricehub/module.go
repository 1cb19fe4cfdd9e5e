package pricehub

import (
	"context"

	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/internal/modules/rediskv"

	"go.uber.org/fx"
)

// busAdapter narrows eventbus.Bus down to Publisher.
type busAdapter struct{ bus *eventbus.Bus }

func (a busAdapter) Publish(topic string, payload any) error { return a.bus.Publish(topic, payload) }

func Module() fx.Option {
	return fx.Module("pricehub",
		fx.Provide(
			func(store *rediskv.Store) KVWriter { return store },
			func(bus *eventbus.Bus) Publisher { return busAdapter{bus: bus} },
			New,
			NewBroadcaster,
		),
		fx.Invoke(func(lc fx.Lifecycle, h *Hub, b *Broadcaster, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go h.Run(ctx)
					b.Start(ctx)
					return nil
				},
			})
		}),
	)
}
