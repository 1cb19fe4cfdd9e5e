package registry

import (
	"context"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(
			fx.Annotate(NewPgStore, fx.As(new(Store))),
			New,
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Registry, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(startCtx context.Context) error {
					_ = r.Reload(startCtx)
					go r.StartAutoRefresh(ctx)
					return nil
				},
			})
		}),
	)
}
