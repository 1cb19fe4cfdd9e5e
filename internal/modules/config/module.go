package config

import "go.uber.org/fx"

// Module регистрирует NewConfig как fx-провайдер.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
	)
}
