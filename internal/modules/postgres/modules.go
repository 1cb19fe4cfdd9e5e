package postgres

import (
	"context"
	"fmt"

	"propfirm-core/internal/modules/config"
	"propfirm-core/pkg/db"

	"go.uber.org/fx"
)

// Module wires the pgx pool + transaction manager as fx providers, the
// only way core components may reach the relational store.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			fx.Annotate(
				func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
					poolMaster, err := db.NewPool(ctx, db.PoolConfig{
						DSN: cfg.DB,
					})
					if err != nil {
						return nil, fmt.Errorf("failed to create poolMaster: %w", err)
					}

					if err := poolMaster.Ping(ctx); err != nil {
						return nil, err
					}

					return db.NewPgTxManager(poolMaster), nil
				},
				fx.As(new(db.TxManager)),
			),
		),
	)
}
