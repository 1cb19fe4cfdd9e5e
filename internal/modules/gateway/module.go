package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"propfirm-core/internal/modules/config"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/internal/modules/matching"
	"propfirm-core/internal/modules/tradestate"

	"go.uber.org/fx"
)

// Module wires the HTTP/WS gateway: OrderGate and StateReader are
// satisfied structurally by the matching engine and trade-state
// snapshot, so this is the one file naming both concrete types
// alongside the gateway's own narrow interfaces.
func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(
			fx.Annotate(func(e *matching.Engine) *matching.Engine { return e }, fx.As(new(OrderGate))),
			fx.Annotate(func(st *tradestate.State) *tradestate.State { return st }, fx.As(new(StateReader))),
			NewServer,
		),
		fx.Invoke(runHTTP),
		fx.Invoke(func(lc fx.Lifecycle, bus *eventbus.Bus, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go runMetricsBridge(ctx, bus)
					return nil
				},
			})
		}),
	)
}

func runHTTP(lc fx.Lifecycle, srv *Server, cfg *config.Config) {
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", httpSrv.Addr)
			if err != nil {
				return err
			}
			go func() { _ = httpSrv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return httpSrv.Shutdown(ctx)
		},
	})
}
