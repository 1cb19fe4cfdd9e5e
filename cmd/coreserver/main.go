package main

import (
	"context"
	"log"

	"propfirm-core/internal/modules/config"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/internal/modules/gateway"
	"propfirm-core/internal/modules/matching"
	"propfirm-core/internal/modules/postgres"
	"propfirm-core/internal/modules/pricehub"
	"propfirm-core/internal/modules/rediskv"
	"propfirm-core/internal/modules/registry"
	"propfirm-core/internal/modules/risk"
	"propfirm-core/internal/modules/tradestate"
	"propfirm-core/pkg/logger"
	"propfirm-core/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	syncLogger, err := logger.Init("propfirm-core", cfg.Env == "dev")
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer syncLogger()

	tracing.SetServiceName("propfirm-core")
	_, closeTracer, err := tracing.InitTracer(tracing.Config{Host: cfg.TraceAgentHost, Port: cfg.TraceAgentPort})
	if err != nil {
		log.Fatalf("tracing init failed: %v", err)
	}
	defer closeTracer()

	app := fx.New(
		fx.Provide(
			func() context.Context { return context.Background() },
		),
		config.Module(),
		postgres.Module(),
		rediskv.Module(),
		registry.Module(),
		tradestate.Module(),
		eventbus.Module(),
		matching.Module(),
		risk.Module(),
		pricehub.Module(),
		gateway.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}
