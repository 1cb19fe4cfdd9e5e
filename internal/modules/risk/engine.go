package risk

import (
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/internal/modules/registry"
	"propfirm-core/internal/modules/tradestate"
)

// Engine implements matching.RiskGate plus the per-tick evaluator and
// daily-reset collaborator.
type Engine struct {
	state    *tradestate.State
	registry *registry.Registry
	bus      *eventbus.Bus
	audit    AuditStore
	close    CloseTradeFunc
}

func New(state *tradestate.State, reg *registry.Registry, bus *eventbus.Bus, audit AuditStore, closeTrade CloseTradeFunc) *Engine {
	return &Engine{state: state, registry: reg, bus: bus, audit: audit, close: closeTrade}
}
