package matching

import (
	"context"
	"sync"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/internal/modules/config"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/internal/modules/registry"
	"propfirm-core/internal/modules/tradestate"
	"propfirm-core/pkg/tracing"

	"github.com/shopspring/decimal"
)

// Engine holds every collaborator processTick/placeOrder/fillOrder/
// closeTrade need. Risk is reached only through RiskGate (see
// types.go); the rest are the same leaf modules the risk engine also
// depends on, so neither package imports the other.
type Engine struct {
	state    *tradestate.State
	registry *registry.Registry
	risk     RiskGate
	bus      *eventbus.Bus
	cfg      *config.Config

	orders   OrderStore
	trades   TradeStore
	accounts AccountStore

	fallback PriceFetcher

	locks *accountLocks
	dedup *dedupeSet

	markMu sync.RWMutex
	mark   map[string]decimal.Decimal
	markTs map[string]time.Time
}

func New(
	state *tradestate.State,
	reg *registry.Registry,
	risk RiskGate,
	bus *eventbus.Bus,
	cfg *config.Config,
	orders OrderStore,
	trades TradeStore,
	accounts AccountStore,
	fallback PriceFetcher,
) *Engine {
	return &Engine{
		state:    state,
		registry: reg,
		risk:     risk,
		bus:      bus,
		cfg:      cfg,
		orders:   orders,
		trades:   trades,
		accounts: accounts,
		fallback: fallback,
		locks:    newAccountLocks(),
		dedup:    newDedupeSet(cfg.DuplicateOrderMS),
		mark:     make(map[string]decimal.Decimal),
		markTs:   make(map[string]time.Time),
	}
}

func (e *Engine) setMark(symbol string, price decimal.Decimal, at time.Time) {
	e.markMu.Lock()
	e.mark[symbol] = price
	e.markTs[symbol] = at
	e.markMu.Unlock()
}

func (e *Engine) lastMark(symbol string) (decimal.Decimal, time.Time, bool) {
	e.markMu.RLock()
	defer e.markMu.RUnlock()
	p, ok := e.mark[symbol]
	return p, e.markTs[symbol], ok
}

// ProcessTick is processTick(symbol, price): SPEC_FULL.md §4.D, in the
// exact order specified so that a single tick cannot both fill a limit
// and trigger its own SL.
func (e *Engine) ProcessTick(ctx context.Context, symbol string, price decimal.Decimal) {
	span, ctx := tracing.StartSpan(ctx, "matching.processTick")
	defer span.Finish()

	now := time.Now()

	// 1. update mark, capturing the previous one first so the limit-fill
	// scan below can compute slippage against the pre-tick price.
	prevMark, _, hadPrevMark := e.lastMark(symbol)
	e.setMark(symbol, price, now)

	ins, ok := e.registry.GetContract(symbol)
	if !ok {
		logInfo("tick for unknown symbol %s", symbol)
		return
	}

	// 2. unrealized PnL refresh, aggregated per account, observational only
	open := e.state.GetOpenTradesBySymbol(symbol)
	upnlByAccount := make(map[string]decimal.Decimal)
	for _, t := range open {
		upnlByAccount[t.AccountID] = upnlByAccount[t.AccountID].Add(t.UnrealizedPnL(price, ins.TickValue))
	}
	for accountID, upnl := range upnlByAccount {
		e.publish(eventbus.TopicAccountEvents, models.AccountUPnLEvent{AccountID: accountID, Symbol: symbol, UPnL: upnl})
	}

	// 3. limit-fill scan
	for _, o := range e.state.GetPendingOrdersBySymbol(symbol) {
		if o.FillEligible(price) {
			prev := prevMark
			if !hadPrevMark {
				prev = price
			}
			go e.FillOrder(ctx, o, price, prev)
		}
	}

	// 4. SL/TP scan, respecting the grace period
	for _, t := range open {
		if now.Sub(t.TimeOpened) < e.cfg.SLTPGraceMS {
			continue
		}
		if reason, hit := t.CrossesStop(price); hit {
			e.CloseTrade(ctx, t, price, reason)
		}
	}

	// 5. hand off to the risk engine
	e.risk.EvaluateOpenPositions(ctx, symbol, price)
}

func (e *Engine) publish(topic string, payload any) {
	if e.bus == nil {
		return
	}
	_ = e.bus.Publish(topic, payload)
}
