package matching

import (
	"context"
	"errors"
	"time"

	"propfirm-core/internal/models"
	"propfirm-core/internal/modules/eventbus"
	"propfirm-core/pkg/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errNoFallback = errors.New("matching: no price fallback configured")

// PlaceOrder is placeOrder(order): SPEC_FULL.md §4.D.
func (e *Engine) PlaceOrder(ctx context.Context, o models.Order) models.Result {
	span, ctx := tracing.StartSpan(ctx, "matching.placeOrder")
	defer span.Finish()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now()

	// 1. normalize symbol; reject if unknown
	o.Symbol = e.registry.NormalizeSymbol(o.Symbol)
	ins, ok := e.registry.GetContract(o.Symbol)
	if !ok {
		return e.reject(ctx, o, models.ErrSymbolNotSupported)
	}

	// 2. duplicate-order suppression
	if e.dedup.seen(o, o.CreatedAt) {
		return e.reject(ctx, o, models.ErrDuplicateOrder)
	}

	// 3. pre-trade risk check
	if res := e.risk.PreTradeRiskCheck(ctx, o.AccountID, o.Symbol, o.Quantity); !res.OK {
		return e.reject(ctx, o, res.Code)
	}

	if o.Type == models.OrderMarket {
		return e.placeMarketOrder(ctx, o, ins)
	}
	return e.placeLimitOrder(ctx, o)
}

func (e *Engine) placeMarketOrder(ctx context.Context, o models.Order, ins models.Instrument) models.Result {
	price, ts, ok := e.lastMark(o.Symbol)

	// 4a. stale-price fallback
	if !ok || time.Since(ts) > e.cfg.PriceStaleMS {
		fetched, err := e.fetchFallbackPrice(ctx, o.Symbol)
		if err != nil {
			return e.reject(ctx, o, models.ErrNoLivePrice)
		}
		price = fetched
	}

	// 4b. INR conversion: latest USDINR mark, USDINRDefault when none is known
	if ins.ConvertToINR {
		fxRate := decimal.NewFromFloat(e.cfg.USDINRDefault)
		if usdinr, _, known := e.lastMark("USDINR"); known && usdinr.IsPositive() {
			fxRate = usdinr
		}
		price = price.Mul(fxRate)
	}

	prevPrice, _, hadPrev := e.lastMark(o.Symbol)
	if !hadPrev {
		prevPrice = price
	}

	// 4c. persist pending-as-filled row
	o.Status = models.OrderFilled
	if err := e.orders.InsertFilled(ctx, o, time.Now()); err != nil {
		logInfo("failed to persist filled order %s: %v", o.ID, err)
	}

	// 4d. evaluateImmediateRisk against the hypothetical post-fill balance
	if res := e.checkImmediateRisk(ctx, o, price, ins); !res.OK {
		_ = e.orders.MarkRejected(ctx, o.ID, res.Code)
		return res
	}

	// 4e. fillOrder
	e.FillOrder(ctx, o, price, prevPrice)
	return models.Ok()
}

func (e *Engine) placeLimitOrder(ctx context.Context, o models.Order) models.Result {
	o.Status = models.OrderPending
	e.state.AddPendingOrder(o)
	if err := e.orders.InsertPending(ctx, o); err != nil {
		logInfo("failed to persist pending order %s: %v", o.ID, err)
	}
	e.publish(eventbus.TopicOrderEvents, models.OrderEvent{Type: models.EventOrderPending, Order: o})
	return models.Ok()
}

// checkImmediateRisk estimates the hypothetical post-fill balance for
// a market order (commission only, since the trade has no PnL yet) and
// delegates to the risk engine.
func (e *Engine) checkImmediateRisk(ctx context.Context, o models.Order, price decimal.Decimal, ins models.Instrument) models.Result {
	acct, ok := e.state.GetAccount(o.AccountID)
	if !ok {
		return models.Fail(models.ErrAccountNotFound)
	}
	hypothetical := acct.CurrentBalance.Sub(ins.Commission.Mul(o.Quantity))
	return e.risk.EvaluateImmediateRisk(ctx, o.AccountID, hypothetical)
}

func (e *Engine) reject(ctx context.Context, o models.Order, code models.ErrorCode) models.Result {
	o.Status = models.OrderRejected
	o.RejectReason = code
	if err := e.orders.MarkRejected(ctx, o.ID, code); err != nil {
		logInfo("failed to persist rejected order %s: %v", o.ID, err)
	}
	e.publish(eventbus.TopicOrderEvents, models.OrderEvent{Type: models.EventOrderReject, Order: o, Reason: string(code)})
	return models.Fail(code)
}

func (e *Engine) fetchFallbackPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if e.fallback == nil {
		return decimal.Zero, errNoFallback
	}
	return e.fallback.FetchPrice(ctx, symbol)
}
