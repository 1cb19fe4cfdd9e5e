package gateway

import (
	"context"

	"propfirm-core/internal/models"
	"propfirm-core/internal/modules/eventbus"
)

// runMetricsBridge increments the Prometheus counters off the same
// event-bus topics the WS broadcaster fans out, so /metrics reflects
// real traffic without matching/risk importing the metrics package
// directly.
func runMetricsBridge(ctx context.Context, bus *eventbus.Bus) {
	orderCh := bus.Subscribe(eventbus.TopicOrderEvents)
	go eventbus.Run(ctx, orderCh, func(payload any) {
		evt, ok := payload.(models.OrderEvent)
		if !ok {
			return
		}
		switch evt.Type {
		case models.EventOrderFilled:
			OrdersPlaced.WithLabelValues(evt.Order.Symbol, string(evt.Order.Side)).Inc()
		case models.EventOrderReject:
			OrdersRejected.WithLabelValues(evt.Reason).Inc()
		}
	})

	tradeCh := bus.Subscribe(eventbus.TopicTradeEvents)
	go eventbus.Run(ctx, tradeCh, func(payload any) {
		evt, ok := payload.(models.TradeEvent)
		if !ok {
			return
		}
		if evt.Type == models.EventTradeClosed {
			TradesClosed.WithLabelValues(evt.Reason).Inc()
		}
	})

	acctCh := bus.Subscribe(eventbus.TopicAccountEvents)
	go eventbus.Run(ctx, acctCh, func(payload any) {
		acct, ok := payload.(models.Account)
		if ok && acct.Status == models.AccountBlown {
			AccountsBlown.WithLabelValues(string(acct.BlownReason)).Inc()
		}
	})
}
