package pricehub

import (
	"testing"

	"propfirm-core/internal/models"
)

func TestSymbolAndType(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		payload    any
		wantSymbol string
		wantType   string
	}{
		{"price tick", "price_ticks", models.PriceTickEvent{Symbol: "BTCUSD"}, "BTCUSD", "price"},
		{"orderbook", "orderbook_BTCUSD", models.OrderbookEvent{Symbol: "BTCUSD"}, "BTCUSD", "orderbook"},
		{"trade opened", "trade_events", models.TradeEvent{Type: models.EventTradeOpened, Trade: models.Trade{Symbol: "EURUSD"}}, "EURUSD", "trade_fill"},
		{"trade closed", "trade_events", models.TradeEvent{Type: models.EventTradeClosed, Trade: models.Trade{Symbol: "EURUSD"}}, "EURUSD", "trade_close"},
		{"order pending", "order_events", models.OrderEvent{Type: models.EventOrderPending, Order: models.Order{Symbol: "BTCUSD"}}, "BTCUSD", "order_pending"},
		{"order rejected", "order_events", models.OrderEvent{Type: models.EventOrderReject, Order: models.Order{Symbol: "BTCUSD"}}, "BTCUSD", "order_reject"},
		{"order filled", "order_events", models.OrderEvent{Type: models.EventOrderFilled, Order: models.Order{Symbol: "BTCUSD"}}, "BTCUSD", "order_filled"},
		{"account update", "account_events", models.Account{ID: "a1"}, "", "account_update"},
		{"account upnl", "account_events", models.AccountUPnLEvent{AccountID: "a1"}, "", "account_upnl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, msgType := symbolAndType(tt.topic, tt.payload)
			if symbol != tt.wantSymbol || msgType != tt.wantType {
				t.Errorf("symbolAndType() = (%q, %q), want (%q, %q)", symbol, msgType, tt.wantSymbol, tt.wantType)
			}
		})
	}
}

func TestClient_WantsSymbol(t *testing.T) {
	c := newClient(nil)

	if !c.wantsSymbol("BTCUSD") {
		t.Error("a client with no subscriptions should want every symbol")
	}

	c.subscribe("BTCUSD")
	if !c.wantsSymbol("BTCUSD") {
		t.Error("expected subscribed symbol to be wanted")
	}
	if c.wantsSymbol("EURUSD") {
		t.Error("expected unsubscribed symbol to be filtered out once a subscription exists")
	}

	c.unsubscribe("BTCUSD")
	if !c.wantsSymbol("EURUSD") {
		t.Error("once all subscriptions are removed the client should want every symbol again")
	}
}

func TestClient_SubscribeIsIdempotent(t *testing.T) {
	c := newClient(nil)
	c.subscribe("BTCUSD")
	c.subscribe("BTCUSD")
	if len(c.subs) != 1 {
		t.Errorf("expected 1 subscription after duplicate subscribe calls, got %d", len(c.subs))
	}
}
