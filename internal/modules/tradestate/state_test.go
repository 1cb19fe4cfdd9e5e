package tradestate

import (
	"sync"
	"testing"

	"propfirm-core/internal/models"

	"github.com/shopspring/decimal"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.topics)
}

func TestState_UpsertAndGetAccount(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(pub)

	acct := models.Account{ID: "acct-1", CurrentBalance: decimal.NewFromInt(1000)}
	s.UpsertAccount(acct)

	got, ok := s.GetAccount("acct-1")
	if !ok {
		t.Fatal("expected account to be present after upsert")
	}
	if !got.CurrentBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("CurrentBalance = %v, want 1000", got.CurrentBalance)
	}
	if pub.count() != 1 {
		t.Errorf("expected 1 publish, got %d", pub.count())
	}
}

func TestState_UpdateAccount_NotFound(t *testing.T) {
	s := New(&recordingPublisher{})
	status := models.AccountBlown
	if _, ok := s.UpdateAccount("missing", models.Patch{Status: &status}); ok {
		t.Error("UpdateAccount on unknown account should report ok=false")
	}
}

func TestState_UpdateAccount_AppliesPatch(t *testing.T) {
	s := New(&recordingPublisher{})
	s.UpsertAccount(models.Account{ID: "acct-1", CurrentBalance: decimal.NewFromInt(1000)})

	newBalance := decimal.NewFromInt(1500)
	updated, ok := s.UpdateAccount("acct-1", models.Patch{CurrentBalance: &newBalance})
	if !ok {
		t.Fatal("expected update to succeed")
	}
	if !updated.CurrentBalance.Equal(newBalance) {
		t.Errorf("CurrentBalance = %v, want %v", updated.CurrentBalance, newBalance)
	}
}

func TestState_OpenTradeLifecycle(t *testing.T) {
	s := New(&recordingPublisher{})
	trade := models.Trade{ID: "t-1", AccountID: "acct-1", Symbol: "BTCUSD"}
	s.AddOpenTrade(trade)

	open := s.GetOpenTrades()
	if len(open) != 1 {
		t.Fatalf("expected 1 open trade, got %d", len(open))
	}

	bySymbol := s.GetOpenTradesBySymbol("BTCUSD")
	if len(bySymbol) != 1 {
		t.Fatalf("expected 1 open trade for BTCUSD, got %d", len(bySymbol))
	}

	byAccount := s.GetOpenTradesByAccount("acct-1")
	if len(byAccount) != 1 {
		t.Fatalf("expected 1 open trade for acct-1, got %d", len(byAccount))
	}

	now := trade
	closedAt := trade
	closedAt.TimeClosed = &now.TimeOpened
	s.RemoveOpenTrade("t-1", closedAt)

	if len(s.GetOpenTrades()) != 0 {
		t.Error("expected no open trades after RemoveOpenTrade")
	}
	if _, ok := s.GetTrade("t-1"); !ok {
		t.Error("closed trade should still be retrievable by id")
	}
}

func TestState_PendingOrderLifecycle(t *testing.T) {
	s := New(&recordingPublisher{})
	order := models.Order{ID: "o-1", AccountID: "acct-1", Symbol: "EURUSD"}
	s.AddPendingOrder(order)

	if len(s.GetPendingOrders()) != 1 {
		t.Fatal("expected 1 pending order")
	}
	if len(s.GetPendingOrdersBySymbol("EURUSD")) != 1 {
		t.Fatal("expected 1 pending order for EURUSD")
	}

	s.RemovePendingOrder("o-1")
	if len(s.GetPendingOrders()) != 0 {
		t.Error("expected no pending orders after removal")
	}
}
